package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dukayetu/dukayetu-backend/pkg/config"
	pkgerrors "github.com/dukayetu/dukayetu-backend/pkg/errors"
)

const (
	defaultBaseURL           = "https://sandbox.safaricom.co.ke"
	defaultTimeout           = 30 * time.Second
	oauthPath                = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath              = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath             = "/mpesa/stkpushquery/v1/query"
	timestampLayout          = "20060102150405"
	tokenExpirySlack         = 5 * time.Minute
	responseBodyReadLimit    = 4 * 1024
	transactionTypeOnline    = "CustomerPayBillOnline"
	minNormalizedPhoneDigits = 12
)

var (
	errCredentialsRequired = errors.New("mpesa consumer key and secret are required")
	errShortcodeRequired   = errors.New("mpesa shortcode and passkey are required")
)

// Client talks to the Safaricom Daraja API for STK push payments.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string

	now func() time.Time

	mu    sync.Mutex
	token cachedToken
}

// cachedToken holds an OAuth access token together with its expiry deadline.
type cachedToken struct {
	value     string
	expiresAt time.Time
}

func (t cachedToken) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Daraja base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithClock overrides the time source used for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the Daraja client from the M-Pesa configuration.
func NewClient(cfg config.MpesaConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errCredentialsRequired
	}
	if strings.TrimSpace(cfg.Shortcode) == "" || strings.TrimSpace(cfg.Passkey) == "" {
		return nil, errShortcodeRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        defaultBaseURL,
		consumerKey:    strings.TrimSpace(cfg.ConsumerKey),
		consumerSecret: strings.TrimSpace(cfg.ConsumerSecret),
		shortcode:      strings.TrimSpace(cfg.Shortcode),
		passkey:        strings.TrimSpace(cfg.Passkey),
		callbackURL:    strings.TrimSpace(cfg.CallbackURL),
		now:            time.Now,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimSpace(cfg.BaseURL)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// STKPushRequest describes one payment prompt sent to a customer phone.
type STKPushRequest struct {
	PhoneNumber      string
	Amount           int64
	AccountReference string
	Description      string
}

// STKPushResponse holds the Daraja acknowledgement for an STK push.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether Daraja accepted the push for processing.
func (r STKPushResponse) Accepted() bool {
	return strings.TrimSpace(r.ResponseCode) == "0"
}

// TransactionStatus holds the result of an STK push status query.
type TransactionStatus struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ResultCode        string `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
}

// STKPush sends a payment prompt to the customer phone.
func (c *Client) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mpesa client not configured")
	}
	phone, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}
	if req.Amount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be at least 1")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(timestampLayout)
	payload := map[string]any{
		"BusinessShortCode": c.shortcode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   transactionTypeOnline,
		"Amount":            req.Amount,
		"PartyA":            phone,
		"PartyB":            c.shortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.callbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   req.Description,
	}

	var out STKPushResponse
	if err := c.postJSON(ctx, stkPushPath, token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryTransactionStatus asks Daraja for the state of a previously initiated push.
func (c *Client) QueryTransactionStatus(ctx context.Context, checkoutRequestID string) (*TransactionStatus, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mpesa client not configured")
	}
	trimmed := strings.TrimSpace(checkoutRequestID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout request ID is required")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(timestampLayout)
	payload := map[string]any{
		"BusinessShortCode": c.shortcode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": trimmed,
	}

	var out TransactionStatus
	if err := c.postJSON(ctx, stkQueryPath, token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// accessToken returns a cached OAuth token, fetching a fresh one when expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.valid(c.now()) {
		return c.token.value, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(oauthPath), nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build oauth request")
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	httpReq.Header.Set("Authorization", "Basic "+credentials)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute oauth request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "oauth request failed")
	}

	var apiResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode oauth response")
	}
	if apiResp.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "oauth response missing access token")
	}

	ttl := time.Hour
	if secs, err := time.ParseDuration(strings.TrimSpace(apiResp.ExpiresIn) + "s"); err == nil && secs > 0 {
		ttl = secs
	}
	ttl -= tokenExpirySlack
	if ttl < 0 {
		ttl = 0
	}

	c.token = cachedToken{
		value:     apiResp.AccessToken,
		expiresAt: c.now().Add(ttl),
	}
	return c.token.value, nil
}

// password derives the STK push password for the given timestamp.
func (c *Client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.shortcode + c.passkey + timestamp))
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal daraja request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build daraja request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute daraja request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "daraja request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode daraja response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = "/" + strings.TrimLeft(path, "/")
	return trimmed + path
}

// NormalizePhone converts Kenyan phone formats to the 254XXXXXXXXX form Daraja expects.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.TrimPrefix(strings.TrimSpace(phone), "+"))

	switch {
	case cleaned == "":
		return "", errors.New("phone number is required")
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "254" + cleaned[1:]
	case !strings.HasPrefix(cleaned, "254"):
		cleaned = "254" + cleaned
	}

	if len(cleaned) < minNormalizedPhoneDigits {
		return "", fmt.Errorf("phone number %q is too short", phone)
	}
	return cleaned, nil
}
