package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dukayetu/dukayetu-backend/pkg/config"
	"github.com/dukayetu/dukayetu-backend/pkg/mpesa"
)

type stubWebhookService struct {
	ack      mpesa.Ack
	received *mpesa.CallbackEnvelope
}

func (s *stubWebhookService) HandleCallback(ctx context.Context, envelope mpesa.CallbackEnvelope) mpesa.Ack {
	s.received = &envelope
	return s.ack
}

func newCallbackRouter(cfg config.MpesaConfig, svc *stubWebhookService) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/webhooks/mpesa/{token}", MpesaCallback(cfg, svc, nil))
	return r
}

const callbackBody = `{"Body":{"stkCallback":{"MerchantRequestID":"mr-1","CheckoutRequestID":"ws_CO_123","ResultCode":0,"ResultDesc":"ok"}}}`

func TestMpesaCallbackWrongTokenIs404(t *testing.T) {
	svc := &stubWebhookService{ack: mpesa.AckSuccess()}
	router := newCallbackRouter(config.MpesaConfig{CallbackToken: "real-token"}, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa/guessed-token", bytes.NewReader([]byte(callbackBody)))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.received != nil {
		t.Fatalf("service must not run on a token mismatch")
	}
}

func TestMpesaCallbackEmptyConfiguredTokenIs404(t *testing.T) {
	svc := &stubWebhookService{ack: mpesa.AckSuccess()}
	router := newCallbackRouter(config.MpesaConfig{}, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa/anything", bytes.NewReader([]byte(callbackBody)))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMpesaCallbackValidTokenReturnsAck(t *testing.T) {
	svc := &stubWebhookService{ack: mpesa.AckSuccess()}
	router := newCallbackRouter(config.MpesaConfig{CallbackToken: "real-token"}, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa/real-token", bytes.NewReader([]byte(callbackBody)))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.received == nil {
		t.Fatalf("service did not receive the callback")
	}
	if got := svc.received.Body.STKCallback.CheckoutRequestID; got != "ws_CO_123" {
		t.Fatalf("unexpected checkout request id %s", got)
	}

	var ack mpesa.Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ResultCode != 0 {
		t.Fatalf("unexpected ack %+v", ack)
	}
}

func TestMpesaCallbackMalformedBodyStillAcks(t *testing.T) {
	svc := &stubWebhookService{ack: mpesa.AckSuccess()}
	router := newCallbackRouter(config.MpesaConfig{CallbackToken: "real-token"}, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa/real-token", bytes.NewReader([]byte(`{not json`)))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.received != nil {
		t.Fatalf("service must not run for a malformed body")
	}

	var ack mpesa.Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ResultCode != 1 {
		t.Fatalf("expected rejection ack got %+v", ack)
	}
}
