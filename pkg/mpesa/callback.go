package mpesa

import (
	"strconv"
	"strings"
)

// CallbackEnvelope mirrors the JSON body Daraja posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the result of one STK push attempt.
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata carries the name/value items present on successful payments.
type CallbackMetadata struct {
	Items []CallbackItem `json:"Item"`
}

// CallbackItem is one metadata entry. Value is a string, number or absent.
type CallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

// Succeeded reports whether the customer completed the payment.
func (c STKCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// MetadataString returns the named metadata item as a string.
func (c STKCallback) MetadataString(name string) (string, bool) {
	value, ok := c.metadataValue(name)
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// MetadataAmount returns the Amount metadata item.
func (c STKCallback) MetadataAmount() (float64, bool) {
	value, ok := c.metadataValue("Amount")
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func (c STKCallback) metadataValue(name string) (any, bool) {
	if c.CallbackMetadata == nil {
		return nil, false
	}
	for _, item := range c.CallbackMetadata.Items {
		if strings.EqualFold(item.Name, name) {
			return item.Value, item.Value != nil
		}
	}
	return nil, false
}

// Ack is the acknowledgement body returned to Daraja from the callback endpoint.
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// AckSuccess acknowledges a processed callback.
func AckSuccess() Ack {
	return Ack{ResultCode: 0, ResultDesc: "Callback processed successfully"}
}

// AckRejected acknowledges a callback that could not be matched to a payment.
func AckRejected(desc string) Ack {
	if desc == "" {
		desc = "Callback rejected"
	}
	return Ack{ResultCode: 1, ResultDesc: desc}
}
