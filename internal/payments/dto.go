package payments

import (
	"time"

	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	"github.com/google/uuid"
)

// InitiateRequest is the payload accepted by POST /payments/initiate.
type InitiateRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Amount  float64   `json:"amount" validate:"required,gt=0"`
}

// InitiateResponse reports the gateway acknowledgement for the STK push.
type InitiateResponse struct {
	OrderID           uuid.UUID `json:"order_id"`
	CheckoutRequestID string    `json:"checkout_request_id"`
	MerchantRequestID string    `json:"merchant_request_id"`
	CustomerMessage   string    `json:"customer_message"`
}

// PaymentSummary is the payment shape returned by the status endpoint.
type PaymentSummary struct {
	ID                uuid.UUID           `json:"id"`
	CheckoutRequestID string              `json:"checkout_request_id"`
	Amount            float64             `json:"amount"`
	PhoneNumber       string              `json:"phone_number"`
	TransactionID     *string             `json:"transaction_id,omitempty"`
	ResultDesc        *string             `json:"result_desc,omitempty"`
	Status            enums.PaymentStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
}

// StatusResponse combines the order payment state with the payment record.
type StatusResponse struct {
	OrderID            uuid.UUID                `json:"order_id"`
	OrderPaymentStatus enums.OrderPaymentStatus `json:"order_payment_status"`
	Payment            PaymentSummary           `json:"payment"`
}

func summarizePayment(payment *models.Payment) PaymentSummary {
	return PaymentSummary{
		ID:                payment.ID,
		CheckoutRequestID: payment.CheckoutRequestID,
		Amount:            payment.Amount,
		PhoneNumber:       payment.PhoneNumber,
		TransactionID:     payment.TransactionID,
		ResultDesc:        payment.ResultDesc,
		Status:            payment.Status,
		CreatedAt:         payment.CreatedAt,
	}
}
