package mpesawebhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dukayetu/dukayetu-backend/internal/orders"
	"github.com/dukayetu/dukayetu-backend/internal/payments"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/dukayetu/dukayetu-backend/pkg/mpesa"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service processes STK push result callbacks posted by Daraja.
type Service interface {
	HandleCallback(ctx context.Context, envelope mpesa.CallbackEnvelope) mpesa.Ack
}

type service struct {
	payments payments.Repository
	orders   orders.Repository
	tx       txRunner
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a webhook service.
type ServiceParams struct {
	PaymentRepo payments.Repository
	OrderRepo   orders.Repository
	TxRunner    txRunner
	Logger      *logger.Logger
}

// NewService constructs a webhook service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.PaymentRepo == nil {
		return nil, fmt.Errorf("payments repository is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		payments: params.PaymentRepo,
		orders:   params.OrderRepo,
		tx:       params.TxRunner,
		logg:     params.Logger,
	}, nil
}

// HandleCallback settles the payment named by the callback's checkout request
// id. Daraja retries callbacks it considers unacknowledged, so the handler is
// idempotent and always answers with an Ack rather than an error.
func (s *service) HandleCallback(ctx context.Context, envelope mpesa.CallbackEnvelope) mpesa.Ack {
	cb := envelope.Body.STKCallback
	ctx = s.logg.WithCheckoutRequestID(ctx, cb.CheckoutRequestID)

	if cb.CheckoutRequestID == "" {
		s.logg.Warn(ctx, "callback missing checkout request id")
		return mpesa.AckRejected("Transaction not found")
	}

	payment, err := s.payments.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "callback for unknown checkout request id")
			return mpesa.AckRejected("Transaction not found")
		}
		s.logg.Error(ctx, "callback payment lookup failed", err)
		return mpesa.AckRejected("Callback processing failed")
	}

	// A redelivered callback for a settled payment is acknowledged without
	// touching the records again.
	if payment.Status != enums.PaymentStatusInitiated {
		s.logg.Info(ctx, "callback already settled")
		return mpesa.AckSuccess()
	}

	if cb.Succeeded() {
		err = s.settleSuccess(ctx, payment.ID, payment.OrderID, cb)
	} else {
		err = s.settleFailure(ctx, payment.ID, payment.OrderID, cb)
	}
	if err != nil {
		s.logg.Error(ctx, "callback settlement failed", err)
		return mpesa.AckRejected("Callback processing failed")
	}

	resultCtx := s.logg.WithField(ctx, "result_code", strconv.Itoa(cb.ResultCode))
	s.logg.Info(resultCtx, "callback settled")
	return mpesa.AckSuccess()
}

// settleSuccess marks the payment completed and the order paid in one
// transaction, copying the receipt details out of the callback metadata.
func (s *service) settleSuccess(ctx context.Context, paymentID, orderID uuid.UUID, cb mpesa.STKCallback) error {
	paymentUpdates := map[string]any{
		"status":      enums.PaymentStatusCompleted,
		"result_code": cb.ResultCode,
		"result_desc": cb.ResultDesc,
	}
	orderUpdates := map[string]any{
		"payment_status": enums.OrderPaymentStatusPaid,
		"status":         enums.OrderStatusProcessing,
	}
	if receipt, ok := cb.MetadataString("MpesaReceiptNumber"); ok {
		paymentUpdates["transaction_id"] = receipt
		orderUpdates["mpesa_transaction_id"] = receipt
	}
	if phone, ok := cb.MetadataString("PhoneNumber"); ok {
		paymentUpdates["phone_number"] = phone
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).UpdatePayment(ctx, paymentID, paymentUpdates); err != nil {
			return err
		}
		return s.orders.WithTx(tx).UpdateOrder(ctx, orderID, orderUpdates)
	})
}

// settleFailure records the gateway's result on the payment and releases the
// order back to a failed payment state.
func (s *service) settleFailure(ctx context.Context, paymentID, orderID uuid.UUID, cb mpesa.STKCallback) error {
	paymentUpdates := map[string]any{
		"status":      enums.PaymentStatusFailed,
		"result_code": cb.ResultCode,
		"result_desc": cb.ResultDesc,
	}
	orderUpdates := map[string]any{
		"payment_status": enums.OrderPaymentStatusFailed,
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).UpdatePayment(ctx, paymentID, paymentUpdates); err != nil {
			return err
		}
		return s.orders.WithTx(tx).UpdateOrder(ctx, orderID, orderUpdates)
	})
}
