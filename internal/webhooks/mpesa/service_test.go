package mpesawebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/dukayetu/dukayetu-backend/internal/orders"
	"github.com/dukayetu/dukayetu-backend/internal/payments"
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/dukayetu/dukayetu-backend/pkg/mpesa"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePaymentRepo struct {
	findByCheckoutFn func(ctx context.Context, checkoutRequestID string) (*models.Payment, error)
	updateFn         func(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error
}

func (f *fakePaymentRepo) WithTx(tx *gorm.DB) payments.Repository { return f }

func (f *fakePaymentRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePaymentRepo) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error) {
	return f.findByCheckoutFn(ctx, checkoutRequestID)
}

func (f *fakePaymentRepo) UpdatePayment(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error {
	return f.updateFn(ctx, paymentID, updates)
}

type fakeOrderRepo struct {
	updateOrderFn func(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) AttachCartItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error {
	return errors.New("not implemented")
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) ListAttachedProductIDsByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return f.updateOrderFn(ctx, orderID, updates)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "webhook-test", Output: io.Discard})
}

func newWebhookService(t *testing.T, paymentRepo payments.Repository, orderRepo orders.Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		PaymentRepo: paymentRepo,
		OrderRepo:   orderRepo,
		TxRunner:    passthroughTx{},
		Logger:      testLogger(),
	})
	require.NoError(t, err)
	return svc
}

func initiatedPayment(paymentID, orderID uuid.UUID) *models.Payment {
	return &models.Payment{
		ID:                paymentID,
		OrderID:           orderID,
		CheckoutRequestID: "ws_CO_191220191020363925",
		Amount:            350,
		Status:            enums.PaymentStatusInitiated,
	}
}

func decodeEnvelope(t *testing.T, body string) mpesa.CallbackEnvelope {
	t.Helper()
	var envelope mpesa.CallbackEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	return envelope
}

const successBody = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 350.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20191219102115},
          {"Name": "PhoneNumber", "Value": 254712345678}
        ]
      }
    }
  }
}`

const failureBody = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user."
    }
  }
}`

func TestHandleCallbackSuccessSettlesPaymentAndOrder(t *testing.T) {
	paymentID := uuid.New()
	orderID := uuid.New()

	var paymentUpdates, orderUpdates map[string]any
	paymentRepo := &fakePaymentRepo{
		findByCheckoutFn: func(_ context.Context, checkoutRequestID string) (*models.Payment, error) {
			require.Equal(t, "ws_CO_191220191020363925", checkoutRequestID)
			return initiatedPayment(paymentID, orderID), nil
		},
		updateFn: func(_ context.Context, id uuid.UUID, updates map[string]any) error {
			require.Equal(t, paymentID, id)
			paymentUpdates = updates
			return nil
		},
	}
	orderRepo := &fakeOrderRepo{
		updateOrderFn: func(_ context.Context, id uuid.UUID, updates map[string]any) error {
			require.Equal(t, orderID, id)
			orderUpdates = updates
			return nil
		},
	}

	svc := newWebhookService(t, paymentRepo, orderRepo)
	ack := svc.HandleCallback(context.Background(), decodeEnvelope(t, successBody))

	require.Equal(t, 0, ack.ResultCode)
	require.Equal(t, enums.PaymentStatusCompleted, paymentUpdates["status"])
	require.Equal(t, "NLJ7RT61SV", paymentUpdates["transaction_id"])
	require.Equal(t, "254712345678", paymentUpdates["phone_number"])
	require.Equal(t, 0, paymentUpdates["result_code"])
	require.Equal(t, enums.OrderPaymentStatusPaid, orderUpdates["payment_status"])
	require.Equal(t, enums.OrderStatusProcessing, orderUpdates["status"])
	require.Equal(t, "NLJ7RT61SV", orderUpdates["mpesa_transaction_id"])
}

func TestHandleCallbackFailureMarksPaymentFailed(t *testing.T) {
	paymentID := uuid.New()
	orderID := uuid.New()

	var paymentUpdates, orderUpdates map[string]any
	paymentRepo := &fakePaymentRepo{
		findByCheckoutFn: func(_ context.Context, _ string) (*models.Payment, error) {
			return initiatedPayment(paymentID, orderID), nil
		},
		updateFn: func(_ context.Context, _ uuid.UUID, updates map[string]any) error {
			paymentUpdates = updates
			return nil
		},
	}
	orderRepo := &fakeOrderRepo{
		updateOrderFn: func(_ context.Context, _ uuid.UUID, updates map[string]any) error {
			orderUpdates = updates
			return nil
		},
	}

	svc := newWebhookService(t, paymentRepo, orderRepo)
	ack := svc.HandleCallback(context.Background(), decodeEnvelope(t, failureBody))

	require.Equal(t, 0, ack.ResultCode)
	require.Equal(t, enums.PaymentStatusFailed, paymentUpdates["status"])
	require.Equal(t, 1032, paymentUpdates["result_code"])
	require.Equal(t, "Request cancelled by user.", paymentUpdates["result_desc"])
	require.Equal(t, enums.OrderPaymentStatusFailed, orderUpdates["payment_status"])
	require.NotContains(t, orderUpdates, "status")
}

func TestHandleCallbackUnknownCheckoutIDIsRejected(t *testing.T) {
	paymentRepo := &fakePaymentRepo{
		findByCheckoutFn: func(_ context.Context, _ string) (*models.Payment, error) {
			return nil, gorm.ErrRecordNotFound
		},
		updateFn: func(_ context.Context, _ uuid.UUID, _ map[string]any) error {
			t.Fatal("no payment must be updated for an unknown checkout id")
			return nil
		},
	}
	orderRepo := &fakeOrderRepo{
		updateOrderFn: func(_ context.Context, _ uuid.UUID, _ map[string]any) error {
			t.Fatal("no order must be updated for an unknown checkout id")
			return nil
		},
	}

	svc := newWebhookService(t, paymentRepo, orderRepo)
	ack := svc.HandleCallback(context.Background(), decodeEnvelope(t, successBody))

	require.Equal(t, 1, ack.ResultCode)
	require.Equal(t, "Transaction not found", ack.ResultDesc)
}

func TestHandleCallbackRedeliveryIsIdempotent(t *testing.T) {
	paymentID := uuid.New()
	orderID := uuid.New()
	settled := initiatedPayment(paymentID, orderID)
	settled.Status = enums.PaymentStatusCompleted

	paymentRepo := &fakePaymentRepo{
		findByCheckoutFn: func(_ context.Context, _ string) (*models.Payment, error) {
			return settled, nil
		},
		updateFn: func(_ context.Context, _ uuid.UUID, _ map[string]any) error {
			t.Fatal("a settled payment must not be updated again")
			return nil
		},
	}
	orderRepo := &fakeOrderRepo{
		updateOrderFn: func(_ context.Context, _ uuid.UUID, _ map[string]any) error {
			t.Fatal("a settled order must not be updated again")
			return nil
		},
	}

	svc := newWebhookService(t, paymentRepo, orderRepo)
	ack := svc.HandleCallback(context.Background(), decodeEnvelope(t, successBody))

	require.Equal(t, 0, ack.ResultCode)
}

func TestHandleCallbackSettlementErrorIsNotPropagated(t *testing.T) {
	paymentID := uuid.New()
	orderID := uuid.New()

	paymentRepo := &fakePaymentRepo{
		findByCheckoutFn: func(_ context.Context, _ string) (*models.Payment, error) {
			return initiatedPayment(paymentID, orderID), nil
		},
		updateFn: func(_ context.Context, _ uuid.UUID, _ map[string]any) error {
			return errors.New("connection reset")
		},
	}
	orderRepo := &fakeOrderRepo{
		updateOrderFn: func(_ context.Context, _ uuid.UUID, _ map[string]any) error {
			return nil
		},
	}

	svc := newWebhookService(t, paymentRepo, orderRepo)
	ack := svc.HandleCallback(context.Background(), decodeEnvelope(t, successBody))

	require.Equal(t, 1, ack.ResultCode)
	require.Equal(t, "Callback processing failed", ack.ResultDesc)
}
