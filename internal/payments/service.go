package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dukayetu/dukayetu-backend/internal/orders"
	pkgauth "github.com/dukayetu/dukayetu-backend/pkg/auth"
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	pkgerrors "github.com/dukayetu/dukayetu-backend/pkg/errors"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/dukayetu/dukayetu-backend/pkg/mpesa"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// amountEpsilon tolerates float drift between the client total and the stored total.
var amountEpsilon = decimal.NewFromFloat(0.01)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	QueryTransactionStatus(ctx context.Context, checkoutRequestID string) (*mpesa.TransactionStatus, error)
}

// Service defines the payment operations used by the controllers.
type Service interface {
	Initiate(ctx context.Context, actor pkgauth.Actor, req InitiateRequest) (*InitiateResponse, error)
	Status(ctx context.Context, actor pkgauth.Actor, orderID uuid.UUID) (*StatusResponse, error)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	gateway gateway
	tx      txRunner
	logg    *logger.Logger
}

// ServiceParams bundles the dependencies required to build a payments service.
type ServiceParams struct {
	Repo      Repository
	OrderRepo orders.Repository
	Gateway   gateway
	TxRunner  txRunner
	Logger    *logger.Logger
}

// NewService constructs a payments service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("mpesa gateway is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:    params.Repo,
		orders:  params.OrderRepo,
		gateway: params.Gateway,
		tx:      params.TxRunner,
		logg:    params.Logger,
	}, nil
}

// Initiate fires an STK push for a pending order. The push amount is the
// stored order total; the caller's amount is only checked against it and
// recorded on the payment row.
func (s *service) Initiate(ctx context.Context, actor pkgauth.Actor, req InitiateRequest) (*InitiateResponse, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.orders.FindByIDAndUser(ctx, req.OrderID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.OrderPaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	diff := decimal.NewFromFloat(req.Amount).Sub(decimal.NewFromFloat(order.TotalPrice)).Abs()
	if diff.GreaterThan(amountEpsilon) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match order total")
	}

	if actor.PhoneNumber == nil || *actor.PhoneNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no phone number on file")
	}
	phone, err := mpesa.NormalizePhone(*actor.PhoneNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}

	pushed, err := s.gateway.STKPush(ctx, mpesa.STKPushRequest{
		PhoneNumber:      phone,
		Amount:           int64(math.Round(order.TotalPrice)),
		AccountReference: fmt.Sprintf("DukaYetu-%s", shortOrderRef(order.ID)),
		Description:      "DukaYetu order payment",
	})
	if err != nil {
		return nil, err
	}
	if !pushed.Accepted() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment request rejected: %s", pushed.ResponseDescription))
	}

	payment := &models.Payment{
		OrderID:           order.ID,
		UserID:            actor.UserID,
		CheckoutRequestID: pushed.CheckoutRequestID,
		MerchantRequestID: pushed.MerchantRequestID,
		Amount:            req.Amount,
		PhoneNumber:       phone,
		Status:            enums.PaymentStatusInitiated,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		updates := map[string]any{
			"mpesa_checkout_request_id": pushed.CheckoutRequestID,
			"payment_status":            enums.OrderPaymentStatusProcessing,
		}
		if err := s.orders.WithTx(tx).UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order processing")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithCheckoutRequestID(s.logg.WithOrderID(ctx, order.ID.String()), pushed.CheckoutRequestID)
	s.logg.Info(ctx, "stk push initiated")

	return &InitiateResponse{
		OrderID:           order.ID,
		CheckoutRequestID: pushed.CheckoutRequestID,
		MerchantRequestID: pushed.MerchantRequestID,
		CustomerMessage:   pushed.CustomerMessage,
	}, nil
}

// Status returns the owner's view of a payment. For payments still awaiting a
// callback it asks the gateway best-effort; a query failure only logs.
func (s *service) Status(ctx context.Context, actor pkgauth.Actor, orderID uuid.UUID) (*StatusResponse, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.orders.FindByIDAndUser(ctx, orderID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	payment, err := s.repo.FindByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment initiated for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	resp := &StatusResponse{
		OrderID:            order.ID,
		OrderPaymentStatus: order.PaymentStatus,
		Payment:            summarizePayment(payment),
	}

	if payment.Status == enums.PaymentStatusInitiated {
		status, err := s.gateway.QueryTransactionStatus(ctx, payment.CheckoutRequestID)
		if err != nil {
			warnCtx := s.logg.WithField(ctx, "error", err.Error())
			s.logg.Warn(s.logg.WithCheckoutRequestID(warnCtx, payment.CheckoutRequestID), "transaction status query failed")
		} else if status.ResultDesc != "" {
			resp.Payment.ResultDesc = &status.ResultDesc
		}
	}

	return resp, nil
}

func shortOrderRef(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
