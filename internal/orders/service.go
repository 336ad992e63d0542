package orders

import (
	"context"
	"errors"
	"fmt"

	pkgauth "github.com/dukayetu/dukayetu-backend/pkg/auth"
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	pkgerrors "github.com/dukayetu/dukayetu-backend/pkg/errors"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const outsideCampusAddress = "Outside Campus"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartRepository interface {
	ListUnattachedByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

// Service defines order-level operations used by the controllers.
type Service interface {
	PlaceOrder(ctx context.Context, actor pkgauth.Actor) (*models.Order, error)
	ListOrders(ctx context.Context, actor pkgauth.Actor) ([]models.Order, error)
	GetOrder(ctx context.Context, actor pkgauth.Actor, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo Repository
	cart cartRepository
	tx   txRunner
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo     Repository
	CartRepo cartRepository
	TxRunner txRunner
	Logger   *logger.Logger
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo: params.Repo,
		cart: params.CartRepo,
		tx:   params.TxRunner,
		logg: params.Logger,
	}, nil
}

// PlaceOrder turns the actor's unattached cart lines into an immutable order.
// The order row and the line attachments commit in one transaction.
func (s *service) PlaceOrder(ctx context.Context, actor pkgauth.Actor) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders")
	}

	lines, err := s.cart.ListUnattachedByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	candidate := productIDSet(lines)
	priorSets, err := s.repo.ListAttachedProductIDsByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prior orders")
	}
	for _, prior := range priorSets {
		if sameProductSet(candidate, prior) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already placed an order with these items")
		}
	}

	address, err := deliveryAddress(actor)
	if err != nil {
		return nil, err
	}

	total := 0.0
	itemIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		total += line.Subtotal
		itemIDs = append(itemIDs, line.ID)
	}

	orderID := uuid.New()
	order := &models.Order{
		ID:              orderID,
		UserID:          actor.UserID,
		DeliveryAddress: address,
		TotalPrice:      total,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.OrderPaymentStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.AttachCartItems(ctx, orderID, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach cart lines")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	placed, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order placed")
	return placed, nil
}

func (s *service) ListOrders(ctx context.Context, actor pkgauth.Actor) ([]models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can list their orders")
	}

	orders, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if len(orders) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders found")
	}
	return orders, nil
}

func (s *service) GetOrder(ctx context.Context, actor pkgauth.Actor, orderID uuid.UUID) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to you")
	}
	return order, nil
}

func deliveryAddress(actor pkgauth.Actor) (string, error) {
	if actor.IsOutsideCampus {
		return outsideCampusAddress, nil
	}
	if actor.HostelBlock == "" || actor.RoomNumber == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "delivery profile is incomplete")
	}
	return fmt.Sprintf("%s, Room %s", actor.HostelBlock, actor.RoomNumber), nil
}

func productIDSet(lines []models.CartItem) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		set[line.ProductID] = struct{}{}
	}
	return set
}

// sameProductSet compares product-id sets, ignoring quantities and duplicates.
func sameProductSet(candidate map[uuid.UUID]struct{}, prior []uuid.UUID) bool {
	priorSet := make(map[uuid.UUID]struct{}, len(prior))
	for _, id := range prior {
		priorSet[id] = struct{}{}
	}
	if len(priorSet) != len(candidate) {
		return false
	}
	for id := range priorSet {
		if _, ok := candidate[id]; !ok {
			return false
		}
	}
	return true
}
