package orders

import (
	"context"
	"errors"
	"io"
	"testing"

	pkgauth "github.com/dukayetu/dukayetu-backend/pkg/auth"
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	pkgerrors "github.com/dukayetu/dukayetu-backend/pkg/errors"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrderRepo struct {
	createOrderFn     func(ctx context.Context, order *models.Order) (*models.Order, error)
	attachFn          func(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error
	findByIDFn        func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	listByUserFn      func(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	productIDSetsFn   func(ctx context.Context, userID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	updateOrderFn     func(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	findByCheckoutFn  func(ctx context.Context, checkoutRequestID string) (*models.Order, error)
	findByIDAndUserFn func(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return f.createOrderFn(ctx, order)
}

func (f *fakeOrderRepo) AttachCartItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error {
	return f.attachFn(ctx, orderID, itemIDs)
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeOrderRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	return f.findByIDAndUserFn(ctx, id, userID)
}

func (f *fakeOrderRepo) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Order, error) {
	return f.findByCheckoutFn(ctx, checkoutRequestID)
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return f.listByUserFn(ctx, userID)
}

func (f *fakeOrderRepo) ListAttachedProductIDsByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	return f.productIDSetsFn(ctx, userID)
}

func (f *fakeOrderRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return f.updateOrderFn(ctx, orderID, updates)
}

type fakeCartLines struct {
	lines []models.CartItem
	err   error
}

func (f *fakeCartLines) ListUnattachedByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return f.lines, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
}

func customerActor(userID uuid.UUID) pkgauth.Actor {
	return pkgauth.Actor{
		UserID:      userID,
		Role:        enums.UserRoleCustomer,
		HostelBlock: "Block C",
		RoomNumber:  "C12",
	}
}

func newOrderService(t *testing.T, repo Repository, lines []models.CartItem) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		CartRepo: &fakeCartLines{lines: lines},
		TxRunner: passthroughTx{},
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return svc
}

func cartLine(userID, productID uuid.UUID, qty int, subtotal float64) models.CartItem {
	return models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: subtotal / float64(qty),
		Subtotal:  subtotal,
	}
}

func TestPlaceOrderRequiresCustomerRole(t *testing.T) {
	svc := newOrderService(t, &fakeOrderRepo{}, nil)

	actor := customerActor(uuid.New())
	actor.Role = enums.UserRoleAdmin
	_, err := svc.PlaceOrder(context.Background(), actor)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	svc := newOrderService(t, &fakeOrderRepo{}, nil)

	_, err := svc.PlaceOrder(context.Background(), customerActor(uuid.New()))
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestPlaceOrderDuplicateGuardIgnoresQuantities(t *testing.T) {
	userID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	lines := []models.CartItem{
		cartLine(userID, productA, 5, 500),
		cartLine(userID, productB, 1, 80),
	}
	repo := &fakeOrderRepo{
		productIDSetsFn: func(_ context.Context, _ uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
			// prior order held the same products at different quantities
			return map[uuid.UUID][]uuid.UUID{
				uuid.New(): {productB, productA},
			}, nil
		},
	}
	svc := newOrderService(t, repo, lines)

	_, err := svc.PlaceOrder(context.Background(), customerActor(userID))
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestPlaceOrderAllowsDifferentProductSet(t *testing.T) {
	userID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	lines := []models.CartItem{
		cartLine(userID, productA, 2, 200),
		cartLine(userID, productB, 1, 80),
	}

	var created *models.Order
	var attachedTo uuid.UUID
	var attachedIDs []uuid.UUID
	repo := &fakeOrderRepo{
		productIDSetsFn: func(_ context.Context, _ uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
			return map[uuid.UUID][]uuid.UUID{uuid.New(): {productA}}, nil
		},
		createOrderFn: func(_ context.Context, order *models.Order) (*models.Order, error) {
			created = order
			return order, nil
		},
		attachFn: func(_ context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error {
			attachedTo = orderID
			attachedIDs = itemIDs
			return nil
		},
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
			out := *created
			out.Items = lines
			return &out, nil
		},
	}
	svc := newOrderService(t, repo, lines)

	order, err := svc.PlaceOrder(context.Background(), customerActor(userID))
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, created.ID, attachedTo)
	require.Len(t, attachedIDs, 2)
	require.Equal(t, 280.0, order.TotalPrice)
	require.Equal(t, "Block C, Room C12", order.DeliveryAddress)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.OrderPaymentStatusPending, order.PaymentStatus)
}

func TestPlaceOrderUsesOutsideCampusSentinel(t *testing.T) {
	userID := uuid.New()
	lines := []models.CartItem{cartLine(userID, uuid.New(), 1, 100)}

	repo := &fakeOrderRepo{
		productIDSetsFn: func(_ context.Context, _ uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
			return nil, nil
		},
		createOrderFn: func(_ context.Context, order *models.Order) (*models.Order, error) {
			return order, nil
		},
		attachFn: func(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error { return nil },
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: id, DeliveryAddress: outsideCampusAddress}, nil
		},
	}
	svc := newOrderService(t, repo, lines)

	actor := customerActor(userID)
	actor.IsOutsideCampus = true
	actor.HostelBlock = ""
	actor.RoomNumber = ""

	order, err := svc.PlaceOrder(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, "Outside Campus", order.DeliveryAddress)
}

func TestPlaceOrderFailedAttachAbortsPlacement(t *testing.T) {
	userID := uuid.New()
	lines := []models.CartItem{cartLine(userID, uuid.New(), 1, 100)}

	reloaded := false
	repo := &fakeOrderRepo{
		productIDSetsFn: func(_ context.Context, _ uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
			return nil, nil
		},
		createOrderFn: func(_ context.Context, order *models.Order) (*models.Order, error) {
			return order, nil
		},
		attachFn: func(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error {
			return errors.New("attached 0 of 1 cart lines")
		},
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
			reloaded = true
			return nil, nil
		},
	}
	svc := newOrderService(t, repo, lines)

	_, err := svc.PlaceOrder(context.Background(), customerActor(userID))
	require.Error(t, err)
	require.False(t, reloaded)
}

func TestGetOrderOwnershipRules(t *testing.T) {
	ownerID := uuid.New()
	orderID := uuid.New()
	repo := &fakeOrderRepo{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
			if id != orderID {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Order{ID: orderID, UserID: ownerID}, nil
		},
	}
	svc := newOrderService(t, repo, nil)

	// owner sees the order
	_, err := svc.GetOrder(context.Background(), customerActor(ownerID), orderID)
	require.NoError(t, err)

	// admin sees any order
	admin := pkgauth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	_, err = svc.GetOrder(context.Background(), admin, orderID)
	require.NoError(t, err)

	// another customer is rejected
	_, err = svc.GetOrder(context.Background(), customerActor(uuid.New()), orderID)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())

	// missing order is not found
	_, err = svc.GetOrder(context.Background(), customerActor(ownerID), uuid.New())
	coded = pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestListOrdersRequiresCustomerRole(t *testing.T) {
	repo := &fakeOrderRepo{
		listByUserFn: func(_ context.Context, _ uuid.UUID) ([]models.Order, error) {
			t.Fatal("repo must not be queried for a non-customer")
			return nil, nil
		},
	}
	svc := newOrderService(t, repo, nil)

	actor := customerActor(uuid.New())
	actor.Role = enums.UserRoleAdmin
	_, err := svc.ListOrders(context.Background(), actor)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestListOrdersEmptyIsNotFound(t *testing.T) {
	repo := &fakeOrderRepo{
		listByUserFn: func(_ context.Context, _ uuid.UUID) ([]models.Order, error) {
			return nil, nil
		},
	}
	svc := newOrderService(t, repo, nil)

	_, err := svc.ListOrders(context.Background(), customerActor(uuid.New()))
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
