package orders

import (
	"context"
	"fmt"

	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	AttachCartItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAttachedProductIDsByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "Payment").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// AttachCartItems stamps the order id onto unattached cart lines. The
// unattached predicate keeps a line from ever being claimed twice.
func (r *repository) AttachCartItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id IN ? AND order_id IS NULL", itemIDs).
		UpdateColumn("order_id", orderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(itemIDs)) {
		return fmt.Errorf("attached %d of %d cart lines", result.RowsAffected, len(itemIDs))
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		First(&order, "mpesa_checkout_request_id = ?", checkoutRequestID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAttachedProductIDsByUser returns, per prior order, the product ids on
// its lines. Feeds the duplicate-order guard.
func (r *repository) ListAttachedProductIDsByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	var rows []struct {
		OrderID   uuid.UUID
		ProductID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("order_id", "product_id").
		Where("user_id = ? AND order_id IS NOT NULL", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	sets := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, row := range rows {
		sets[row.OrderID] = append(sets[row.OrderID], row.ProductID)
	}
	return sets, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
