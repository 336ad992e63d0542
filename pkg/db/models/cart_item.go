package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a price-snapshot cart line. OrderID stays NULL while the line
// sits in the cart; it is set exactly once when the line is attached to an
// order, after which the line is never mutated.
type CartItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	OrderID   *uuid.UUID `gorm:"column:order_id;type:uuid;index" json:"order_id,omitempty"`
	Quantity  int        `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice float64    `gorm:"column:unit_price;not null" json:"unit_price"`
	Subtotal  float64    `gorm:"column:subtotal;not null" json:"subtotal"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
