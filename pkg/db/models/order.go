package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukayetu/dukayetu-backend/pkg/enums"
)

// Order is the immutable snapshot produced from a cart. TotalPrice equals the
// sum of the attached lines' subtotals at creation time and is never
// recomputed.
type Order struct {
	ID                     uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID                `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	DeliveryAddress        string                   `gorm:"column:delivery_address;size:100;not null" json:"delivery_address"`
	TotalPrice             float64                  `gorm:"column:total_price;not null" json:"total_price"`
	Status                 enums.OrderStatus        `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	PaymentStatus          enums.OrderPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	MpesaCheckoutRequestID *string                  `gorm:"column:mpesa_checkout_request_id;size:100" json:"mpesa_checkout_request_id,omitempty"`
	MpesaTransactionID     *string                  `gorm:"column:mpesa_transaction_id;size:100" json:"mpesa_transaction_id,omitempty"`
	Items                  []CartItem               `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payment                *Payment                 `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt              time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
