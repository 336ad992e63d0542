package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukayetu/dukayetu-backend/pkg/enums"
)

// Payment is the audit record of one STK push attempt. The unique indexes on
// OrderID and CheckoutRequestID enforce one payment per order and one record
// per gateway correlation id; rows are never deleted.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;uniqueIndex;not null" json:"order_id"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	CheckoutRequestID string              `gorm:"column:checkout_request_id;size:100;uniqueIndex;not null" json:"checkout_request_id"`
	MerchantRequestID string              `gorm:"column:merchant_request_id;size:100" json:"merchant_request_id"`
	Amount            float64             `gorm:"column:amount;not null" json:"amount"`
	PhoneNumber       string              `gorm:"column:phone_number;size:50;not null" json:"phone_number"`
	TransactionID     *string             `gorm:"column:transaction_id;size:100" json:"transaction_id,omitempty"`
	ResultCode        *int                `gorm:"column:result_code" json:"result_code,omitempty"`
	ResultDesc        *string             `gorm:"column:result_desc" json:"result_desc,omitempty"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'initiated'" json:"status"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
