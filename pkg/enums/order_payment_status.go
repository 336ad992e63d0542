package enums

import "fmt"

// OrderPaymentStatus tracks how far an order has moved through payment.
type OrderPaymentStatus string

const (
	OrderPaymentStatusPending    OrderPaymentStatus = "pending"
	OrderPaymentStatusProcessing OrderPaymentStatus = "processing"
	OrderPaymentStatusPaid       OrderPaymentStatus = "paid"
	OrderPaymentStatusFailed     OrderPaymentStatus = "failed"
)

var validOrderPaymentStatuses = []OrderPaymentStatus{
	OrderPaymentStatusPending,
	OrderPaymentStatusProcessing,
	OrderPaymentStatusPaid,
	OrderPaymentStatusFailed,
}

// String implements fmt.Stringer.
func (s OrderPaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderPaymentStatus.
func (s OrderPaymentStatus) IsValid() bool {
	for _, candidate := range validOrderPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderPaymentStatus converts raw input into an OrderPaymentStatus.
func ParseOrderPaymentStatus(value string) (OrderPaymentStatus, error) {
	for _, candidate := range validOrderPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order payment status %q", value)
}
