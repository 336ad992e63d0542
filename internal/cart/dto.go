package cart

import (
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/google/uuid"
)

// AddItemRequest is the payload accepted by POST /cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// View is the cart snapshot returned to the customer.
type View struct {
	Items []models.CartItem `json:"items"`
	Total float64           `json:"total"`
}

// AddItemResult reports the persisted line plus any clamping that happened.
type AddItemResult struct {
	Item            models.CartItem `json:"item"`
	RequestedQty    int             `json:"requested_quantity"`
	ClampedToStock  bool            `json:"clamped_to_stock"`
}
