package catalog

import (
	"github.com/google/uuid"
)

// CreateProductRequest is the admin payload for adding a catalog product.
type CreateProductRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Price       float64   `json:"price" validate:"required,gt=0"`
	Stock       int       `json:"stock" validate:"gte=0"`
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url,max=255"`
}

// CreateCategoryRequest is the admin payload for adding a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// ProductFilters narrows the product listing.
type ProductFilters struct {
	CategoryID *uuid.UUID
	Query      string
}
