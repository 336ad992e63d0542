package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry with live stock.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:100;index;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	Price       float64   `gorm:"column:price;not null" json:"price"`
	Stock       int       `gorm:"column:stock;not null;default:0" json:"stock"`
	CategoryID  uuid.UUID `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	ImageURL    string    `gorm:"column:image_url;size:255;not null" json:"image_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
