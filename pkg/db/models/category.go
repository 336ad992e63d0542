package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups catalog products.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:50;uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Products []Product `gorm:"foreignKey:CategoryID" json:"-"`
}
