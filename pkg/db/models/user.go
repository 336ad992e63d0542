package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukayetu/dukayetu-backend/pkg/enums"
)

// User is an authenticated account plus the campus delivery profile.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FullName        string         `gorm:"column:full_name;size:100;not null" json:"full_name"`
	Email           string         `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PhoneNumber     *string        `gorm:"column:phone_number;size:20;uniqueIndex" json:"phone_number,omitempty"`
	HashedPassword  string         `gorm:"column:hashed_password;size:255;not null" json:"-"`
	HostelBlock     string         `gorm:"column:hostel_block;size:50;not null" json:"hostel_block"`
	RoomNumber      string         `gorm:"column:room_number;size:50;not null" json:"room_number"`
	Role            enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'" json:"role"`
	IsOutsideCampus bool           `gorm:"column:is_outside_campus;not null;default:false" json:"is_outside_campus"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
