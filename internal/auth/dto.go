package auth

import (
	"time"

	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	"github.com/google/uuid"
)

// RegisterRequest is the payload accepted by POST /auth/register.
type RegisterRequest struct {
	FullName        string  `json:"full_name" validate:"required,min=2,max=100"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8,max=128"`
	PhoneNumber     *string `json:"phone_number,omitempty" validate:"omitempty,min=9,max=20"`
	HostelBlock     string  `json:"hostel_block" validate:"max=50"`
	RoomNumber      string  `json:"room_number" validate:"max=50"`
	IsOutsideCampus bool    `json:"is_outside_campus"`
}

// LoginRequest is the payload accepted by POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the account shape returned to clients.
type UserSummary struct {
	ID              uuid.UUID      `json:"id"`
	FullName        string         `json:"full_name"`
	Email           string         `json:"email"`
	PhoneNumber     *string        `json:"phone_number,omitempty"`
	HostelBlock     string         `json:"hostel_block,omitempty"`
	RoomNumber      string         `json:"room_number,omitempty"`
	Role            enums.UserRole `json:"role"`
	IsOutsideCampus bool           `json:"is_outside_campus"`
	CreatedAt       time.Time      `json:"created_at"`
}

// LoginResponse carries the minted token plus the account summary.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserSummary `json:"user"`
}

func summarize(user *models.User) UserSummary {
	return UserSummary{
		ID:              user.ID,
		FullName:        user.FullName,
		Email:           user.Email,
		PhoneNumber:     user.PhoneNumber,
		HostelBlock:     user.HostelBlock,
		RoomNumber:      user.RoomNumber,
		Role:            user.Role,
		IsOutsideCampus: user.IsOutsideCampus,
		CreatedAt:       user.CreatedAt,
	}
}
