package auth

import (
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID          uuid.UUID
	Role            enums.UserRole
	PhoneNumber     *string
	HostelBlock     string
	RoomNumber      string
	IsOutsideCampus bool
}

// Actor is the authenticated identity handed to the domain services.
type Actor struct {
	UserID          uuid.UUID
	Role            enums.UserRole
	PhoneNumber     *string
	HostelBlock     string
	RoomNumber      string
	IsOutsideCampus bool
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// IsCustomer reports whether the actor carries the customer role.
func (a Actor) IsCustomer() bool {
	return a.Role == enums.UserRoleCustomer
}

// AccessTokenClaims is the typed JWT issued to clients. The delivery profile
// rides along so order placement never needs a second user lookup.
type AccessTokenClaims struct {
	UserID          uuid.UUID      `json:"user_id"`
	Role            enums.UserRole `json:"role"`
	PhoneNumber     *string        `json:"phone_number,omitempty"`
	HostelBlock     string         `json:"hostel_block,omitempty"`
	RoomNumber      string         `json:"room_number,omitempty"`
	IsOutsideCampus bool           `json:"is_outside_campus"`
	jwt.RegisteredClaims
}

// Actor projects the claims into the identity shape the services consume.
func (c *AccessTokenClaims) Actor() Actor {
	return Actor{
		UserID:          c.UserID,
		Role:            c.Role,
		PhoneNumber:     c.PhoneNumber,
		HostelBlock:     c.HostelBlock,
		RoomNumber:      c.RoomNumber,
		IsOutsideCampus: c.IsOutsideCampus,
	}
}
