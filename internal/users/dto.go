package users

import (
	"strings"

	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
)

// CreateUserDTO carries the fields needed to persist a new account.
type CreateUserDTO struct {
	FullName        string
	Email           string
	PhoneNumber     *string
	HashedPassword  string
	HostelBlock     string
	RoomNumber      string
	Role            enums.UserRole
	IsOutsideCampus bool
}

// ToModel maps the DTO onto the persistence model.
func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		FullName:        strings.TrimSpace(d.FullName),
		Email:           strings.ToLower(strings.TrimSpace(d.Email)),
		PhoneNumber:     d.PhoneNumber,
		HashedPassword:  d.HashedPassword,
		HostelBlock:     strings.TrimSpace(d.HostelBlock),
		RoomNumber:      strings.TrimSpace(d.RoomNumber),
		Role:            role,
		IsOutsideCampus: d.IsOutsideCampus,
	}
}
