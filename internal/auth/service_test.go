package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/dukayetu/dukayetu-backend/internal/users"
	pkgauth "github.com/dukayetu/dukayetu-backend/pkg/auth"
	"github.com/dukayetu/dukayetu-backend/pkg/config"
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	pkgerrors "github.com/dukayetu/dukayetu-backend/pkg/errors"
	"github.com/dukayetu/dukayetu-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	createFn      func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	return f.createFn(ctx, dto)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findByEmailFn(ctx, email)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "dukayetu-test", ExpirationMinutes: 60}
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	var captured users.CreateUserDTO
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
			captured = dto
			model := dto.ToModel()
			model.ID = uuid.New()
			return model, nil
		},
	}

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTConfig()})
	require.NoError(t, err)

	summary, err := svc.Register(context.Background(), RegisterRequest{
		FullName:    "Wanjiku Kamau",
		Email:       "Wanjiku@Example.com",
		Password:    "sup3r-secret",
		HostelBlock: "Block C",
		RoomNumber:  "C12",
	})
	require.NoError(t, err)

	require.NotEqual(t, "sup3r-secret", captured.HashedPassword)
	ok, err := security.VerifyPassword("sup3r-secret", captured.HashedPassword)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "wanjiku@example.com", summary.Email)
	require.Equal(t, "customer", summary.Role.String())
}

func TestRegisterMapsUniqueViolationToConflict(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, _ users.CreateUserDTO) (*models.User, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "uq_users_email"`)
		},
	}

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTConfig()})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		FullName: "Wanjiku Kamau",
		Email:    "wanjiku@example.com",
		Password: "sup3r-secret",
	})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestLoginMintsTokenWithDeliveryProfile(t *testing.T) {
	phone := "0712345678"
	hashed, err := security.HashPassword("sup3r-secret", config.PasswordConfig{})
	require.NoError(t, err)

	stored := &models.User{
		ID:              uuid.New(),
		FullName:        "Wanjiku Kamau",
		Email:           "wanjiku@example.com",
		PhoneNumber:     &phone,
		HashedPassword:  hashed,
		HostelBlock:     "Block C",
		RoomNumber:      "C12",
		Role:            "customer",
		IsOutsideCampus: false,
	}
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			require.Equal(t, "wanjiku@example.com", email)
			return stored, nil
		},
	}

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTConfig()})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "wanjiku@example.com", Password: "sup3r-secret"})
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, stored.ID, claims.UserID)
	require.Equal(t, "Block C", claims.HostelBlock)
	require.Equal(t, "C12", claims.RoomNumber)
	require.NotNil(t, claims.PhoneNumber)
	require.Equal(t, phone, *claims.PhoneNumber)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hashed, err := security.HashPassword("right-password", config.PasswordConfig{})
	require.NoError(t, err)

	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			if email == "missing@example.com" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{ID: uuid.New(), Email: email, HashedPassword: hashed, Role: "customer"}, nil
		},
	}

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTConfig()})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "whatever"})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())

	_, err = svc.Login(context.Background(), LoginRequest{Email: "wanjiku@example.com", Password: "wrong-password"})
	coded = pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())

	// same message either way, no account enumeration
	require.Equal(t, invalidCredentialsMessage, coded.Message())
}
