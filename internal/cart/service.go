package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukayetu/dukayetu-backend/internal/catalog"
	"github.com/dukayetu/dukayetu-backend/pkg/db/models"
	pkgerrors "github.com/dukayetu/dukayetu-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the cart operations used by the controllers.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*AddItemResult, error)
	ViewCart(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo        Repository
	CatalogRepo catalog.Repository
	TxRunner    txRunner
}

// NewService constructs a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.CatalogRepo,
		tx:      params.TxRunner,
	}, nil
}

// AddItem snapshots the product price into a cart line, clamping the quantity
// to the remaining stock and decrementing stock in the same transaction.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*AddItemResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var result AddItemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)
		product, err := catalogRepo.FindProductByID(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Stock <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
		}

		qty := req.Quantity
		clamped := false
		if qty > product.Stock {
			qty = product.Stock
			clamped = true
		}

		if err := catalogRepo.DecrementStock(ctx, product.ID, qty); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}

		item := &models.CartItem{
			UserID:    userID,
			ProductID: product.ID,
			Quantity:  qty,
			UnitPrice: product.Price,
			Subtotal:  product.Price * float64(qty),
		}
		created, err := s.repo.WithTx(tx).CreateItem(ctx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}

		result = AddItemResult{
			Item:           *created,
			RequestedQty:   req.Quantity,
			ClampedToStock: clamped,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ViewCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	items, err := s.repo.ListUnattachedByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
	}

	total := 0.0
	for _, item := range items {
		total += item.Subtotal
	}
	return &View{Items: items, Total: total}, nil
}
