package repositories

import (
	"context"

	"katalog/internal/models"
)

// ProductRepository defines the interface for product data access.
//
// Single-product lookups return (nil, nil) when nothing matches. Save inserts
// when the product has no ID yet and overwrites otherwise. Implementations
// report unique violations as catalogerrors.ErrDuplicateName or
// catalogerrors.ErrDuplicateSKU.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	FindByCategory(ctx context.Context, category string) ([]models.Product, error)
	SearchByName(ctx context.Context, fragment string) ([]models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, product *models.Product) error

	// Transaction runs fn against a repository bound to a single unit of work.
	// The work is committed when fn returns nil and rolled back otherwise.
	Transaction(ctx context.Context, fn func(repo ProductRepository) error) error
}
