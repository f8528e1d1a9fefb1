package repositories

import (
	"context"
	"fmt"

	"katalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// FindAll retrieves all products ordered by creation time.
func (r *GORMProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a single product by its ID.
func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return p, nil
}

// FindByName retrieves the product with exactly the given name.
func (r *GORMProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	p, err := r.findOne(ctx, "name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by name %q: %w", name, err)
	}
	return p, nil
}

// FindBySKU retrieves the product with exactly the given SKU.
func (r *GORMProductRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	p, err := r.findOne(ctx, "sku = ?", sku)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by SKU %q: %w", sku, err)
	}
	return p, nil
}

// FindByCategory retrieves the products in the given category.
func (r *GORMProductRepository) FindByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at, id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get products by category %q: %w", category, err)
	}
	return products, nil
}

// SearchByName retrieves the products whose name contains fragment, ignoring
// case. Both sides are folded in Go, so non-ASCII names match on every driver.
func (r *GORMProductRepository) SearchByName(ctx context.Context, fragment string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where(`name_folded LIKE ? ESCAPE '\'`, containsPattern(fragment)).
		Order("created_at, id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name %q: %w", fragment, err)
	}
	return products, nil
}

// Save inserts the product when it has no ID yet, otherwise overwrites it.
func (r *GORMProductRepository) Save(ctx context.Context, product *models.Product) error {
	db := r.db.WithContext(ctx)
	if product.ID == "" {
		product.ID = uuid.New().String()
		if err := db.Create(product).Error; err != nil {
			product.ID = ""
			return fmt.Errorf("failed to create product: %w", translateProductError(err))
		}
		return nil
	}
	// Save writes every column, including zero values.
	if err := db.Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, translateProductError(err))
	}
	return nil
}

// Delete removes the product row.
func (r *GORMProductRepository) Delete(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", product.ID).Error; err != nil {
		return fmt.Errorf("failed to delete product %s: %w", product.ID, err)
	}
	return nil
}

// Transaction runs fn inside a database transaction. GORM commits when fn
// returns nil and rolls back on error or panic.
func (r *GORMProductRepository) Transaction(ctx context.Context, fn func(repo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMProductRepository(tx))
	})
}

func (r *GORMProductRepository) findOne(ctx context.Context, query string, arg any) (*models.Product, error) {
	var product models.Product
	// Find with Limit avoids gorm.ErrRecordNotFound for the expected miss.
	res := r.db.WithContext(ctx).Where(query, arg).Limit(1).Find(&product)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &product, nil
}
