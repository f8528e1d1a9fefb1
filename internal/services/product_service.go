package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	catalogerrors "katalog/internal/errors"
	"katalog/internal/events"
	"katalog/internal/models"
	"katalog/internal/repositories"
)

// OperationRecorder observes the outcome of catalog mutations.
type OperationRecorder interface {
	ObserveOperation(operation string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, error) {}

// ProductService handles business logic related to products: it checks name
// and SKU uniqueness before writing and runs every check-then-write sequence
// in one store transaction.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher events.Publisher
	recorder  OperationRecorder
	logger    *slog.Logger
}

// NewProductService creates a new ProductService. publisher, recorder and
// logger may be nil.
func NewProductService(repo repositories.ProductRepository, publisher events.Publisher, recorder OperationRecorder, logger *slog.Logger) *ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger.With("component", "product_service"),
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.FindAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
// It returns (nil, nil) when the product does not exist.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// GetProductsByCategory retrieves the products of a category (exact match).
func (s *ProductService) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.repo.FindByCategory(ctx, category)
}

// SearchProductsByName retrieves the products whose name contains fragment,
// ignoring case.
func (s *ProductService) SearchProductsByName(ctx context.Context, fragment string) ([]models.Product, error) {
	return s.repo.SearchByName(ctx, fragment)
}

// CreateProduct stores a new product and returns it with its assigned ID.
// The name is checked before the SKU.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) (_ *models.Product, err error) {
	defer func() { s.observe(ctx, "create", err) }()

	product.ID = ""
	err = s.repo.Transaction(ctx, func(repo repositories.ProductRepository) error {
		if err := nameAvailable(ctx, repo, product.Name); err != nil {
			return err
		}
		if product.HasSKU() {
			if err := skuAvailable(ctx, repo, product.SKUValue()); err != nil {
				return err
			}
		}
		return repo.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductCreated, product)
	return product, nil
}

// UpdateProduct overwrites name, description, price, quantity, SKU and
// category of an existing product. Quantity is not range checked here; only
// UpdateProductQuantity rejects negative values.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, details models.Product) (_ *models.Product, err error) {
	defer func() { s.observe(ctx, "update", err) }()

	var updated *models.Product
	err = s.repo.Transaction(ctx, func(repo repositories.ProductRepository) error {
		product, err := mustFind(ctx, repo, id)
		if err != nil {
			return err
		}

		if product.Name != details.Name {
			if err := nameAvailable(ctx, repo, details.Name); err != nil {
				return err
			}
		}
		if details.HasSKU() && details.SKUValue() != product.SKUValue() {
			if err := skuAvailable(ctx, repo, details.SKUValue()); err != nil {
				return err
			}
		}

		product.Name = details.Name
		product.Description = details.Description
		product.Price = details.Price
		product.Quantity = details.Quantity
		product.SetSKU(details.SKUValue())
		product.Category = details.Category

		if err := repo.Save(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductUpdated, updated)
	return updated, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (err error) {
	defer func() { s.observe(ctx, "delete", err) }()

	var deleted *models.Product
	err = s.repo.Transaction(ctx, func(repo repositories.ProductRepository) error {
		product, err := mustFind(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, product); err != nil {
			return err
		}
		deleted = product
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.ProductDeleted, deleted)
	return nil
}

// UpdateProductQuantity sets the stock quantity of a product. Existence is
// checked before the quantity.
func (s *ProductService) UpdateProductQuantity(ctx context.Context, id string, quantity int) (_ *models.Product, err error) {
	defer func() { s.observe(ctx, "update_quantity", err) }()

	var updated *models.Product
	err = s.repo.Transaction(ctx, func(repo repositories.ProductRepository) error {
		product, err := mustFind(ctx, repo, id)
		if err != nil {
			return err
		}
		if quantity < 0 {
			return fmt.Errorf("%w: %d", catalogerrors.ErrInvalidQuantity, quantity)
		}

		product.Quantity = quantity
		if err := repo.Save(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductQuantityUpdated, updated)
	return updated, nil
}

func mustFind(ctx context.Context, repo repositories.ProductRepository, id string) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: id %s", catalogerrors.ErrProductNotFound, id)
	}
	return product, nil
}

func nameAvailable(ctx context.Context, repo repositories.ProductRepository, name string) error {
	existing, err := repo.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %q", catalogerrors.ErrDuplicateName, name)
	}
	return nil
}

func skuAvailable(ctx context.Context, repo repositories.ProductRepository, sku string) error {
	existing, err := repo.FindBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %q", catalogerrors.ErrDuplicateSKU, sku)
	}
	return nil
}

// publish emits a change event. Delivery failures are logged only; the change
// is already committed.
func (s *ProductService) publish(ctx context.Context, t events.Type, product *models.Product) {
	event := events.NewProductEvent(t, product)
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish product event",
			"event", t, "product_id", product.ID, "error", err)
	}
}

func (s *ProductService) observe(ctx context.Context, operation string, err error) {
	s.recorder.ObserveOperation(operation, err)

	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "Product operation succeeded", "operation", operation)
	case isRuleViolation(err):
		s.logger.InfoContext(ctx, "Product operation rejected", "operation", operation, "error", err)
	default:
		s.logger.ErrorContext(ctx, "Product operation failed", "operation", operation, "error", err)
	}
}

func isRuleViolation(err error) bool {
	return errors.Is(err, catalogerrors.ErrDuplicateName) ||
		errors.Is(err, catalogerrors.ErrDuplicateSKU) ||
		errors.Is(err, catalogerrors.ErrProductNotFound) ||
		errors.Is(err, catalogerrors.ErrInvalidQuantity)
}
