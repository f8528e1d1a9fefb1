package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	catalogerrors "katalog/internal/errors"
	"katalog/internal/models"

	"github.com/google/uuid"
)

type memoryEntry struct {
	product models.Product
	seq     uint64
}

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// It enforces the same unique constraints as the database schema.
// Transactions are serialized and do not nest.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	products map[string]memoryEntry
	seq      uint64
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]memoryEntry),
	}
}

// FindAll returns all products in insertion order.
func (r *MemoryProductRepository) FindAll(_ context.Context) ([]models.Product, error) {
	return r.filter(func(models.Product) bool { return true }), nil
}

// FindByID returns a product by its ID.
func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	p := cloneProduct(e.product)
	return &p, nil
}

// FindByName returns the product with exactly the given name.
func (r *MemoryProductRepository) FindByName(_ context.Context, name string) (*models.Product, error) {
	return r.first(func(p models.Product) bool { return p.Name == name }), nil
}

// FindBySKU returns the product with exactly the given SKU.
func (r *MemoryProductRepository) FindBySKU(_ context.Context, sku string) (*models.Product, error) {
	if sku == "" {
		return nil, nil
	}
	return r.first(func(p models.Product) bool { return p.SKUValue() == sku }), nil
}

// FindByCategory returns the products in the given category.
func (r *MemoryProductRepository) FindByCategory(_ context.Context, category string) ([]models.Product, error) {
	return r.filter(func(p models.Product) bool { return p.Category == category }), nil
}

// SearchByName returns the products whose name contains fragment, ignoring case.
func (r *MemoryProductRepository) SearchByName(_ context.Context, fragment string) ([]models.Product, error) {
	needle := models.FoldName(fragment)
	return r.filter(func(p models.Product) bool {
		return strings.Contains(models.FoldName(p.Name), needle)
	}), nil
}

// Save inserts or overwrites a product.
func (r *MemoryProductRepository) Save(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.SKU != nil && *product.SKU == "" {
		product.SKU = nil
	}
	for id, e := range r.products {
		if id == product.ID {
			continue
		}
		if e.product.Name == product.Name {
			return fmt.Errorf("failed to save product: %w: %q", catalogerrors.ErrDuplicateName, product.Name)
		}
		if product.HasSKU() && e.product.SKUValue() == product.SKUValue() {
			return fmt.Errorf("failed to save product: %w: %q", catalogerrors.ErrDuplicateSKU, product.SKUValue())
		}
	}

	now := time.Now()
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	e, exists := r.products[product.ID]
	if !exists {
		r.seq++
		e.seq = r.seq
		product.CreatedAt = now
	} else {
		product.CreatedAt = e.product.CreatedAt
	}
	product.UpdatedAt = now
	e.product = cloneProduct(*product)
	r.products[product.ID] = e
	return nil
}

// Delete removes a product. Deleting an absent product is a no-op.
func (r *MemoryProductRepository) Delete(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.products, product.ID)
	return nil
}

// Transaction runs fn while holding the transaction lock and restores the
// previous state when fn fails or panics.
func (r *MemoryProductRepository) Transaction(_ context.Context, fn func(repo ProductRepository) error) (err error) {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snapshot, seq := r.snapshot()
	defer func() {
		if p := recover(); p != nil {
			r.restore(snapshot, seq)
			panic(p)
		}
		if err != nil {
			r.restore(snapshot, seq)
		}
	}()
	return fn(r)
}

func (r *MemoryProductRepository) snapshot() (map[string]memoryEntry, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make(map[string]memoryEntry, len(r.products))
	for id, e := range r.products {
		cp[id] = memoryEntry{product: cloneProduct(e.product), seq: e.seq}
	}
	return cp, r.seq
}

func (r *MemoryProductRepository) restore(products map[string]memoryEntry, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = products
	r.seq = seq
}

func (r *MemoryProductRepository) first(match func(models.Product) bool) *models.Product {
	found := r.filter(match)
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

func (r *MemoryProductRepository) filter(match func(models.Product) bool) []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(r.products))
	for _, e := range r.products {
		if match(e.product) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	productList := make([]models.Product, len(entries))
	for i, e := range entries {
		productList[i] = cloneProduct(e.product)
	}
	return productList
}

// cloneProduct copies p so callers never share the stored SKU pointer.
func cloneProduct(p models.Product) models.Product {
	if p.SKU != nil {
		sku := *p.SKU
		p.SKU = &sku
	}
	return p
}
