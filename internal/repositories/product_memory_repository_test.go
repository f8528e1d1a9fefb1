package repositories_test

import (
	"context"
	"errors"
	"testing"

	catalogerrors "katalog/internal/errors"
	"katalog/internal/models"
	"katalog/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProductRepository_SaveAndFind(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	ctx := context.Background()

	product := &models.Product{Name: "Widget", SKU: strPtr("W-1"), Category: "tools"}
	require.NoError(t, repo.Save(ctx, product))
	require.NotEmpty(t, product.ID)
	assert.False(t, product.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product, byID)

	// Returned products are copies.
	*byID.SKU = "tampered"
	again, err := repo.FindBySKU(ctx, "W-1")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, product.ID, again.ID)

	missing, err := repo.FindByName(ctx, "widget")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryProductRepository_UniqueConstraints(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	ctx := context.Background()

	widget := &models.Product{Name: "Widget", SKU: strPtr("W-1")}
	require.NoError(t, repo.Save(ctx, widget))

	assert.ErrorIs(t, repo.Save(ctx, &models.Product{Name: "Widget"}), catalogerrors.ErrDuplicateName)
	assert.ErrorIs(t, repo.Save(ctx, &models.Product{Name: "Gadget", SKU: strPtr("W-1")}), catalogerrors.ErrDuplicateSKU)

	// Overwriting a product with its own values is not a conflict.
	widget.Quantity = 3
	assert.NoError(t, repo.Save(ctx, widget))

	empty := &models.Product{Name: "Plain A", SKU: strPtr("")}
	require.NoError(t, repo.Save(ctx, empty))
	assert.Nil(t, empty.SKU)
	require.NoError(t, repo.Save(ctx, &models.Product{Name: "Plain B"}))
}

func TestMemoryProductRepository_OrderAndQueries(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	ctx := context.Background()

	for _, name := range []string{"Widget", "Hammer", "Mini Widget"} {
		require.NoError(t, repo.Save(ctx, &models.Product{Name: name, Category: "tools"}))
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget", "Hammer", "Mini Widget"}, productNames(all))

	found, err := repo.SearchByName(ctx, "WID")
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget", "Mini Widget"}, productNames(found))

	tools, err := repo.FindByCategory(ctx, "tools")
	require.NoError(t, err)
	assert.Len(t, tools, 3)

	require.NoError(t, repo.Delete(ctx, &all[1]))
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget", "Mini Widget"}, productNames(all))
}

func TestMemoryProductRepository_TransactionRollsBack(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Product{Name: "Widget", Quantity: 1}))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx repositories.ProductRepository) error {
		existing, err := tx.FindByName(ctx, "Widget")
		if err != nil {
			return err
		}
		existing.Quantity = 99
		if err := tx.Save(ctx, existing); err != nil {
			return err
		}
		if err := tx.Save(ctx, &models.Product{Name: "Gadget"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Quantity)

	assert.Panics(t, func() {
		_ = repo.Transaction(ctx, func(tx repositories.ProductRepository) error {
			_ = tx.Save(ctx, &models.Product{Name: "Gadget"})
			panic("boom")
		})
	})
	gadget, err := repo.FindByName(ctx, "Gadget")
	require.NoError(t, err)
	assert.Nil(t, gadget)
}
