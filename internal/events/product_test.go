package events_test

import (
	"context"
	"testing"

	"katalog/internal/events"
	"katalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductEvent_PayloadRoundTrip(t *testing.T) {
	sku := "W-1"
	product := &models.Product{ID: "p-1", Name: "Widget", SKU: &sku, Category: "tools", Quantity: 5}

	event := events.NewProductEvent(events.ProductQuantityUpdated, product)
	assert.Equal(t, "product.quantity_updated", event.RoutingKey())
	assert.False(t, event.OccurredAt.IsZero())

	body, err := event.Payload()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"product.quantity_updated"`)

	decoded, err := events.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, event.ProductID, decoded.ProductID)
	assert.Equal(t, event.SKU, decoded.SKU)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestProductEvent_OmitsEmptySKU(t *testing.T) {
	body, err := events.NewProductEvent(events.ProductCreated, &models.Product{ID: "p-2", Name: "Plain"}).Payload()
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"sku"`)
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.PublishProductEvent(context.Background(), events.ProductEvent{}))
}
