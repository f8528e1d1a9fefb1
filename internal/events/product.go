// Package events defines the catalog change notifications published after a
// product mutation commits.
package events

import (
	"context"
	"encoding/json"
	"time"

	"katalog/internal/models"
)

// Type names a product change. It doubles as the AMQP routing key.
type Type string

const (
	ProductCreated         Type = "product.created"
	ProductUpdated         Type = "product.updated"
	ProductDeleted         Type = "product.deleted"
	ProductQuantityUpdated Type = "product.quantity_updated"
)

// ProductEvent describes a committed change to a product.
type ProductEvent struct {
	Type       Type      `json:"type"`
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku,omitempty"`
	Category   string    `json:"category,omitempty"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProductEvent builds an event of type t from the product state.
func NewProductEvent(t Type, p *models.Product) ProductEvent {
	return ProductEvent{
		Type:       t,
		ProductID:  p.ID,
		Name:       p.Name,
		SKU:        p.SKUValue(),
		Category:   p.Category,
		Quantity:   p.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// RoutingKey returns the key the event is published under.
func (e ProductEvent) RoutingKey() string {
	return string(e.Type)
}

// Payload returns the JSON encoding of the event.
func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a payload produced by Payload.
func Decode(body []byte) (ProductEvent, error) {
	var e ProductEvent
	err := json.Unmarshal(body, &e)
	return e, err
}

// Publisher delivers product events to interested consumers.
type Publisher interface {
	PublishProductEvent(ctx context.Context, event ProductEvent) error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

// PublishProductEvent implements Publisher.
func (NopPublisher) PublishProductEvent(context.Context, ProductEvent) error { return nil }
