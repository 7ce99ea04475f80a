package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ProductCreated  EventType = "ProductCreated"
	ProductDeleted  EventType = "ProductDeleted"
	CategoryCreated EventType = "CategoryCreated"
)

// CatalogEvent는 카탈로그 변경 시 발행되는 이벤트
type CatalogEvent struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	ProductID string    `json:"product_id,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func NewCatalogEvent(t EventType, productID, category string) CatalogEvent {
	return CatalogEvent{
		EventID:   uuid.NewString(),
		Type:      t,
		ProductID: productID,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event CatalogEvent) error
}

// NopPublisher drops events; used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, CatalogEvent) error { return nil }
