// Package events publishes document lifecycle notifications so external
// consumers (search indexers, cache invalidators) can react to content
// changes.
package events

import (
	"context"
	"time"
)

// Event types published by the store.
const (
	TypeDocumentRefreshed = "document.refreshed"
	TypeScanCompleted     = "scan.completed"
)

// Event describes one content change.
type Event struct {
	Type      string    `json:"type"`
	ScanID    string    `json:"scan_id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	Documents int       `json:"documents,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events. Implementations must tolerate being handed a
// canceled context and must not block content processing on delivery.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher is the default Publisher when eventing is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
