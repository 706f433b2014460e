package service

import (
	"context"
	"net/http"

	"github.com/sparkfn/webhook-listener/internal/domain"
)

// CaptureServicer defines the interface for capture and query operations
type CaptureServicer interface {
	Capture(ctx context.Context, ns string, r *http.Request, body []byte) (*domain.EventRecord, error)
	ListNamespaces() []string
	ListEvents(ns string) ([]*domain.EventRecord, error)
	ClearEvents(ns string) error
}
