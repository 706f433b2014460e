package service

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sparkfn/webhook-listener/internal/capture"
	"github.com/sparkfn/webhook-listener/internal/domain"
	"github.com/sparkfn/webhook-listener/internal/hub"
	"github.com/sparkfn/webhook-listener/internal/namespace"
	"github.com/sparkfn/webhook-listener/internal/store"
)

// CaptureService orchestrates the capture pipeline: registry check,
// normalization, durable append, then broadcast. The append fully precedes
// the broadcast, so a crash in between loses only the live notification,
// never the record.
type CaptureService struct {
	registry    *namespace.Registry
	normalizer  *capture.Normalizer
	store       store.EventStore
	broadcaster hub.Broadcaster
	log         *zap.Logger
}

// NewCaptureService creates a new capture service
func NewCaptureService(
	registry *namespace.Registry,
	normalizer *capture.Normalizer,
	st store.EventStore,
	broadcaster hub.Broadcaster,
	log *zap.Logger,
) *CaptureService {
	return &CaptureService{
		registry:    registry,
		normalizer:  normalizer,
		store:       st,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Capture records one inbound request under ns. The returned record carries
// the ID acknowledged to the caller; the same record is what subscribers see.
func (s *CaptureService) Capture(ctx context.Context, ns string, r *http.Request, body []byte) (*domain.EventRecord, error) {
	if !s.registry.IsValid(ns) {
		return nil, domain.ErrNamespaceNotFound
	}

	event := s.normalizer.Normalize(ns, r, body)

	if err := s.store.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	s.broadcaster.BroadcastEvent(event)

	return event, nil
}

// ListNamespaces returns the configured namespaces in configuration order.
func (s *CaptureService) ListNamespaces() []string {
	return s.registry.List()
}

// ListEvents returns the namespace's recorded events in arrival order.
func (s *CaptureService) ListEvents(ns string) ([]*domain.EventRecord, error) {
	if !s.registry.IsValid(ns) {
		return nil, domain.ErrNamespaceNotFound
	}

	events, err := s.store.List(ns)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ClearEvents empties the namespace's cache and durable log, then notifies
// subscribers. Like capture, the clear is durable before it is announced.
func (s *CaptureService) ClearEvents(ns string) error {
	if !s.registry.IsValid(ns) {
		return domain.ErrNamespaceNotFound
	}

	if err := s.store.Clear(ns); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}

	s.log.Info("Namespace cleared", zap.String("namespace", ns))
	s.broadcaster.BroadcastClear(ns)

	return nil
}
