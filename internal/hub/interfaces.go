package hub

import (
	"github.com/sparkfn/webhook-listener/internal/domain"
)

// Broadcaster defines the interface for pushing notifications to every
// currently-connected observer. Sends are best-effort: a subscriber that
// cannot keep up is dropped, never blocks the broadcaster.
type Broadcaster interface {
	BroadcastEvent(event *domain.EventRecord)
	BroadcastClear(ns string)
}
