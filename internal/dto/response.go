package dto

import "github.com/sparkfn/webhook-listener/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CaptureResponse acknowledges a durably recorded capture
type CaptureResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// ClearResponse acknowledges a namespace clear
type ClearResponse struct {
	OK bool `json:"ok"`
}

// NamespacesResponse lists the configured namespaces
type NamespacesResponse struct {
	Namespaces []string `json:"namespaces"`
}

// EventsResponse lists a namespace's recorded events in arrival order
type EventsResponse struct {
	Events []*domain.EventRecord `json:"events"`
}
