package domain

import (
	"errors"

	"github.com/goccy/go-json"
)

// ErrNamespaceNotFound is returned when a caller references a namespace that
// is not part of the configured registry.
var ErrNamespaceNotFound = errors.New("namespace not found")

// TimestampLayout is the millisecond ISO-8601 UTC form all event timestamps
// use, in memory and on the wire.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// NameValue is one (name, value) pair from an ordered query string or
// urlencoded form walk. The ordered view exists alongside the map view
// because the map loses duplicate-key order.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FormFile describes one file part of a multipart body. Only metadata is
// kept; file contents are never persisted.
type FormFile struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

// EventRecord is the immutable normalized representation of one captured
// HTTP request. Field names follow the wire format served to observers and
// written to the per-namespace JSONL log, so the struct round-trips through
// the log unchanged.
//
// Query and Headers values are a string for single-valued keys and a list of
// strings for multi-valued keys. BodyJSON is set only when BodyRaw parses as
// valid JSON; FormValues/FormFiles only when the content type declared a
// form encoding and decoding succeeded.
type EventRecord struct {
	ID           string          `json:"id"`
	Namespace    string          `json:"namespace"`
	Timestamp    string          `json:"timestamp"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	FullURL      string          `json:"fullUrl"`
	Query        map[string]any  `json:"query"`
	QueryStrings []NameValue     `json:"queryStrings"`
	Headers      map[string]any  `json:"headers"`
	BodyRaw      string          `json:"bodyRaw"`
	BodyJSON     json.RawMessage `json:"bodyJson,omitempty"`
	FormValues   []NameValue     `json:"formValues,omitempty"`
	FormFiles    []FormFile      `json:"formFiles,omitempty"`
	RemoteAddr   string          `json:"remoteAddress"`
	Host         string          `json:"host"`
	UserAgent    string          `json:"userAgent"`
	ContentLen   string          `json:"contentLength"`
	SizeBytes    int             `json:"sizeBytes"`
	DurationMs   float64         `json:"durationMs"`
}
