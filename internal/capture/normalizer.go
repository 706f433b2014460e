package capture

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sparkfn/webhook-listener/internal/domain"
)

// Normalizer turns one raw inbound request into an immutable EventRecord.
// Body decoding is best-effort: a body that fails to parse as JSON or as a
// form still produces a record, with the structured field simply absent.
// Malformed input is itself useful debugging information, so no decode
// failure ever aborts the capture.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize builds an EventRecord for a capture request whose body has been
// fully buffered. The namespace is assumed to be validated already. The
// timestamp set here is provisional: the store reassigns it at append time,
// under the namespace lock, so stored order and timestamps agree.
func (n *Normalizer) Normalize(ns string, r *http.Request, body []byte) *domain.EventRecord {
	start := time.Now()

	target := r.URL.RequestURI()
	pairs := parsePairs(r.URL.RawQuery)

	// Invalid UTF-8 degrades to replacement characters up front so the
	// in-memory record and its JSONL line stay byte-identical.
	bodyRaw := strings.ToValidUTF8(string(body), "�")

	var bodyJSON json.RawMessage
	if len(body) > 0 && json.Valid(body) {
		bodyJSON = json.RawMessage(strings.Clone(bodyRaw))
	}

	contentType := r.Header.Get("Content-Type")
	var formValues []domain.NameValue
	var formFiles []domain.FormFile
	switch {
	case strings.Contains(strings.ToLower(contentType), "application/x-www-form-urlencoded"):
		formValues = parsePairs(bodyRaw)
	case strings.Contains(strings.ToLower(contentType), "multipart/form-data"):
		formValues, formFiles = parseMultipart(body, contentType)
	}

	host := r.Host
	fullURL := target
	if host != "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		fullURL = scheme + "://" + host + target
	}

	contentLen := r.Header.Get("Content-Length")
	if contentLen == "" && r.ContentLength > 0 {
		contentLen = strconv.FormatInt(r.ContentLength, 10)
	}

	return &domain.EventRecord{
		ID:           uuid.NewString(),
		Namespace:    ns,
		Timestamp:    time.Now().UTC().Format(domain.TimestampLayout),
		Method:       r.Method,
		Path:         target,
		FullURL:      fullURL,
		Query:        collapsePairs(pairs),
		QueryStrings: pairs,
		Headers:      headerMap(r),
		BodyRaw:      bodyRaw,
		BodyJSON:     bodyJSON,
		FormValues:   formValues,
		FormFiles:    formFiles,
		RemoteAddr:   clientIP(r),
		Host:         host,
		UserAgent:    r.UserAgent(),
		ContentLen:   contentLen,
		SizeBytes:    len(body),
		DurationMs:   float64(time.Since(start).Microseconds()) / 1000.0,
	}
}

// headerMap lowers header names and collapses single-valued headers to plain
// strings, keeping multi-valued headers as lists. Host is folded back in
// since net/http promotes it off the header map.
func headerMap(r *http.Request) map[string]any {
	m := make(map[string]any, len(r.Header)+1)
	for name, values := range r.Header {
		key := strings.ToLower(name)
		if len(values) == 1 {
			m[key] = values[0]
		} else {
			vs := make([]string, len(values))
			copy(vs, values)
			m[key] = vs
		}
	}
	if r.Host != "" {
		m["host"] = r.Host
	}
	return m
}

// collapsePairs builds the map view of a query string: single-valued keys
// map to a string, duplicate keys to a list of values in arrival order.
func collapsePairs(pairs []domain.NameValue) map[string]any {
	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		switch prev := m[p.Name].(type) {
		case nil:
			m[p.Name] = p.Value
		case string:
			m[p.Name] = []string{prev, p.Value}
		case []string:
			m[p.Name] = append(prev, p.Value)
		}
	}
	return m
}
