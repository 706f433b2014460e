package capture

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/sparkfn/webhook-listener/internal/domain"
)

// parsePairs walks an urlencoded string ("a=1&b=2&a=3") in order, preserving
// duplicate keys. net/url.ParseQuery collapses the walk into a map, which
// loses exactly the ordering the record format has to keep, so the split is
// done here. A pair with a malformed escape sequence is skipped; everything
// else is kept.
func parsePairs(s string) []domain.NameValue {
	pairs := []domain.NameValue{}
	for _, chunk := range strings.Split(s, "&") {
		if chunk == "" {
			continue
		}
		name, value, _ := strings.Cut(chunk, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		pairs = append(pairs, domain.NameValue{Name: n, Value: v})
	}
	return pairs
}

// parseMultipart decodes a multipart/form-data body using the boundary
// declared in the content type. Parts with a filename become file metadata
// entries; the rest become value pairs. Decoding is not transactional: any
// failure, including a missing boundary, leaves both results absent rather
// than failing the capture.
func parseMultipart(body []byte, contentType string) ([]domain.NameValue, []domain.FormFile) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, nil
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, nil
	}

	values := []domain.NameValue{}
	files := []domain.FormFile{}
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return values, files
		}
		if err != nil {
			return nil, nil
		}
		if part.FileName() != "" {
			files = append(files, domain.FormFile{
				Name:     part.FormName(),
				Filename: part.FileName(),
				MimeType: part.Header.Get("Content-Type"),
			})
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, nil
		}
		values = append(values, domain.NameValue{Name: part.FormName(), Value: string(data)})
	}
}
