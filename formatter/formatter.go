// Package formatter implements the HTTP/1.1 message formatter shared
// by server responses and client requests (spec §4.3, component C3).
package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/badu/meander/hdr"
	"github.com/badu/meander/herr"
)

var (
	errGetContentAndQuery = errors.New("content and query may not both be set on a GET request")
	errGetNonMappingBody  = errors.New("GET requests may not carry a non-mapping body")
	errFormContentNotMap  = errors.New("form content must be a mapping")
)

// ResponseInput describes a server response to serialize.
type ResponseInput struct {
	Code        int
	Message     string
	Headers     hdr.Header
	Content     any
	ContentType string
	Charset     string
	Close       bool
	Compress    bool
}

// RequestInput describes a client request to serialize.
type RequestInput struct {
	Method      string
	Path        string
	Query       map[string]any
	Host        string
	Bearer      string
	Headers     hdr.Header
	Content     any
	ContentType string
	Charset     string
	Close       bool
	Compress    bool
}

// Response serializes in into a wire-ready byte slice, following the
// ordered rules of spec §4.3. Grounded on badu-http/response.go's
// Write shape (status line, then headers, then body).
func Response(in ResponseInput) ([]byte, error) {
	message := in.Message
	if message == "" {
		if in.Code == 200 {
			message = "OK"
		} else {
			message = herr.StatusText(in.Code)
		}
	}
	statusLine := fmt.Sprintf("HTTP/1.1 %d %s", in.Code, message)

	headers := cloneOrNew(in.Headers)
	body, contentType, err := encodeContent(in.Content, in.ContentType)
	if err != nil {
		return nil, err
	}

	return assemble(statusLine, headers, body, contentType, in.Charset, in.Close, in.Compress)
}

// Request serializes in into a wire-ready byte slice, following spec
// §4.3's request-specific rules (2–4).
func Request(in RequestInput) ([]byte, error) {
	method := strings.ToUpper(in.Method)
	content := in.Content
	query := in.Query

	if method == "GET" {
		if content != nil && query != nil {
			return nil, errGetContentAndQuery
		}
		if m, ok := content.(map[string]any); ok {
			query = m
			content = nil
		} else if content != nil {
			return nil, errGetNonMappingBody
		}
	}

	path := in.Path
	if qs := encodeQuery(query); qs != "" {
		path = path + "?" + qs
	}
	statusLine := fmt.Sprintf("%s %s HTTP/1.1", method, path)

	headers := cloneOrNew(in.Headers)
	if in.Bearer != "" {
		headers.Set("Authorization", "Bearer "+in.Bearer)
	}
	if in.Host != "" {
		headers.Set("Host", in.Host)
	}

	body, contentType, err := encodeContent(content, in.ContentType)
	if err != nil {
		return nil, err
	}

	return assemble(statusLine, headers, body, contentType, in.Charset, in.Close, in.Compress)
}

func assemble(statusLine string, headers hdr.Header, body []byte, contentType, charset string, close, compress bool) ([]byte, error) {
	if charset == "" {
		charset = "utf-8"
	}
	if contentType != "" {
		headers.Set("Content-Type", contentType+"; charset="+charset)
	}

	if compress && len(body) > 0 {
		compressed, err := gzipBytes(body)
		if err != nil {
			return nil, err
		}
		body = compressed
		headers.Set("Content-Encoding", "gzip")
	}

	if !headers.Has("Date") {
		headers.Set("Date", time.Now().UTC().Format(time.RFC1123))
	}
	headers.Set("Content-Length", strconv.Itoa(len(body)))
	if close && !headers.Has("Connection") {
		headers.Set("Connection", "close")
	}

	var buf bytes.Buffer
	buf.WriteString(statusLine)
	buf.WriteString("\r\n")
	for _, k := range headers.SortedKeys() {
		buf.WriteString(titleCaseHeaderName(k))
		buf.WriteString(": ")
		buf.WriteString(headers[k])
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// encodeContent implements spec §4.3 rules 5–6: infer a content-type
// when unset, then encode the value per family.
func encodeContent(content any, contentType string) ([]byte, string, error) {
	if content == nil {
		return nil, contentType, nil
	}

	inferred := contentType
	switch content.(type) {
	case map[string]any, []any:
		if inferred == "" {
			inferred = "application/json"
		}
	default:
		if inferred == "" {
			inferred = "text/plain"
		}
	}

	switch inferred {
	case "application/json":
		b, err := gojson.Marshal(content)
		if err != nil {
			return nil, "", err
		}
		return b, inferred, nil
	case "application/x-www-form-urlencoded":
		m, ok := content.(map[string]any)
		if !ok {
			return nil, "", errFormContentNotMap
		}
		return []byte(encodeQuery(m)), inferred, nil
	default:
		return []byte(stringify(content)), inferred, nil
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// encodeQuery URL-encodes a mapping into a query string. List/slice
// values become repeated keys, in order (spec §4.3 rule 6).
func encodeQuery(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		default:
			values.Add(k, fmt.Sprint(v))
		}
	}
	return values.Encode()
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cloneOrNew(h hdr.Header) hdr.Header {
	if h == nil {
		return hdr.New()
	}
	return h.Clone()
}

// titleCaseHeaderName renders a lower-cased stored key ("content-type")
// back into conventional wire casing ("Content-Type"). Purely
// cosmetic: HTTP/1.1 header names are case-insensitive on the wire.
func titleCaseHeaderName(key string) string {
	parts := strings.Split(key, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}

