package parser

import (
	"bytes"
	"compress/gzip"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/badu/meander/wire"
)

func reader(t *testing.T, data string) *wire.Reader {
	t.Helper()
	server, client := net.Pipe()
	go func() {
		io.Copy(client, strings.NewReader(data))
		client.Close()
	}()
	return wire.NewReader(server, wire.DefaultLimits())
}

func TestParseRequestLineAndQuery(t *testing.T) {
	r := reader(t, "GET /add?a=2&b=3 HTTP/1.1\r\nHost: example.com\r\n\r\n")
	doc, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if doc.Method != "GET" || doc.Resource != "/add" {
		t.Fatalf("method/resource = %q %q", doc.Method, doc.Resource)
	}
	if doc.Query["a"] != "2" || doc.Query["b"] != "3" {
		t.Fatalf("query = %#v", doc.Query)
	}
	if c, ok := doc.Content.(map[string]any); !ok || c["a"] != "2" {
		t.Fatalf("content = %#v", doc.Content)
	}
}

func TestParseRequestRejectsBadProtocol(t *testing.T) {
	r := reader(t, "GET / HTTP/1.0\r\n\r\n")
	_, err := ParseRequest(r)
	if err == nil {
		t.Fatalf("expected error for bad protocol")
	}
}

func TestParseRequestJSONBody(t *testing.T) {
	body := `{"x":1}`
	raw := "POST /echo HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: " +
		itoa(len(body)) + "\r\n\r\n" + body
	r := reader(t, raw)
	doc, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	m, ok := doc.Content.(map[string]any)
	if !ok {
		t.Fatalf("content type = %T", doc.Content)
	}
	if m["x"].(float64) != 1 {
		t.Fatalf("content = %#v", m)
	}
}

func TestParseRequestInvalidJSON(t *testing.T) {
	body := `{bad`
	raw := "POST /echo HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: " +
		itoa(len(body)) + "\r\n\r\n" + body
	r := reader(t, raw)
	_, err := ParseRequest(r)
	if err == nil {
		t.Fatalf("expected invalid json error")
	}
}

func TestParseRequestMissingContentTypePassesRawBody(t *testing.T) {
	raw := "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"
	r := reader(t, raw)
	doc, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if string(doc.Content.([]byte)) != "hello" {
		t.Fatalf("content = %#v", doc.Content)
	}
}

func TestParseRequestEmptyContentTypeRejected(t *testing.T) {
	raw := "POST /echo HTTP/1.1\r\nContent-Type: \r\nContent-Length: 5\r\n\r\nhello"
	r := reader(t, raw)
	_, err := ParseRequest(r)
	if err == nil {
		t.Fatalf("expected 400 for empty content-type header")
	}
}

func TestParseRequestChunked(t *testing.T) {
	raw := "POST /echo HTTP/1.1\r\nTransfer-Encoding: chunked\r\nContent-Type: text/plain\r\n\r\n" +
		"5\r\nhello\r\n0\r\n\r\n"
	r := reader(t, raw)
	doc, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if doc.Content != "hello" {
		t.Fatalf("content = %#v", doc.Content)
	}
}

func TestParseRequestGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("hello"))
	zw.Close()
	raw := "POST /echo HTTP/1.1\r\nContent-Encoding: gzip\r\nContent-Type: text/plain\r\nContent-Length: " +
		itoa(buf.Len()) + "\r\n\r\n" + buf.String()
	r := reader(t, raw)
	doc, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if doc.Content != "hello" {
		t.Fatalf("content = %#v", doc.Content)
	}
}

func TestParseRequestLineTooLong(t *testing.T) {
	r := reader(t, strings.Repeat("x", 20000)+"\r\n")
	_, err := ParseRequest(r)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseRequestEOFReturnsNil(t *testing.T) {
	server, client := net.Pipe()
	client.Close()
	r := wire.NewReader(server, wire.DefaultLimits())
	doc, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil Document on clean EOS")
	}
}

func TestParseResponseStatusLine(t *testing.T) {
	r := reader(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 4\r\n\r\npong")
	doc, err := ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if doc.StatusCode != 200 || doc.StatusMessage != "OK" {
		t.Fatalf("status = %d %q", doc.StatusCode, doc.StatusMessage)
	}
	if doc.Content != "pong" {
		t.Fatalf("content = %#v", doc.Content)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
