// Package document defines Document, the in-memory representation of
// one parsed HTTP/1.1 message (request or response), per spec §3.
package document

import (
	"strings"

	"github.com/badu/meander/hdr"
)

// ContentEncoding enumerates the transfer-content encodings this
// framework understands. Anything else fails parsing (spec §4.2).
type ContentEncoding int

const (
	EncodingNone ContentEncoding = iota
	EncodingGzip
)

func (e ContentEncoding) String() string {
	if e == EncodingGzip {
		return "gzip"
	}
	return ""
}

// Document is the shared shape for both a parsed request (server side)
// and a parsed response (client side). Fields that don't apply to a
// given side are simply left at their zero value — see spec §3 and
// SPEC_FULL.md §3 for why this framework keeps one struct instead of
// two tagged variants.
type Document struct {
	// Shared fields.
	Header          hdr.Header
	ContentLength   int64
	ContentType     string
	Charset         string
	ContentEncoding ContentEncoding
	Body            []byte
	IsKeepAlive     bool
	Content         any

	// Server variant (request).
	Method       string
	Resource     string
	QueryString  string
	Query        map[string]any
	Args         []string
	ID           uint64
	ConnectionID uint64

	// Client variant (response).
	StatusCode    int
	StatusMessage string
}

// New returns an empty Document with an initialized header map.
func New() *Document {
	return &Document{Header: hdr.New()}
}

// ComputeKeepAlive sets IsKeepAlive per spec §3: true iff the
// connection header is absent or equals "keep-alive" (case-insensitive).
func (d *Document) ComputeKeepAlive() {
	v := strings.ToLower(hdr.Trim(d.Header.Get("connection")))
	d.IsKeepAlive = v == "" || v == "keep-alive"
}

// IsRequest reports whether this Document was parsed as a request
// (server variant: Method is always set for those).
func (d *Document) IsRequest() bool {
	return d.Method != ""
}
