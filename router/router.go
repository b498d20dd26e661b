// Package router implements the route table of component C4: an
// ordered (resource pattern, method) -> handler lookup with path
// captures, per spec §4.4.
package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/badu/meander/binder"
	"github.com/badu/meander/document"
)

// BeforeFunc is a pre-processor invoked with the request before its
// handler runs. It may mutate doc.Content, or return an error (an
// herr.HTTPError short-circuits dispatch with that status; any other
// error becomes a 500, per spec §7's "caught at the connection-loop
// boundary" policy). Go's goroutine-per-connection model (server
// package, component C6) already gives every before-processor and
// handler call the cooperative suspension the source's coroutine
// detection existed for, so unlike spec.md's Python original there is
// no separate "await if awaitable" branch here.
type BeforeFunc func(doc *document.Document) error

// Entry is one compiled route: pattern + method + handler, with its
// optional before-processors and silent flag (spec §3's Route tuple).
type Entry struct {
	Pattern *regexp.Regexp
	Method  string
	Handler binder.Handler
	Before  []BeforeFunc
	Silent  bool
}

// Option configures an Entry at registration time.
type Option func(*Entry)

// WithBefore appends pre-processors to an entry.
func WithBefore(fns ...BeforeFunc) Option {
	return func(e *Entry) { e.Before = append(e.Before, fns...) }
}

// WithSilent marks the route silent: once a request on a connection
// matches it, that connection's request, timeout and close log lines
// are suppressed (spec §4.6). The open line is written when the
// connection is accepted, before any route is known, and is not
// suppressed.
func WithSilent() Option {
	return func(e *Entry) { e.Silent = true }
}

// Compile anchors pattern to match the full path, per spec §4.4, and
// compiles it. Patterns already anchored are left alone.
func Compile(pattern string) *regexp.Regexp {
	p := pattern
	if !strings.HasPrefix(p, "^") {
		p = "^" + p
	}
	if !strings.HasSuffix(p, "$") {
		p = p + "$"
	}
	return regexp.MustCompile(p)
}

// Table is an ordered, immutable-after-construction route list.
// Lookup walks entries in insertion order and returns the first whose
// pattern fully matches the path and whose method matches — spec §4.4
// and §8's router-ordering property ("first-match wins").
type Table struct {
	entries []*Entry
}

// New builds a Table from entries, in the given order.
func New(entries ...*Entry) *Table {
	return &Table{entries: entries}
}

// Add appends one entry built from pattern/method/handler, with
// optional Option configuration, and returns the Table for chaining.
// It panics if pattern declares more capture groups than h has
// positional slots to receive them, catching a misconfigured route at
// startup instead of a 400 on every request.
func (t *Table) Add(pattern, method string, h binder.Handler, opts ...Option) *Table {
	compiled := Compile(pattern)
	if n := compiled.NumSubexp(); n > bindableSlotCount(h) {
		panic(fmt.Sprintf("router: pattern %q declares %d capture group(s) but handler has no matching positional slots", pattern, n))
	}
	e := &Entry{Pattern: compiled, Method: strings.ToUpper(method), Handler: h}
	for _, opt := range opts {
		opt(e)
	}
	t.entries = append(t.entries, e)
	return t
}

// bindableSlotCount counts h's descriptors that accept a route capture
// (excluding the reserved connection-id and request slots, and any
// variadic-kwargs sink).
func bindableSlotCount(h binder.Handler) int {
	n := 0
	for _, p := range h.Descriptors() {
		if p.IsConnectionID || p.IsRequest || p.IsVariadicKwargs {
			continue
		}
		n++
	}
	return n
}

func (t *Table) Get(pattern string, h binder.Handler, opts ...Option) *Table {
	return t.Add(pattern, "GET", h, opts...)
}

func (t *Table) Post(pattern string, h binder.Handler, opts ...Option) *Table {
	return t.Add(pattern, "POST", h, opts...)
}

func (t *Table) Put(pattern string, h binder.Handler, opts ...Option) *Table {
	return t.Add(pattern, "PUT", h, opts...)
}

func (t *Table) Patch(pattern string, h binder.Handler, opts ...Option) *Table {
	return t.Add(pattern, "PATCH", h, opts...)
}

func (t *Table) Delete(pattern string, h binder.Handler, opts ...Option) *Table {
	return t.Add(pattern, "DELETE", h, opts...)
}

// Match returns the first entry whose pattern fully matches path and
// whose method equals method, along with the pattern's capture groups
// in order (these become Document.Args). The second return is false on
// a miss (spec §4.4: "Miss -> null").
func (t *Table) Match(path, method string) (*Entry, []string, bool) {
	for _, e := range t.entries {
		if e.Method != method {
			continue
		}
		m := e.Pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		return e, m[1:], true
	}
	return nil, nil, false
}
