package server

import (
	"net"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/badu/meander/binder"
	"github.com/badu/meander/document"
	"github.com/badu/meander/formatter"
	"github.com/badu/meander/herr"
	"github.com/badu/meander/parser"
	"github.com/badu/meander/router"
	"github.com/badu/meander/wire"
)

// serveConn runs the per-connection state machine of spec §4.6:
//
//	ACCEPT -> OPEN -> (IDLE -> READING -> DISPATCH -> RESPOND)+ -> CLOSE
//
// Grounded on badu-http/conn.go's serve loop (read -> handle -> respond
// -> keep-alive decision) and badu-http/server_handler.go's dispatch
// shape, generalized from net/http's ResponseWriter/Handler interfaces
// to this framework's Document/binder.Handler pair.
func (s *Server) serveConn(netConn net.Conn) {
	cid := atomic.AddUint64(&s.connCounter, 1)
	s.logger.Open(s.name, s.addr, cid)
	openedAt := time.Now()
	// quiet is set once a request on this connection matches a silent
	// route; from then on the connection's log lines are suppressed.
	quiet := false

	defer func() {
		netConn.Close()
		if !quiet {
			s.logger.Close(cid, time.Since(openedAt).Seconds())
		}
	}()

	r := wire.NewReader(netConn, s.limits)
	for {
		r.ResetMessageBoundary()
		reqStart := time.Now()

		doc, err := parser.ParseRequest(r)
		if err != nil {
			if err == wire.ErrTimeout {
				if r.HasSeenAnyBytes() && !quiet {
					s.logger.Timeout(cid)
				}
				return
			}
			netConn.Write(s.renderParseError(err))
			return
		}
		if doc == nil {
			// Clean end-of-stream before any byte of a new message: CLOSE
			// quietly (spec §4.2/§4.6).
			return
		}
		doc.ConnectionID = cid
		doc.ID = atomic.AddUint64(&s.reqCounter, 1)

		out, status, silent := s.dispatch(doc)
		if silent {
			quiet = true
		}
		if _, err := netConn.Write(out); err != nil {
			return
		}
		if !quiet {
			s.logger.Request(cid, doc.ID, doc.Method, doc.Resource, status, time.Since(reqStart).Seconds())
		}
		if !doc.IsKeepAlive {
			return
		}
	}
}

// dispatch implements the DISPATCH/RESPOND states: route lookup, before
// processors, parameter binding, handler invocation, panic recovery,
// and response serialization (spec §4.6).
func (s *Server) dispatch(doc *document.Document) (wireBytes []byte, status int, silent bool) {
	entry, args, ok := s.table.Match(doc.Resource, doc.Method)
	if !ok {
		return s.renderResult(doc, 404, "Not Found", nil), 404, false
	}
	silent = entry.Silent

	for _, before := range entry.Before {
		if err := before(doc); err != nil {
			code, out := s.renderHandlerErr(doc, err)
			return out, code, silent
		}
	}

	result, err := s.invoke(doc, entry, args)
	if err != nil {
		code, out := s.renderHandlerErr(doc, err)
		return out, code, silent
	}
	return s.renderResult(doc, 200, "", result), 200, silent
}

func (s *Server) invoke(doc *document.Document, entry *router.Entry, args []string) (result any, err error) {
	positional, kwargs, err := binder.Bind(entry.Handler, args, doc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 64<<10)
			buf = buf[:runtime.Stack(buf, false)]
			s.logger.Panic(doc.ConnectionID, doc.ID, rec, buf)
			err = herr.New(500, "Internal Server Error", "")
		}
	}()
	return entry.Handler.Invoke(positional, kwargs)
}

// renderHandlerErr maps a handler/binder/before-processor error to its
// HTTP status, per spec §4.6/§7: HTTPError-shaped errors render
// verbatim; anything else becomes a 500 (already logged by invoke's
// recover for panics; a returned plain error is logged here too).
func (s *Server) renderHandlerErr(doc *document.Document, err error) (int, []byte) {
	if he, ok := err.(herr.HTTPError); ok {
		return he.StatusCode(), s.renderResult(doc, he.StatusCode(), he.Reason(), he.Explanation())
	}
	s.logger.Panic(doc.ConnectionID, doc.ID, err, nil)
	return 500, s.renderResult(doc, 500, "Internal Server Error", "")
}

// renderResult normalizes a handler's return value into a wire-ready
// response: nil becomes an empty body; anything else is serialized via
// the formatter with an inferred content-type (spec §4.6 RESPOND state).
// The response's Connection header mirrors doc.IsKeepAlive so the peer
// learns about a close decision made from its own request headers.
func (s *Server) renderResult(doc *document.Document, code int, message string, result any) []byte {
	content := result
	if content == nil {
		content = ""
	}
	out, err := formatter.Response(formatter.ResponseInput{
		Code:    code,
		Message: message,
		Content: content,
		Close:   !doc.IsKeepAlive,
	})
	if err != nil {
		// The formatter only fails on caller-usage errors (unencodable
		// content); surface a minimal 500 rather than propagate.
		out, _ = formatter.Response(formatter.ResponseInput{Code: 500, Content: "Internal Server Error", Close: true})
	}
	return out
}

// renderParseError renders a parser-level failure (malformed request
// line, oversized header, body overrun) straight onto the wire without
// going through dispatch, since there is no Document to log a request
// line against yet.
func (s *Server) renderParseError(err error) []byte {
	if he, ok := err.(herr.HTTPError); ok {
		out, _ := formatter.Response(formatter.ResponseInput{
			Code: he.StatusCode(), Message: he.Reason(), Content: he.Explanation(), Close: true,
		})
		return out
	}
	out, _ := formatter.Response(formatter.ResponseInput{Code: 400, Content: "Bad Request", Close: true})
	return out
}
