// Package client implements the outbound HTTP/1.1 client of component
// C7 (spec §4.7): a single-shot connect → format → write → read →
// parse → close cycle, composed with a retry.Policy and redirect
// following.
package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/badu/meander/document"
	"github.com/badu/meander/formatter"
	"github.com/badu/meander/hdr"
	"github.com/badu/meander/parser"
	"github.com/badu/meander/retry"
	"github.com/badu/meander/wire"
)

// maxRedirects bounds the "one redirect per hop" loop so a
// misconfigured server can't wedge a caller forever. Grounded on
// badu-http/cli/public.go's Get/Head doc comments, which cap the
// teacher's own redirect-following client at 10.
const maxRedirects = 10

// Request describes one outbound call (spec §6's Client interface).
type Request struct {
	URL           string
	Method        string
	Content       any
	Query         map[string]any
	Headers       hdr.Header
	ContentType   string
	Charset       string
	Compress      bool
	Bearer        string
	Timeout       time.Duration
	ActiveTimeout time.Duration
	MaxReadSize   int
	Retry         *retry.Policy
	TLSConfig     *tls.Config
}

// Response is the parsed Document plus the exact bytes that were sent,
// so callers can introspect the outbound request (spec §6: "returns the
// parsed response Document with its outbound request payload attached
// for introspection").
type Response struct {
	*document.Document
	OutboundPayload []byte
}

// Call performs req, following redirects and honoring req.Retry, and
// returns the final response.
func Call(req Request) (*Response, error) {
	target := req.URL
	method := req.Method
	if method == "" {
		method = "GET"
	}

	redirects := 0
	for {
		resp, err := callOnce(target, method, req)
		if err != nil {
			return nil, err
		}

		if loc := resp.Header.Get("location"); loc != "" && isRedirectStatus(resp.StatusCode) {
			if redirects >= maxRedirects {
				return nil, fmt.Errorf("client: too many redirects")
			}
			redirects++
			next, err := resolveRedirect(target, loc)
			if err != nil {
				return nil, err
			}
			target = next
			continue
		}

		if req.Retry != nil {
			if delayMs, ok := req.Retry.Evaluate(resp.StatusCode); ok {
				time.Sleep(time.Duration(delayMs) * time.Millisecond)
				continue
			}
		}
		return resp, nil
	}
}

func isRedirectStatus(code int) bool {
	return code == 301 || code == 302
}

func resolveRedirect(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	next, err := base.Parse(location)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

// callOnce implements spec §4.7's single-shot cycle: parse the URL,
// open a connection, format+write the request with close=true, read
// and parse exactly one response, close.
func callOnce(target, method string, req Request) (*Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("client: invalid url: %w", err)
	}

	isTLS := u.Scheme == "https"
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if isTLS {
			port = "443"
		} else {
			port = "80"
		}
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path = path + "?" + u.RawQuery
	}

	payload, err := formatter.Request(formatter.RequestInput{
		Method:      method,
		Path:        path,
		Query:       req.Query,
		Host:        host,
		Bearer:      req.Bearer,
		Headers:     req.Headers,
		Content:     req.Content,
		ContentType: req.ContentType,
		Charset:     req.Charset,
		Close:       true,
		Compress:    req.Compress,
	})
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(host, port)
	var conn net.Conn
	dialTimeout := req.Timeout
	if dialTimeout == 0 {
		dialTimeout = 30 * time.Second
	}
	if isTLS {
		dialer := &net.Dialer{Timeout: dialTimeout}
		tlsCfg := req.TLSConfig
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = net.DialTimeout("tcp", addr, dialTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("client: write: %w", err)
	}

	limits := wire.DefaultLimits()
	limits.IdleTimeout = dialTimeout
	if req.ActiveTimeout > 0 {
		limits.ActiveTimeout = req.ActiveTimeout
	}
	if req.MaxReadSize > 0 {
		limits.MaxReadSize = req.MaxReadSize
	}
	r := wire.NewReader(conn, limits)

	doc, err := parser.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("client: parse response: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("client: connection closed before a response arrived")
	}
	return &Response{Document: doc, OutboundPayload: payload}, nil
}
