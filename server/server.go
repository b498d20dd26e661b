package server

import (
	"crypto/tls"
	"net"
	"sync"

	"github.com/badu/meander/router"
	"github.com/badu/meander/wire"
)

// Server owns a route table and configuration and runs one serveConn
// goroutine per accepted connection (spec §5's "single long-lived task
// per connection"; Go's goroutine-per-connection model stands in for
// the source's cooperative single-thread scheduler).
type Server struct {
	name   string
	addr   string
	table  *router.Table
	limits wire.Limits
	tls    *tls.Config
	logger *Logger

	connCounter uint64
	reqCounter  uint64

	mu       sync.Mutex
	listener net.Listener
}

// New builds a Server from a route table and a set of Options folded
// onto DefaultConfig (spec §4.C: "server.New(table, opts...)").
func New(table *router.Table, opts ...Option) *Server {
	cfg := Apply(DefaultConfig("meander", ":8080"), opts...)
	return &Server{
		name:   cfg.Name,
		addr:   cfg.Addr,
		table:  table,
		limits: cfg.Limits,
		tls:    cfg.TLS,
		logger: cfg.Logger,
	}
}

// ListenAndServe opens a TCP listener on s.addr (wrapped in TLS if
// configured) and serves connections until Accept fails.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln, dispatching one goroutine per
// connection to serveConn. Grounded on bolt/core/app.go's
// Listen/shutdown handling: the listener is retained so Shutdown can
// unblock Accept cleanly instead of leaking the goroutine.
func (s *Server) Serve(ln net.Listener) error {
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	defer ln.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(conn)
	}
}

// Shutdown stops accepting new connections by closing the listener.
// In-flight connections run to their next natural close point
// (keep-alive exhaustion, idle timeout, or client disconnect); this
// module has no connection registry to forcibly drain, matching
// spec.md's scope (no graceful-drain semantics are named there).
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
