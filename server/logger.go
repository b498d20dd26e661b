package server

import "go.uber.org/zap"

// Logger wraps a sugared zap logger to emit the connection loop's four
// fixed-shape lines (spec §4.6): open, request, close, timeout. Grounded
// on the teacher/pack's zap-via-zapr wiring style (SPEC_FULL.md §4.A) —
// one purpose-built method per log line instead of a generic
// "log.Printf(format, ...)" call, matching bolt/middleware/logger.go's
// one-structured-line-per-request shape.
type Logger struct {
	l *zap.SugaredLogger
}

// NewLogger wraps an already-configured sugared zap logger.
func NewLogger(l *zap.SugaredLogger) *Logger {
	return &Logger{l: l}
}

func (lg *Logger) Open(server, socket string, cid uint64) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Infow("open", "server", server, "socket", socket, "cid", cid)
}

func (lg *Logger) Request(cid, rid uint64, method, resource string, status int, elapsed float64) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Infow("request", "cid", cid, "rid", rid, "method", method, "resource", resource, "status", status, "t", elapsed)
}

func (lg *Logger) Close(cid uint64, elapsed float64) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Infow("close", "cid", cid, "t", elapsed)
}

func (lg *Logger) Timeout(cid uint64) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Infow("timeout", "cid", cid)
}

// Panic logs an unexpected handler error with its stack trace, in the
// style bolt/middleware/recovery.go uses for its recovered-panic log
// line (SPEC_FULL.md §4.B).
func (lg *Logger) Panic(cid, rid uint64, err any, stack []byte) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Errorw("panic", "cid", cid, "rid", rid, "error", err, "stack", string(stack))
}
