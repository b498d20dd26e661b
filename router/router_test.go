package router

import (
	"testing"

	"github.com/badu/meander/binder"
)

func TestMatchFirstMatchWins(t *testing.T) {
	first := binder.Params([]binder.ParamDescriptor{{Name: "name"}},
		func(args []any, kwargs map[string]any) (any, error) { return "first", nil })
	table := New().
		Get("/users/(\\w+)", first).
		Get("/users/admin", binder.Literal("second"))

	entry, args, ok := table.Match("/users/admin", "GET")
	if !ok {
		t.Fatalf("expected a match")
	}
	if len(args) != 1 || args[0] != "admin" {
		t.Fatalf("args = %#v", args)
	}
	out, err := entry.Handler.Invoke(nil, nil)
	if err != nil || out != "first" {
		t.Fatalf("expected the earlier-registered entry to win, got %#v %v", out, err)
	}
}

func TestMatchMissOnMethodOrPath(t *testing.T) {
	table := New().Get("/ping", binder.Literal("pong"))

	if _, _, ok := table.Match("/pong", "GET"); ok {
		t.Fatalf("expected a path miss")
	}
	if _, _, ok := table.Match("/ping", "POST"); ok {
		t.Fatalf("expected a method miss")
	}
}

func TestAddAnchorsUnanchoredPatterns(t *testing.T) {
	h := binder.Params([]binder.ParamDescriptor{{Name: "id"}},
		func(args []any, kwargs map[string]any) (any, error) { return "x", nil })
	table := New().Get("users/(\\d+)", h)
	if _, _, ok := table.Match("/users/42/extra", "GET"); ok {
		t.Fatalf("expected anchored pattern to reject a longer path")
	}
	if _, _, ok := table.Match("users/42", "GET"); !ok {
		t.Fatalf("expected anchored pattern to still match its own full path")
	}
}

func TestAddPanicsOnUnbindableCaptureGroup(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Add to panic on a capture group with no bindable slot")
		}
	}()
	New().Get("/users/(\\d+)", binder.Zero(func() (any, error) { return nil, nil }))
}

func TestAddAllowsCaptureGroupMatchingParamsSlot(t *testing.T) {
	params := []binder.ParamDescriptor{{Name: "id"}}
	h := binder.Params(params, func(args []any, kwargs map[string]any) (any, error) { return args[0], nil })
	table := New().Get("/users/(\\d+)", h)
	entry, args, ok := table.Match("/users/42", "GET")
	if !ok || len(args) != 1 || args[0] != "42" {
		t.Fatalf("match = %#v %#v %v", entry, args, ok)
	}
}
