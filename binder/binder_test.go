package binder

import (
	"testing"

	"github.com/badu/meander/document"
)

func TestBindZeroParams(t *testing.T) {
	h := Zero(func() (any, error) { return "pong", nil })
	args, kwargs, err := Bind(h, nil, document.New())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if args != nil || kwargs != nil {
		t.Fatalf("expected nil args/kwargs, got %#v %#v", args, kwargs)
	}
	out, err := h.Invoke(args, kwargs)
	if err != nil || out != "pong" {
		t.Fatalf("Invoke: %v %#v", err, out)
	}
}

func TestBindContentPassthrough(t *testing.T) {
	h := Content(func(c any) (any, error) { return c, nil })
	doc := document.New()
	doc.Content = map[string]any{"a": "1"}
	args, _, err := Bind(h, nil, doc)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, err := h.Invoke(args, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	m := out.(map[string]any)
	if m["a"] != "1" {
		t.Fatalf("content = %#v", out)
	}
}

func TestBindParamsAppliesConverterOnce(t *testing.T) {
	params := []ParamDescriptor{
		{Name: "a", Converter: IntConverter, Required: true},
		{Name: "b", Converter: IntConverter, Required: true},
	}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	})
	doc := document.New()
	doc.Content = map[string]any{"a": "2", "b": "3"}
	args, kwargs, err := Bind(h, nil, doc)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, err := h.Invoke(args, kwargs)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out.(int) != 5 {
		t.Fatalf("sum = %#v", out)
	}
}

func TestBindPositionalArgsFoldIntoContent(t *testing.T) {
	params := []ParamDescriptor{{Name: "id", Converter: IntConverter, Required: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) {
		return args[0], nil
	})
	doc := document.New()
	args, _, err := Bind(h, []string{"42"}, doc)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, _ := h.Invoke(args, nil)
	if out.(int) != 42 {
		t.Fatalf("id = %#v", out)
	}
}

func TestBindExtraAttributeError(t *testing.T) {
	params := []ParamDescriptor{{Name: "a", Required: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) { return nil, nil })
	doc := document.New()
	doc.Content = map[string]any{"a": "1", "extra": "2"}
	_, _, err := Bind(h, nil, doc)
	if _, ok := err.(*ExtraAttributeError); !ok {
		t.Fatalf("expected ExtraAttributeError, got %#v", err)
	}
}

func TestBindRequiredAttributeError(t *testing.T) {
	params := []ParamDescriptor{{Name: "a", Required: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) { return nil, nil })
	doc := document.New()
	doc.Content = map[string]any{}
	_, _, err := Bind(h, nil, doc)
	if _, ok := err.(*RequiredAttributeError); !ok {
		t.Fatalf("expected RequiredAttributeError, got %#v", err)
	}
}

func TestBindDuplicateAttributeError(t *testing.T) {
	params := []ParamDescriptor{{Name: "a", Required: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) { return nil, nil })
	doc := document.New()
	doc.Content = map[string]any{"a": "1"}
	_, _, err := Bind(h, []string{"2"}, doc)
	if _, ok := err.(*DuplicateAttributeError); !ok {
		t.Fatalf("expected DuplicateAttributeError, got %#v", err)
	}
}

func TestBindPayloadValueErrorOnBadInt(t *testing.T) {
	params := []ParamDescriptor{{Name: "a", Converter: IntConverter, Required: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) { return nil, nil })
	doc := document.New()
	doc.Content = map[string]any{"a": "not-a-number"}
	_, _, err := Bind(h, nil, doc)
	if _, ok := err.(*PayloadValueError); !ok {
		t.Fatalf("expected PayloadValueError, got %#v", err)
	}
}

func TestBindVariadicKwargsSink(t *testing.T) {
	params := []ParamDescriptor{
		{Name: "a", Required: true},
		{Name: "extra", IsVariadicKwargs: true},
	}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) {
		return kwargs, nil
	})
	doc := document.New()
	doc.Content = map[string]any{"a": "1", "b": "2", "c": "3"}
	args, kwargs, err := Bind(h, nil, doc)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, _ := h.Invoke(args, kwargs)
	m := out.(map[string]any)
	if m["b"] != "2" || m["c"] != "3" {
		t.Fatalf("kwargs = %#v", m)
	}
}

func TestBindConnectionIDSynthesis(t *testing.T) {
	params := []ParamDescriptor{{Name: "cid", IsConnectionID: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) {
		return args[0], nil
	})
	doc := document.New()
	doc.ConnectionID = 7
	doc.ID = 3
	args, _, err := Bind(h, nil, doc)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, _ := h.Invoke(args, nil)
	if out != "con=7 req=3" {
		t.Fatalf("connection id = %#v", out)
	}
}

func TestBindRequestInjection(t *testing.T) {
	params := []ParamDescriptor{{Name: "req", IsRequest: true}}
	h := Params(params, func(args []any, kwargs map[string]any) (any, error) {
		return args[0], nil
	})
	doc := document.New()
	args, _, err := Bind(h, nil, doc)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, _ := h.Invoke(args, nil)
	if out.(*document.Document) != doc {
		t.Fatalf("request injection mismatch")
	}
}
