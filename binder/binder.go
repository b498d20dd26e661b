// Package binder implements the parameter binder (spec §4.5,
// component C5): given a handler's declared parameter shape and a
// parsed Document, it produces the handler's argument vector or a
// structured binder error.
//
// Go has no runtime introspection of a function's declared parameter
// names the way the source's dynamic language does, so per spec §9's
// design note this binder takes an explicit []ParamDescriptor supplied
// at registration instead of inspecting a Go func's signature — the
// descriptor list *is* what the source computes dynamically from a
// handler's annotations.
package binder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/badu/meander/document"
)

// TypeConverter coerces a raw bound value (usually a string from the
// query string, or whatever JSON/form decoding produced) into the
// handler's expected type. A nil TypeConverter is the identity
// conversion (the "unannotated" case, spec §4.5).
type TypeConverter func(any) (any, error)

// IntConverter is the "int" annotation: a strict, digits-only integer
// parser (spec §4.5).
func IntConverter(v any) (any, error) {
	s, err := asString(v)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, fmt.Errorf("not an integer")
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("not an integer")
	}
	return n, nil
}

// BoolConverter is the "bool" annotation: accepts
// {1,"1",true,0,"0",false,"true","false"} case-insensitively.
func BoolConverter(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		if t == 1 {
			return true, nil
		}
		if t == 0 {
			return false, nil
		}
	case int:
		if t == 1 {
			return true, nil
		}
		if t == 0 {
			return false, nil
		}
	case string:
		switch strings.ToLower(t) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
	}
	return nil, fmt.Errorf("not a boolean")
}

func asString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		return "", fmt.Errorf("not a string")
	}
}

// ParamDescriptor describes one handler parameter (spec §3).
type ParamDescriptor struct {
	Name             string
	Converter        TypeConverter
	Required         bool
	IsRequest        bool
	IsConnectionID   bool
	IsVariadicKwargs bool
}

// Kind distinguishes the handler-invocation shapes of spec §9's design
// note ("a handful of concrete Handler variants").
type Kind int

const (
	// KindZero handlers take no parameters.
	KindZero Kind = iota
	// KindRequest handlers take the Document itself as their only
	// parameter.
	KindRequest
	// KindContent handlers take the parsed, unconverted Content as
	// their only parameter.
	KindContent
	// KindParams handlers declare an explicit []ParamDescriptor and are
	// invoked with the fully-bound argument vector.
	KindParams
)

// Handler is one of the four invocation shapes above, built by the
// Zero/Request/Content/Params constructors below and registered into a
// router.Table.
type Handler struct {
	kind   Kind
	params []ParamDescriptor

	zeroFn    func() (any, error)
	requestFn func(*document.Document) (any, error)
	contentFn func(any) (any, error)
	paramsFn  func(args []any, kwargs map[string]any) (any, error)
}

// Zero builds a zero-parameter handler (spec §4.5/§8: "any request
// succeeds with an empty argument vector").
func Zero(fn func() (any, error)) Handler {
	return Handler{kind: KindZero, zeroFn: fn}
}

// Literal builds a zero-parameter handler that always returns value,
// implementing spec §4.4's "handler reference as a literal string"
// case ("a constant function returning that string").
func Literal(value any) Handler {
	return Zero(func() (any, error) { return value, nil })
}

// Request builds a handler whose single parameter is the Document
// itself (the "Request" annotation, spec §4.5).
func Request(fn func(*document.Document) (any, error)) Handler {
	return Handler{kind: KindRequest, requestFn: fn}
}

// Content builds a handler with a single, unannotated parameter: the
// parsed Content is passed through unchanged (spec §4.5/§8).
func Content(fn func(any) (any, error)) Handler {
	return Handler{kind: KindContent, contentFn: fn}
}

// Params builds a handler with an explicit, ordered parameter list,
// invoked with the positional argument vector (one slot per descriptor,
// in order) plus any variadic-kwargs side-mapping (spec §4.5).
func Params(params []ParamDescriptor, fn func(args []any, kwargs map[string]any) (any, error)) Handler {
	return Handler{kind: KindParams, params: params, paramsFn: fn}
}

// Descriptors returns the handler's declared parameters (empty for
// Zero/Request/Content handlers).
func (h Handler) Descriptors() []ParamDescriptor { return h.params }

// Invoke calls the handler with the resolved positional args and
// kwargs side-mapping produced by Bind.
func (h Handler) Invoke(args []any, kwargs map[string]any) (any, error) {
	switch h.kind {
	case KindZero:
		return h.zeroFn()
	case KindRequest:
		return h.requestFn(args[0].(*document.Document))
	case KindContent:
		return h.contentFn(args[0])
	default:
		return h.paramsFn(args, kwargs)
	}
}

// Bind implements the binding algorithm of spec §4.5: given the
// matched route's positional captures and the parsed Document, it
// produces the argument vector Handler.Invoke expects, synthesizing
// the ConnectionId pseudo-value from cid/rid as
// "con=<cid> req=<rid>".
func Bind(h Handler, routeArgs []string, doc *document.Document) ([]any, map[string]any, error) {
	switch h.kind {
	case KindZero:
		return nil, nil, nil
	case KindRequest:
		return []any{doc}, nil, nil
	case KindContent:
		return []any{doc.Content}, nil, nil
	}

	params := h.params
	content, ok := doc.Content.(map[string]any)
	if !ok {
		if doc.Content == nil {
			content = map[string]any{}
		} else {
			return nil, nil, newPayloadValueError("expecting content to be a dictionary")
		}
	} else {
		// Work on a copy: binding must not mutate the Document's own
		// Content map as it folds in positional captures.
		copied := make(map[string]any, len(content))
		for k, v := range content {
			copied[k] = v
		}
		content = copied
	}

	bindable := bindableSlots(params)
	if len(routeArgs) > len(bindable) {
		extra := routeArgs[len(bindable):]
		return nil, nil, newExtraAttributeError(fmt.Sprintf("extra attribute(s): %s", strings.Join(extra, ", ")))
	}
	for i, raw := range routeArgs {
		name := params[bindable[i]].Name
		if _, exists := content[name]; exists {
			return nil, nil, newDuplicateAttributeError(
				fmt.Sprintf("duplicate attribute: %s", name))
		}
		content[name] = raw
	}

	hasSink := false
	sinkIndex := -1
	declared := make(map[string]bool, len(params))
	for i, p := range params {
		if p.IsVariadicKwargs {
			hasSink = true
			sinkIndex = i
			continue
		}
		declared[p.Name] = true
	}

	kwargs := map[string]any{}
	for k, v := range content {
		if declared[k] {
			continue
		}
		if hasSink {
			kwargs[k] = v
			continue
		}
		return nil, nil, newExtraAttributeError(fmt.Sprintf("extra attribute(s): %s", k))
	}

	args := make([]any, len(params))
	for i, p := range params {
		switch {
		case p.IsVariadicKwargs:
			args[i] = kwargs
		case p.IsConnectionID:
			if _, exists := content[p.Name]; exists {
				return nil, nil, newExtraAttributeError(
					fmt.Sprintf("extra attribute(s): %s (reserved for the connection id)", p.Name))
			}
			args[i] = fmt.Sprintf("con=%d req=%d", doc.ConnectionID, doc.ID)
		case p.IsRequest:
			if _, exists := content[p.Name]; exists {
				return nil, nil, newExtraAttributeError(
					fmt.Sprintf("extra attribute(s): %s (reserved for the request)", p.Name))
			}
			args[i] = doc
		default:
			val, present := content[p.Name]
			if !present {
				if p.Required {
					return nil, nil, newRequiredAttributeError(
						fmt.Sprintf("missing required attribute: %s", p.Name))
				}
				args[i] = nil
				continue
			}
			converter := p.Converter
			if converter == nil {
				args[i] = val
				continue
			}
			converted, err := converter(val)
			if err != nil {
				return nil, nil, newPayloadValueError(
					fmt.Sprintf("'%s' is %s", p.Name, err.Error()))
			}
			args[i] = converted
		}
	}
	_ = sinkIndex
	return args, kwargs, nil
}

// bindableSlots returns, in declared order, the indices of params that
// may receive a positional route-capture: everything except the
// Request/ConnectionId pseudo-parameters and the kwargs sink.
func bindableSlots(params []ParamDescriptor) []int {
	var slots []int
	for i, p := range params {
		if p.IsRequest || p.IsConnectionID || p.IsVariadicKwargs {
			continue
		}
		slots = append(slots, i)
	}
	return slots
}
