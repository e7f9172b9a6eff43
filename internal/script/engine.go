// Package script evaluates small Lua predicates for validation rules.
//
// The Lua state is sandboxed: only the base, table, string, and math
// libraries are opened, chunk loading from Lua is removed, and every
// evaluation runs under a deadline.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. An Engine must be
// used from one goroutine at a time.
package script

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single predicate evaluation.
const DefaultTimeout = time.Second

// Errors returned by the engine.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("script engine is closed")

	// ErrTimeout is returned when a predicate exceeds its deadline.
	ErrTimeout = errors.New("script predicate timed out")
)

// Engine compiles and evaluates Lua predicates.
type Engine struct {
	L        *lua.LState
	timeout  time.Duration
	compiled map[string]*lua.LFunction
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-evaluation deadline.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New creates a sandboxed engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		timeout:  DefaultTimeout,
		compiled: make(map[string]*lua.LFunction),
	}
	for _, opt := range opts {
		opt(e)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	e.L = L
	return e
}

// Close releases the Lua state.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.L.Close()
	e.closed = true
}

// EvalPredicate runs chunk with bindings as globals and returns the
// truthiness of its result. A chunk without a return statement is treated
// as an expression:
//
//	value >= 18 and value < 130
func (e *Engine) EvalPredicate(chunk string, bindings map[string]any) (bool, error) {
	if e.closed {
		return false, ErrClosed
	}

	fn, err := e.compile(chunk)
	if err != nil {
		return false, err
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.L.SetGlobal(k, toLua(e.L, bindings[k]))
	}
	defer func() {
		for _, k := range keys {
			e.L.SetGlobal(k, lua.LNil)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	top := e.L.GetTop()
	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		e.L.SetTop(top)
		if ctx.Err() != nil {
			return false, ErrTimeout
		}
		return false, fmt.Errorf("lua predicate: %w", err)
	}
	ret := e.L.Get(-1)
	e.L.SetTop(top)
	return lua.LVAsBool(ret), nil
}

func (e *Engine) compile(chunk string) (*lua.LFunction, error) {
	if fn, ok := e.compiled[chunk]; ok {
		return fn, nil
	}
	// Expressions are tried first; a chunk that does not parse as one is
	// loaded as a block of statements.
	fn, err := e.L.LoadString("return (" + chunk + ")")
	if err != nil {
		if fn, err = e.L.LoadString(chunk); err != nil {
			return nil, fmt.Errorf("compiling lua predicate: %w", err)
		}
	}
	e.compiled[chunk] = fn
	return fn, nil
}

// toLua converts Go values into Lua values. Unknown types become their
// fmt representation.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []any:
		t := L.NewTable()
		for _, item := range x {
			t.Append(toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range x {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.Slice, reflect.Array:
		t := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.Append(toLua(L, rv.Index(i).Interface()))
		}
		return t
	}
	return lua.LString(fmt.Sprint(v))
}
