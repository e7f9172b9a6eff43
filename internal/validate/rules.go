package validate

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/dshills/nodekit/internal/attr"
)

// RuleFunc evaluates one rule against value. It returns whether the rule
// passed and the default failure message. A non-nil error means the rule
// is misconfigured and aborts the run.
type RuleFunc func(c *Context, value any, args Args) (bool, string, error)

// Context is passed to every rule invocation.
type Context struct {
	Field   string
	Subject Subject

	v *Validator
}

// Predicate is a Go predicate for the "function" rule.
type Predicate func(value any, subject any) bool

// PredicateProvider supplies named predicates.
type PredicateProvider interface {
	Predicate(name string) (Predicate, bool)
}

// Predicates is a map-backed PredicateProvider.
type Predicates map[string]Predicate

// Predicate implements PredicateProvider.
func (p Predicates) Predicate(name string) (Predicate, bool) {
	fn, ok := p[name]
	return fn, ok
}

var builtins map[string]RuleFunc

func init() {
	builtins = map[string]RuleFunc{
		"required":  ruleRequired,
		"notNull":   ruleNotNull,
		"notEmpty":  ruleNotEmpty,
		"type":      ruleType,
		"integer":   ruleInteger,
		"min":       ruleMin,
		"max":       ruleMax,
		"range":     ruleRange,
		"minLength": ruleMinLength,
		"maxLength": ruleMaxLength,
		"length":    ruleLength,
		"pattern":   rulePattern,
		"enum":      ruleEnum,
		"function":  ruleFunction,
		"lua":       ruleLua,
	}
}

// RuleNames returns the built-in rule names.
func RuleNames() []string {
	return sortedKeys(builtins)
}

// enabled reports whether a flag-style rule is switched on. A missing
// value counts as on.
func enabled(a Args) bool {
	b, ok := a.Value.(bool)
	return !ok || b
}

func ruleRequired(_ *Context, value any, a Args) (bool, string, error) {
	if !enabled(a) {
		return true, "", nil
	}
	if value == nil {
		return false, "is required", nil
	}
	if s, ok := value.(string); ok && s == "" {
		return false, "is required", nil
	}
	return true, "", nil
}

func ruleNotNull(_ *Context, value any, a Args) (bool, string, error) {
	if !enabled(a) {
		return true, "", nil
	}
	return !isNil(value), "must not be null", nil
}

func ruleNotEmpty(_ *Context, value any, a Args) (bool, string, error) {
	if !enabled(a) {
		return true, "", nil
	}
	if isNil(value) {
		return false, "must not be empty", nil
	}
	if n, ok := length(value); ok {
		return n > 0, "must not be empty", nil
	}
	return true, "", nil
}

func ruleType(_ *Context, value any, a Args) (bool, string, error) {
	typ, ok := a.Value.(string)
	if !ok {
		return false, "", fmt.Errorf("%w: type needs a type name, got %T", ErrBadRuleArgs, a.Value)
	}
	msg := "must be of type " + typ
	if value == nil {
		return typ == "null", msg, nil
	}
	switch typ {
	case "string":
		_, ok = value.(string)
	case "number":
		ok = isNumber(value)
	case "integer":
		ok = isInteger(value)
	case "boolean":
		_, ok = value.(bool)
	case "array":
		k := reflect.TypeOf(value).Kind()
		ok = k == reflect.Slice || k == reflect.Array
	case "object":
		k := reflect.TypeOf(value).Kind()
		ok = k == reflect.Map || k == reflect.Struct || k == reflect.Pointer
	case "null":
		ok = false
	default:
		return false, "", fmt.Errorf("%w: unknown type %q", ErrBadRuleArgs, typ)
	}
	return ok, msg, nil
}

func ruleInteger(_ *Context, value any, a Args) (bool, string, error) {
	if value == nil || !enabled(a) {
		return true, "", nil
	}
	f, ok := attr.ParseNumber(value)
	return ok && f == math.Trunc(f), "must be an integer", nil
}

func ruleMin(_ *Context, value any, a Args) (bool, string, error) {
	bound, ok := attr.ParseNumber(a.Value)
	if !ok {
		return false, "", fmt.Errorf("%w: min needs a number, got %T", ErrBadRuleArgs, a.Value)
	}
	msg := fmt.Sprintf("must be at least %v", a.Value)
	if value == nil {
		return true, "", nil
	}
	f, ok := attr.ParseNumber(value)
	return ok && f >= bound, msg, nil
}

func ruleMax(_ *Context, value any, a Args) (bool, string, error) {
	bound, ok := attr.ParseNumber(a.Value)
	if !ok {
		return false, "", fmt.Errorf("%w: max needs a number, got %T", ErrBadRuleArgs, a.Value)
	}
	msg := fmt.Sprintf("must be at most %v", a.Value)
	if value == nil {
		return true, "", nil
	}
	f, ok := attr.ParseNumber(value)
	return ok && f <= bound, msg, nil
}

func ruleRange(_ *Context, value any, a Args) (bool, string, error) {
	lo, hi, err := bounds("range", a.Value)
	if err != nil {
		return false, "", err
	}
	msg := fmt.Sprintf("must be between %v and %v", lo, hi)
	if value == nil {
		return true, "", nil
	}
	f, ok := attr.ParseNumber(value)
	return ok && f >= lo && f <= hi, msg, nil
}

func ruleMinLength(_ *Context, value any, a Args) (bool, string, error) {
	bound, ok := attr.ParseNumber(a.Value)
	if !ok {
		return false, "", fmt.Errorf("%w: minLength needs a number, got %T", ErrBadRuleArgs, a.Value)
	}
	msg := fmt.Sprintf("length must be at least %v", a.Value)
	if value == nil {
		return true, "", nil
	}
	n, ok := length(value)
	return ok && float64(n) >= bound, msg, nil
}

func ruleMaxLength(_ *Context, value any, a Args) (bool, string, error) {
	bound, ok := attr.ParseNumber(a.Value)
	if !ok {
		return false, "", fmt.Errorf("%w: maxLength needs a number, got %T", ErrBadRuleArgs, a.Value)
	}
	msg := fmt.Sprintf("length must be at most %v", a.Value)
	if value == nil {
		return true, "", nil
	}
	n, ok := length(value)
	return ok && float64(n) <= bound, msg, nil
}

// ruleLength accepts an exact length or a [min, max] pair.
func ruleLength(_ *Context, value any, a Args) (bool, string, error) {
	var lo, hi float64
	var msg string
	if exact, ok := attr.ParseNumber(a.Value); ok {
		lo, hi = exact, exact
		msg = fmt.Sprintf("length must be %v", a.Value)
	} else {
		var err error
		if lo, hi, err = bounds("length", a.Value); err != nil {
			return false, "", err
		}
		msg = fmt.Sprintf("length must be between %v and %v", lo, hi)
	}
	if value == nil {
		return true, "", nil
	}
	n, ok := length(value)
	return ok && float64(n) >= lo && float64(n) <= hi, msg, nil
}

func rulePattern(c *Context, value any, a Args) (bool, string, error) {
	expr, ok := a.Value.(string)
	if !ok {
		return false, "", fmt.Errorf("%w: pattern needs a string, got %T", ErrBadRuleArgs, a.Value)
	}
	re, err := c.v.pattern(expr)
	if err != nil {
		return false, "", fmt.Errorf("%w: %v", ErrBadRuleArgs, err)
	}
	if value == nil {
		return true, "", nil
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	return re.MatchString(s), "must match " + expr, nil
}

func ruleEnum(_ *Context, value any, a Args) (bool, string, error) {
	rv := reflect.ValueOf(a.Value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false, "", fmt.Errorf("%w: enum needs a list, got %T", ErrBadRuleArgs, a.Value)
	}
	allowed := make([]any, rv.Len())
	for i := range allowed {
		allowed[i] = rv.Index(i).Interface()
	}
	msg := fmt.Sprintf("must be one of %v", allowed)
	if value == nil {
		return true, "", nil
	}
	for _, want := range allowed {
		if valuesEqual(value, want) {
			return true, "", nil
		}
	}
	return false, msg, nil
}

// ruleFunction runs a Go predicate. The argument is either the predicate
// itself or the name of one, looked up on the delegate first and then on
// the subject. An unresolvable name is a configuration error.
func ruleFunction(c *Context, value any, a Args) (bool, string, error) {
	const msg = "is invalid"
	switch fn := a.Value.(type) {
	case Predicate:
		return fn(value, c.Subject), msg, nil
	case func(any, any) bool:
		return fn(value, c.Subject), msg, nil
	case func(any) bool:
		return fn(value), msg, nil
	case string:
		p, ok := c.v.resolvePredicate(fn, c.Subject)
		if !ok {
			return false, "", fmt.Errorf("%w: %q", ErrMissingPredicate, fn)
		}
		return p(value, c.Subject), msg, nil
	default:
		return false, "", fmt.Errorf("%w: function needs a predicate or name, got %T", ErrBadRuleArgs, a.Value)
	}
}

func ruleLua(c *Context, value any, a Args) (bool, string, error) {
	chunk, ok := a.Value.(string)
	if !ok {
		return false, "", fmt.Errorf("%w: lua needs a chunk, got %T", ErrBadRuleArgs, a.Value)
	}
	passed, err := c.v.scriptEngine().EvalPredicate(chunk, map[string]any{
		"value": value,
		"field": c.Field,
	})
	if err != nil {
		return false, "", err
	}
	return passed, "is invalid", nil
}

// resolvePredicate looks name up on the delegate, then on the subject.
// Either may be a PredicateProvider or expose a method of type
// func(any) bool with that name.
func (v *Validator) resolvePredicate(name string, subject Subject) (Predicate, bool) {
	for _, src := range []any{v.delegate, subject} {
		if src == nil {
			continue
		}
		if pp, ok := src.(PredicateProvider); ok {
			if p, ok := pp.Predicate(name); ok {
				return p, true
			}
		}
		m := reflect.ValueOf(src).MethodByName(name)
		if !m.IsValid() {
			continue
		}
		if fn, ok := m.Interface().(func(any) bool); ok {
			return func(value, _ any) bool { return fn(value) }, true
		}
	}
	return nil, false
}

func bounds(rule string, v any) (float64, float64, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() != 2 {
		return 0, 0, fmt.Errorf("%w: %s needs [min, max], got %v", ErrBadRuleArgs, rule, v)
	}
	lo, ok1 := attr.ParseNumber(rv.Index(0).Interface())
	hi, ok2 := attr.ParseNumber(rv.Index(1).Interface())
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("%w: %s bounds must be numbers, got %v", ErrBadRuleArgs, rule, v)
	}
	return lo, hi, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// length returns the rune count of a string or the length of a
// collection.
func length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func isNumber(v any) bool {
	_, ok := attr.Number(v)
	return ok
}

func isInteger(v any) bool {
	if !isNumber(v) {
		return false
	}
	f, _ := attr.ParseNumber(v)
	return f == math.Trunc(f)
}

func valuesEqual(a, b any) bool {
	if fa, ok := attr.Number(a); ok {
		if fb, ok := attr.Number(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}
