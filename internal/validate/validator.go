// Package validate evaluates declarative validation rules against a
// node's attributes and delegates rules to descendants by role path.
//
// A rule set maps field name to rule name to arguments:
//
//	validate.Rules{
//	    "name":       {"required": true, "maxLength": 40},
//	    "age":        {"min": validate.Args{Value: 0, MessageKey: "age.negative"}},
//	    "item.label": {"notEmpty": true},
//	}
//
// Keys containing a "." are not evaluated locally. They are kept in a
// descendant table keyed by role path ("item" above) and pushed onto
// matching children by AddValidationsToChild.
package validate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/dshills/nodekit/internal/logging"
	"github.com/dshills/nodekit/internal/rolepath"
	"github.com/dshills/nodekit/internal/script"
)

// Rules is the declarative form of a rule set: field -> rule -> args.
// Args may be a bare value, an Args, or a map with "value", "message",
// and "messageKey" keys.
type Rules map[string]map[string]any

// Args are normalised rule arguments.
type Args struct {
	// Value is the rule parameter, such as a bound or a pattern.
	Value any
	// Message replaces the default failure message.
	Message string
	// MessageKey is resolved to Message by Localize.
	MessageKey string
}

// Subject supplies attribute values to Validate.
type Subject interface {
	Get(name string) (any, error)
}

// Translator resolves message keys.
type Translator interface {
	T(key string) string
}

type ruleSet map[string]map[string]Args

// Validator holds a node's active rules, its descendant table, and the
// result of the last run.
type Validator struct {
	rules       ruleSet
	descendants map[rolepath.Path]ruleSet
	custom      map[string]RuleFunc
	delegate    any
	engine      *script.Engine
	ownsEngine  bool
	patterns    map[string]*regexp.Regexp
	result      *ValidationErrors
	logger      *logging.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithDelegate sets the object consulted first for named predicates. It
// may be a PredicateProvider or any value with func(any) bool methods.
func WithDelegate(d any) Option {
	return func(v *Validator) { v.delegate = d }
}

// WithRule registers a custom rule, overriding a built-in of the same name.
func WithRule(name string, fn RuleFunc) Option {
	return func(v *Validator) { v.custom[name] = fn }
}

// WithEngine shares a Lua engine for "lua" rules. The validator does not
// close a shared engine.
func WithEngine(e *script.Engine) Option {
	return func(v *Validator) { v.engine = e }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *Validator) { v.logger = logging.OrNull(l).WithComponent("validate") }
}

// New creates a validator with rules.
func New(rules Rules, opts ...Option) *Validator {
	v := &Validator{
		rules:       make(ruleSet),
		descendants: make(map[rolepath.Path]ruleSet),
		custom:      make(map[string]RuleFunc),
		patterns:    make(map[string]*regexp.Regexp),
		result:      &ValidationErrors{},
		logger:      logging.NullLogger,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.AddRules(rules)
	return v
}

// AddRules merges rules into the validator. Keys with a "." go to the
// descendant table, the rest to the active rules.
func (v *Validator) AddRules(rules Rules) {
	for key, rs := range rules {
		if !rolepath.HasSeparator(key) {
			mergeRules(v.rules, key, normaliseAll(rs))
			continue
		}
		p := rolepath.Path(key)
		dir := p.Dir()
		if v.descendants[dir] == nil {
			v.descendants[dir] = make(ruleSet)
		}
		mergeRules(v.descendants[dir], p.Base(), normaliseAll(rs))
	}
}

// Fields returns the fields with active rules, sorted.
func (v *Validator) Fields() []string {
	return sortedKeys(v.rules)
}

// HasRule reports whether field has the named active rule.
func (v *Validator) HasRule(field, rule string) bool {
	_, ok := v.rules[field][rule]
	return ok
}

// RuleArgs returns the arguments of an active rule.
func (v *Validator) RuleArgs(field, rule string) (Args, bool) {
	a, ok := v.rules[field][rule]
	return a, ok
}

// DescendantPaths returns the role paths in the descendant table, sorted.
func (v *Validator) DescendantPaths() []rolepath.Path {
	return sortedKeys(v.descendants)
}

// HasDescendantRule reports whether the descendant table holds rule for
// field under path.
func (v *Validator) HasDescendantRule(path rolepath.Path, field, rule string) bool {
	_, ok := v.descendants[path][field][rule]
	return ok
}

// Localize resolves every MessageKey to text through t. It runs before
// messages are generated, so failures carry the localized text.
func (v *Validator) Localize(t Translator) {
	if t == nil {
		return
	}
	localize := func(rs ruleSet) {
		for _, rules := range rs {
			for name, a := range rules {
				if a.MessageKey != "" {
					a.Message = t.T(a.MessageKey)
					rules[name] = a
				}
			}
		}
	}
	localize(v.rules)
	for _, rs := range v.descendants {
		localize(rs)
	}
}

// Validate runs every rule on every field of subject. All failures are
// recorded; a failing rule does not stop the others. The returned error
// is non-nil only for configuration problems such as an unknown rule, an
// unknown attribute, or a missing predicate; the previous run's result
// is then left in place.
func (v *Validator) Validate(subject Subject) error {
	result := &ValidationErrors{}
	for _, field := range v.Fields() {
		value, err := subject.Get(field)
		if err != nil {
			return fmt.Errorf("validate %s: %w", field, err)
		}

		ctx := &Context{Field: field, Subject: subject, v: v}
		rules := v.rules[field]
		for _, name := range sortedKeys(rules) {
			fn, ok := v.lookup(name)
			if !ok {
				return &RuleError{Field: field, Rule: name, Err: ErrUnknownRule}
			}
			args := rules[name]
			passed, msg, err := fn(ctx, value, args)
			if err != nil {
				return &RuleError{Field: field, Rule: name, Err: err}
			}
			if passed {
				continue
			}
			if args.Message != "" {
				msg = args.Message
			}
			result.Add(&FieldError{Field: field, Rule: name, Message: msg, Value: value})
		}
	}

	v.result = result
	if result.HasErrors() {
		v.logger.Debug("%d validation failures on %v", len(result.Errors), result.Fields())
	}
	return nil
}

// Valid reports whether the last run recorded no failures. It is true
// before the first run.
func (v *Validator) Valid() bool {
	return !v.result.HasErrors()
}

// Errors returns the failure messages of the last run by field.
func (v *Validator) Errors() map[string][]string {
	return v.result.ByField()
}

// FieldErrors returns the failure messages recorded for field.
func (v *Validator) FieldErrors(field string) []string {
	var out []string
	for _, err := range v.result.Errors {
		if err.Field == field {
			out = append(out, err.Message)
		}
	}
	return out
}

// Err returns the last run's failures as an error, or nil.
func (v *Validator) Err() error {
	return v.result.AsError()
}

// Close releases the Lua engine if the validator created it.
func (v *Validator) Close() {
	if v.ownsEngine && v.engine != nil {
		v.engine.Close()
		v.engine = nil
		v.ownsEngine = false
	}
}

func (v *Validator) lookup(name string) (RuleFunc, bool) {
	if fn, ok := v.custom[name]; ok {
		return fn, true
	}
	fn, ok := builtins[name]
	return fn, ok
}

func (v *Validator) scriptEngine() *script.Engine {
	if v.engine == nil {
		v.engine = script.New()
		v.ownsEngine = true
	}
	return v.engine
}

func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	if re, ok := v.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.patterns[expr] = re
	return re, nil
}

// normalise converts a declarative argument into Args.
func normalise(raw any) Args {
	switch a := raw.(type) {
	case Args:
		return a
	case *Args:
		if a == nil {
			return Args{}
		}
		return *a
	case map[string]any:
		_, hasValue := a["value"]
		_, hasMsg := a["message"]
		_, hasKey := a["messageKey"]
		if !hasValue && !hasMsg && !hasKey {
			return Args{Value: a}
		}
		out := Args{Value: a["value"]}
		out.Message, _ = a["message"].(string)
		out.MessageKey, _ = a["messageKey"].(string)
		return out
	default:
		return Args{Value: raw}
	}
}

func normaliseAll(rs map[string]any) map[string]Args {
	out := make(map[string]Args, len(rs))
	for name, raw := range rs {
		out[name] = normalise(raw)
	}
	return out
}

func mergeRules(dst ruleSet, field string, rules map[string]Args) {
	if dst[field] == nil {
		dst[field] = make(map[string]Args, len(rules))
	}
	for name, a := range rules {
		dst[field][name] = a
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
