package validate

import "github.com/dshills/nodekit/internal/tree"

// Validatable is a tree node that owns a Validator.
type Validatable interface {
	tree.Node
	Validator() *Validator
}

// AddValidationsToChild pushes the owner's descendant rules onto child.
// For every role path whose first segment is one of child's roles, that
// segment is stripped: a single remaining field lands in child's active
// rules, while a longer remainder lands in child's own descendant table
// for further delegation.
//
// child must be an actual child of owner.
func AddValidationsToChild(owner Validatable, child tree.Node) error {
	oh := owner.AsHeritage()
	if child == nil || !oh.IsChild(child) {
		childID := ""
		if child != nil {
			childID = child.AsHeritage().ID()
		}
		return &NoChildForValidationsError{Owner: oh.ID(), Child: childID}
	}
	cv, ok := child.(Validatable)
	if !ok {
		return ErrNotValidatable
	}

	src := owner.Validator()
	dst := cv.Validator()
	ch := child.AsHeritage()
	for _, path := range src.DescendantPaths() {
		if !ch.HasRole(path.Head()) {
			continue
		}
		rest := path.Tail()
		for field, rules := range src.descendants[path] {
			if rest == "" {
				mergeRules(dst.rules, field, rules)
				continue
			}
			if dst.descendants[rest] == nil {
				dst.descendants[rest] = make(ruleSet)
			}
			mergeRules(dst.descendants[rest], field, rules)
		}
	}
	return nil
}

// DelegateToChildren pushes the owner's descendant rules onto every
// validatable immediate child.
func DelegateToChildren(owner Validatable) error {
	if len(owner.Validator().descendants) == 0 {
		return nil
	}
	for _, c := range owner.AsHeritage().Children() {
		if _, ok := c.(Validatable); !ok {
			continue
		}
		if err := AddValidationsToChild(owner, c); err != nil {
			return err
		}
	}
	return nil
}

// DelegateTree runs DelegateToChildren on root and every validatable
// descendant, parents first, so multi-segment paths reach their targets.
func DelegateTree(root tree.Node) error {
	var err error
	tree.Walk(root, func(n tree.Node) bool {
		if err != nil {
			return false
		}
		if v, ok := n.(Validatable); ok {
			err = DelegateToChildren(v)
		}
		return err == nil
	})
	return err
}

// SelfValidating is a Validatable node that also supplies its own
// attribute values.
type SelfValidating interface {
	Validatable
	Subject
}

// ValidateTree validates root and every SelfValidating descendant,
// parents first. It stops at the first configuration error. The returned
// bool reports whether every node is valid.
func ValidateTree(root tree.Node) (bool, error) {
	valid := true
	var err error
	tree.Walk(root, func(n tree.Node) bool {
		if err != nil {
			return false
		}
		v, ok := n.(SelfValidating)
		if !ok {
			return true
		}
		if err = v.Validator().Validate(v); err != nil {
			return false
		}
		if !v.Validator().Valid() {
			valid = false
		}
		return true
	})
	return valid, err
}
