package query

import (
	"strings"

	"songbook/models"
)

// Kind tags the variant held by an Expr.
type Kind int

const (
	// KindAll matches every record.
	KindAll Kind = iota
	// KindEquals matches when the whole field equals Value, ignoring case.
	KindEquals
	// KindPrefix matches when the field starts with Value, ignoring case.
	KindPrefix
	// KindContains matches when Value occurs anywhere in the field, ignoring case.
	KindContains
	// KindAnd matches when every operand matches.
	KindAnd
	// KindOr matches when at least one operand matches.
	KindOr
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindEquals:
		return "equals"
	case KindPrefix:
		return "prefix"
	case KindContains:
		return "contains"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	}
	return "unknown"
}

// Expr is a store-agnostic predicate over song fields.
//
// Values are always literal text. Backends translate them into their own
// query language and must escape anything their matcher would treat as
// pattern syntax.
type Expr struct {
	Kind     Kind
	Field    Field
	Value    string
	Operands []Expr
}

// All returns the predicate that matches every record.
func All() Expr {
	return Expr{Kind: KindAll}
}

// Equals matches a field equal to value, ignoring case.
func Equals(field Field, value string) Expr {
	return Expr{Kind: KindEquals, Field: field, Value: value}
}

// HasPrefix matches a field starting with value, ignoring case.
func HasPrefix(field Field, value string) Expr {
	return Expr{Kind: KindPrefix, Field: field, Value: value}
}

// Contains matches a field containing value as a substring, ignoring case.
func Contains(field Field, value string) Expr {
	return Expr{Kind: KindContains, Field: field, Value: value}
}

// And combines operands conjunctively. All operands are dropped, nested
// conjunctions are flattened, and a single remaining operand is returned as is.
func And(operands ...Expr) Expr {
	return combine(KindAnd, operands)
}

// Or combines operands disjunctively, with the same simplifications as And.
func Or(operands ...Expr) Expr {
	return combine(KindOr, operands)
}

func combine(kind Kind, operands []Expr) Expr {
	flat := make([]Expr, 0, len(operands))
	for _, op := range operands {
		switch {
		case op.IsAll():
			if kind == KindOr {
				return All()
			}
		case op.Kind == kind:
			flat = append(flat, op.Operands...)
		default:
			flat = append(flat, op)
		}
	}

	switch len(flat) {
	case 0:
		return All()
	case 1:
		return flat[0]
	}
	return Expr{Kind: kind, Operands: flat}
}

// IsAll reports whether e matches every record.
func (e Expr) IsAll() bool {
	return e.Kind == KindAll
}

// Match evaluates e against s.
func (e Expr) Match(s models.Song) bool {
	switch e.Kind {
	case KindAll:
		return true
	case KindEquals:
		return strings.ToLower(e.Field.Text(s)) == strings.ToLower(e.Value)
	case KindPrefix:
		return strings.HasPrefix(strings.ToLower(e.Field.Text(s)), strings.ToLower(e.Value))
	case KindContains:
		return strings.Contains(strings.ToLower(e.Field.Text(s)), strings.ToLower(e.Value))
	case KindAnd:
		for _, op := range e.Operands {
			if !op.Match(s) {
				return false
			}
		}
		return true
	case KindOr:
		for _, op := range e.Operands {
			if op.Match(s) {
				return true
			}
		}
		return false
	}
	return false
}

// Walk calls fn for e and every nested operand, depth first.
func (e Expr) Walk(fn func(Expr)) {
	fn(e)
	for _, op := range e.Operands {
		op.Walk(fn)
	}
}
