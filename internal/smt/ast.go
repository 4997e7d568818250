// Package smt provides a narrow constraint-oracle contract: assert,
// push/pop scoping, satisfiability checks, and model value extraction.
// The bundled backend implements it with a lazy integer-difference-logic
// procedure on top of a SAT solver. The scenario engine depends only on
// the Session interface, so another backend (an SMT binding, an ILP
// wrapper) could be dropped in without touching the engine.
package smt

// IntVar is a named integer variable. Variables are pure identifiers:
// building a constraint does not bind them to any session.
type IntVar struct {
	name string
}

// NewIntVar creates an integer variable with the given name. Names are
// identity: two IntVars with the same name are the same variable.
func NewIntVar(name string) IntVar {
	return IntVar{name: name}
}

// Name returns the variable's identifier.
func (v IntVar) Name() string { return v.name }

// Term is an integer variable plus a constant offset, or a bare constant.
type Term struct {
	v      IntVar
	hasVar bool
	off    int
}

// V lifts a variable to a term.
func V(v IntVar) Term {
	return Term{v: v, hasVar: true}
}

// C is a constant term.
func C(k int) Term {
	return Term{off: k}
}

// Plus offsets a term by a constant.
func (t Term) Plus(k int) Term {
	t.off += k
	return t
}

// Constraint is a boolean combination of integer comparisons. Constraints
// are immutable values; the same Constraint may be asserted into any number
// of sessions.
type Constraint interface {
	isConstraint()
}

// atomC is the canonical comparison x - y <= k. Either side may be absent,
// standing for the constant zero.
type atomC struct {
	x, y     IntVar
	hasX, hY bool
	k        int
}

// boolC is a constant truth value, produced when both sides of a
// comparison are constants.
type boolC struct {
	val bool
}

type andC struct{ kids []Constraint }
type orC struct{ kids []Constraint }
type notC struct{ kid Constraint }

// countC asserts v == base + |{kids that hold}|. Only valid as a direct
// assertion, not nested under boolean operators.
type countC struct {
	v    IntVar
	base int
	kids []Constraint
}

func (*atomC) isConstraint()  {}
func (*boolC) isConstraint()  {}
func (*andC) isConstraint()   {}
func (*orC) isConstraint()    {}
func (*notC) isConstraint()   {}
func (*countC) isConstraint() {}

// newAtom builds the canonical form of a - b <= 0 from two terms,
// folding constant-only comparisons to a truth value.
func newAtom(a, b Term) Constraint {
	k := b.off - a.off
	if !a.hasVar && !b.hasVar {
		return &boolC{val: 0 <= k}
	}
	if a.hasVar && b.hasVar && a.v == b.v {
		return &boolC{val: 0 <= k}
	}
	return &atomC{x: a.v, hasX: a.hasVar, y: b.v, hY: b.hasVar, k: k}
}

// Le asserts a <= b.
func Le(a, b Term) Constraint { return newAtom(a, b) }

// Lt asserts a < b.
func Lt(a, b Term) Constraint { return newAtom(a, b.Plus(-1)) }

// Ge asserts a >= b.
func Ge(a, b Term) Constraint { return newAtom(b, a) }

// Gt asserts a > b.
func Gt(a, b Term) Constraint { return newAtom(b, a.Plus(-1)) }

// Eq asserts a == b.
func Eq(a, b Term) Constraint { return And(Le(a, b), Ge(a, b)) }

// Ne asserts a != b.
func Ne(a, b Term) Constraint { return Or(Lt(a, b), Gt(a, b)) }

// And holds when every operand holds.
func And(cs ...Constraint) Constraint {
	return &andC{kids: cs}
}

// Or holds when at least one operand holds.
func Or(cs ...Constraint) Constraint {
	return &orC{kids: cs}
}

// Not negates a constraint.
func Not(c Constraint) Constraint {
	return &notC{kid: c}
}

// Implies asserts cond -> then.
func Implies(cond, then Constraint) Constraint {
	return Or(Not(cond), then)
}

// Iff asserts a <-> b.
func Iff(a, b Constraint) Constraint {
	return And(Implies(a, b), Implies(b, a))
}

// Cond is an if-then-else constraint: then when cond holds, els otherwise.
func Cond(cond, then, els Constraint) Constraint {
	return And(Implies(cond, then), Implies(Not(cond), els))
}

// CountEq asserts v == base + (number of conds that hold). It may only be
// asserted directly; nesting it under a boolean operator is rejected at
// compile time.
func CountEq(v IntVar, base int, conds ...Constraint) Constraint {
	return &countC{v: v, base: base, kids: conds}
}
