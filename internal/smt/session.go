package smt

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/rotisserie/eris"
)

// ErrUnsat reports that the asserted constraints are infeasible. It is a
// valid outcome, not an oracle failure; callers must branch on it with
// errors.Is.
var ErrUnsat = eris.New("smt: unsatisfiable")

// DefaultConflictBudget bounds theory-conflict rounds per Check call.
const DefaultConflictBudget = 10000

// Model is one satisfying assignment.
type Model struct {
	vals map[string]int
}

// Value returns the model's value for a variable. Variables absent from
// the constraints evaluate to zero.
func (m *Model) Value(v IntVar) int {
	return m.vals[v.name]
}

// Session is the narrow oracle contract the scenario engine depends on.
// A session accumulates constraints, supports scoped assertion via
// Push/Pop, and answers repeated satisfiability queries incrementally.
// Sessions are not safe for concurrent use; run independent analyses on
// independent sessions.
type Session interface {
	// Assert adds a constraint to the current scope.
	Assert(c Constraint)
	// Push opens a scope; Pop discards every constraint asserted since
	// the matching Push.
	Push()
	Pop()
	// Check reports whether the asserted constraints are satisfiable.
	// It returns a model, or an error wrapping ErrUnsat on infeasibility,
	// or an oracle-failure error (budget exhausted, context done).
	Check(ctx context.Context) (*Model, error)
}

// Config tunes the backend session.
type Config struct {
	// ConflictBudget caps theory-conflict resolution rounds per Check.
	// Zero means DefaultConflictBudget.
	ConflictBudget int
}

// conflictsPerRound caps how many theory conflicts one propositional
// model is mined for before control returns to the SAT solver.
const conflictsPerRound = 16

// lemmaAtom pins one atom of a learned theory conflict by its canonical
// identity rather than its SAT variable, which is reassigned on every
// compile.
type lemmaAtom struct {
	key   atomKey
	truth bool
}

// session implements Session with lazy difference-logic solving: gophersat
// decides the propositional skeleton, a Bellman-Ford pass validates the
// implied difference constraints, and each theory conflict is returned to
// the SAT solver as a learned clause.
type session struct {
	frames [][]Constraint
	budget int
	// lemmas holds every theory conflict learned so far. Each records an
	// atom assignment that can never hold in full, a fact independent of
	// the asserted constraints, so lemmas stay valid across Push/Pop and
	// later Check calls and are re-encoded into each one.
	lemmas [][]lemmaAtom
}

// NewSession creates a backend session.
func NewSession(cfg Config) Session {
	budget := cfg.ConflictBudget
	if budget <= 0 {
		budget = DefaultConflictBudget
	}
	return &session{
		frames: [][]Constraint{nil},
		budget: budget,
	}
}

func (s *session) Assert(c Constraint) {
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], c)
}

func (s *session) Push() {
	s.frames = append(s.frames, nil)
}

func (s *session) Pop() {
	if len(s.frames) == 1 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *session) Check(ctx context.Context) (*Model, error) {
	comp := newCompiler()
	for _, frame := range s.frames {
		for _, c := range frame {
			comp.assert(c)
		}
	}
	if comp.err != nil {
		return nil, comp.err
	}
	comp.ladder()
	comp.triangles()

	clauses := comp.clauses
	for _, lm := range s.lemmas {
		if cl, ok := lemmaClause(comp, lm); ok {
			clauses = append(clauses, cl)
		}
	}

	for round := 0; round < s.budget; round++ {
		sat := solver.New(solver.ParseSlice(clauses))
		st, err := solveBounded(ctx, sat)
		if err != nil {
			return nil, err
		}
		switch st {
		case solver.Unsat:
			return nil, eris.Wrap(ErrUnsat, "smt: check")
		case solver.Sat:
		default:
			return nil, eris.New("smt: sat solver returned indeterminate status")
		}

		binding := sat.Model()

		g := newDiffGraph()
		for key, v := range comp.atoms {
			g.addAtom(key, v, binding[v-1])
		}
		vals, conflicts := g.solve(conflictsPerRound)
		if len(conflicts) == 0 {
			return &Model{vals: vals}, nil
		}

		// Each conflicting atom set cannot hold together; teach the SAT
		// solver, remember the fact for later Checks, and retry.
		for _, conflict := range conflicts {
			learned := make([]int, len(conflict))
			lm := make([]lemmaAtom, len(conflict))
			for i, e := range conflict {
				learned[i] = -e.lit
				lm[i] = lemmaAtom{key: e.key, truth: e.lit > 0}
			}
			clauses = append(clauses, learned)
			s.lemmas = append(s.lemmas, lm)
		}
	}

	return nil, eris.Errorf("smt: conflict budget %d exhausted", s.budget)
}

// solveBounded runs the SAT solver off the calling goroutine so an
// expired context cuts the query short instead of waiting the solve out.
// An abandoned solver finishes on its own; the buffered channel lets its
// goroutine exit either way.
func solveBounded(ctx context.Context, sat *solver.Solver) (solver.Status, error) {
	if err := ctx.Err(); err != nil {
		return solver.Indet, eris.Wrap(err, "smt: check aborted")
	}
	done := make(chan solver.Status, 1)
	go func() { done <- sat.Solve() }()
	select {
	case <-ctx.Done():
		return solver.Indet, eris.Wrap(ctx.Err(), "smt: check aborted")
	case st := <-done:
		return st, nil
	}
}

// lemmaClause re-encodes a learned conflict against one compilation's
// atom variables. A lemma naming an atom the current constraints never
// mention constrains nothing here and is skipped.
func lemmaClause(comp *compiler, lm []lemmaAtom) ([]int, bool) {
	cl := make([]int, len(lm))
	for i, la := range lm {
		v, ok := comp.atoms[la.key]
		if !ok {
			return nil, false
		}
		if la.truth {
			cl[i] = -v
		} else {
			cl[i] = v
		}
	}
	return cl, true
}
