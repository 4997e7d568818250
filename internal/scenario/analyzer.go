package scenario

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/smt"
)

// Defaults for the engine's tunable bounds. Score bounds are policy, not
// domain law: weekly scores are assumed to land between 50.00 and 200.00
// points (centipoint fixed-point).
const (
	DefaultMinScore     = 5000
	DefaultMaxScore     = 20000
	DefaultMaxMatchups  = 10
	DefaultCheckTimeout = 30 * time.Second
)

// Options tunes an Analyzer. Zero values take the defaults above.
type Options struct {
	MinScore       int
	MaxScore       int
	// MaxMatchups guards the 3^M sufficiency search, which is
	// exponential in the number of open matchups.
	MaxMatchups    int
	ConflictBudget int
	// CheckTimeout bounds each oracle query. A timeout is an oracle
	// failure for the goal, never reported as infeasibility.
	CheckTimeout time.Duration
	// NewSession overrides the oracle backend, mainly for tests.
	NewSession func() smt.Session
}

func (o *Options) withDefaults() {
	if o.MinScore == 0 {
		o.MinScore = DefaultMinScore
	}
	if o.MaxScore == 0 {
		o.MaxScore = DefaultMaxScore
	}
	if o.MaxMatchups == 0 {
		o.MaxMatchups = DefaultMaxMatchups
	}
	if o.CheckTimeout == 0 {
		o.CheckTimeout = DefaultCheckTimeout
	}
	if o.NewSession == nil {
		budget := o.ConflictBudget
		o.NewSession = func() smt.Session {
			return smt.NewSession(smt.Config{ConflictBudget: budget})
		}
	}
}

// Analyzer answers ranking-goal questions about one season state. It keeps
// no oracle state between operations: each enumeration or search opens its
// own session, so independent analyzers (and independent goals) can run
// concurrently.
type Analyzer struct {
	season *league.Season
	opts   Options
}

// New validates the season state and builds an analyzer for it.
func New(season *league.Season, opts Options) (*Analyzer, error) {
	if err := season.Validate(); err != nil {
		return nil, err
	}
	opts.withDefaults()
	if len(season.Matchups) > opts.MaxMatchups {
		return nil, eris.Errorf("scenario: %d open matchups exceed the configured cap of %d",
			len(season.Matchups), opts.MaxMatchups)
	}
	if opts.MinScore >= opts.MaxScore {
		return nil, eris.Errorf("scenario: score bounds [%d, %d] are empty", opts.MinScore, opts.MaxScore)
	}
	return &Analyzer{season: season, opts: opts}, nil
}

// Season returns the season under analysis.
func (a *Analyzer) Season() *league.Season { return a.season }

// check runs one oracle query under the configured per-query timeout.
func (a *Analyzer) check(ctx context.Context, sess smt.Session) (*smt.Model, error) {
	qctx, cancel := context.WithTimeout(ctx, a.opts.CheckTimeout)
	defer cancel()
	return sess.Check(qctx)
}

// Enumerate returns every materially distinct (wins, ranks) outcome in
// which the goal holds. The set is exhaustive: each found outcome is
// blocked before the next query, and the loop ends only when the oracle
// proves nothing new remains. An empty result means the goal is
// infeasible.
func (a *Analyzer) Enumerate(ctx context.Context, goal league.Goal) ([]Scenario, error) {
	if err := a.season.ValidateGoal(goal); err != nil {
		return nil, err
	}

	sess := a.opts.NewSession()
	m := buildModel(sess, a.season, a.opts.MinScore, a.opts.MaxScore)
	sess.Assert(smt.Le(smt.V(m.rank[goal.Competitor]), smt.C(goal.Rank)))

	var scenarios []Scenario
	for {
		model, err := a.check(ctx, sess)
		if errors.Is(err, smt.ErrUnsat) {
			return scenarios, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "scenario: enumerate")
		}

		sc := a.extract(m, model)
		scenarios = append(scenarios, sc)

		// Block this (wins, ranks) point so the next model, if any, is a
		// materially distinct scenario.
		block := make([]smt.Constraint, 0, 2*len(sc.Wins))
		for i := range sc.Wins {
			block = append(block,
				smt.Ne(smt.V(m.wins[i]), smt.C(sc.Wins[i])),
				smt.Ne(smt.V(m.rank[i]), smt.C(sc.Ranks[i])),
			)
		}
		sess.Assert(smt.Or(block...))
	}
}

func (a *Analyzer) extract(m *weekModel, model *smt.Model) Scenario {
	n := len(a.season.Competitors)
	sc := Scenario{
		Wins:   make([]int, n),
		Ranks:  make([]int, n),
		Scores: make([]int, n),
	}
	for i := 0; i < n; i++ {
		sc.Wins[i] = model.Value(m.wins[i])
		sc.Ranks[i] = model.Value(m.rank[i])
		sc.Scores[i] = model.Value(m.points[i])
	}
	return sc
}

// NecessaryOutcomes projects an enumerated scenario set onto each matchup:
// a side that wins in literally every scenario is necessary; disagreement,
// or an empty set, leaves the matchup Open. Pure; no oracle queries.
func (a *Analyzer) NecessaryOutcomes(scenarios []Scenario) []Outcome {
	out := make([]Outcome, len(a.season.Matchups))
	for mi, mu := range a.season.Matchups {
		for si, sc := range scenarios {
			w := sc.Winner(mu.Home, mu.Away)
			if si == 0 {
				out[mi] = w
			} else if out[mi] != w {
				out[mi] = Open
				break
			}
		}
	}
	return out
}

// SufficientPatterns searches the 3^M space of partial outcome patterns
// for those that force the goal: a pattern is sufficient when imposing it
// on the negated goal is infeasible. Candidates are visited in order of
// increasing specificity, so each accepted pattern is as general as the
// search can prove and every agreeing specialization is pruned by
// subsumption.
func (a *Analyzer) SufficientPatterns(ctx context.Context, goal league.Goal) ([]Pattern, error) {
	if err := a.season.ValidateGoal(goal); err != nil {
		return nil, err
	}

	sess := a.opts.NewSession()
	m := buildModel(sess, a.season, a.opts.MinScore, a.opts.MaxScore)
	sess.Assert(smt.Gt(smt.V(m.rank[goal.Competitor]), smt.C(goal.Rank)))

	var accepted []Pattern
	for _, cand := range a.candidates() {
		subsumed := false
		for _, p := range accepted {
			if p.Subsumes(cand) {
				subsumed = true
				break
			}
		}
		if subsumed {
			continue
		}

		sess.Push()
		for mi, o := range cand {
			mu := a.season.Matchups[mi]
			switch o {
			case HomeWins:
				sess.Assert(smt.Ge(smt.V(m.points[mu.Home]), smt.V(m.points[mu.Away])))
			case AwayWins:
				sess.Assert(smt.Gt(smt.V(m.points[mu.Away]), smt.V(m.points[mu.Home])))
			}
		}
		model, err := a.check(ctx, sess)
		sess.Pop()

		switch {
		case errors.Is(err, smt.ErrUnsat):
			accepted = append(accepted, cand.clone())
		case err != nil:
			return nil, eris.Wrap(err, "scenario: sufficiency search")
		case model != nil:
			// Feasible under the negated goal: not sufficient.
		}
	}
	return accepted, nil
}

// candidates enumerates all outcome patterns ordered by increasing
// specificity (fewest decided matchups first), ties broken by the fixed
// ternary-counter order.
func (a *Analyzer) candidates() []Pattern {
	mcount := len(a.season.Matchups)
	total := 1
	for i := 0; i < mcount; i++ {
		total *= 3
	}

	all := make([]Pattern, 0, total)
	for code := 0; code < total; code++ {
		p := make(Pattern, mcount)
		c := code
		for i := 0; i < mcount; i++ {
			p[i] = Outcome(c % 3)
			c /= 3
		}
		all = append(all, p)
	}

	ordered := make([]Pattern, 0, total)
	for decided := 0; decided <= mcount; decided++ {
		for _, p := range all {
			if p.Decided() == decided {
				ordered = append(ordered, p)
			}
		}
	}
	return ordered
}

// Analysis is the full answer for one goal.
type Analysis struct {
	Goal       league.Goal `json:"goal"`
	Scenarios  []Scenario  `json:"scenarios"`
	Necessary  []Outcome   `json:"necessary"`
	Sufficient []Pattern   `json:"sufficient"`
}

// Feasible reports whether any scenario satisfies the goal.
func (r *Analysis) Feasible() bool { return len(r.Scenarios) > 0 }

// Example returns one representative scenario, or nil if the goal is
// infeasible.
func (r *Analysis) Example() *Scenario {
	if len(r.Scenarios) == 0 {
		return nil
	}
	return &r.Scenarios[0]
}

// Analyze runs the whole pipeline for one goal: enumerate scenarios,
// project necessary outcomes, and, when the goal is feasible at all,
// search for sufficient patterns. Infeasibility is a reportable result,
// not an error; a failed oracle query fails the whole pass with no
// partial results.
func (a *Analyzer) Analyze(ctx context.Context, goal league.Goal) (*Analysis, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("competitor", a.season.Competitors[goal.Competitor].Name),
		zap.Int("rank", goal.Rank),
	)

	scenarios, err := a.Enumerate(ctx, goal)
	if err != nil {
		return nil, err
	}
	res := &Analysis{
		Goal:      goal,
		Scenarios: scenarios,
		Necessary: a.NecessaryOutcomes(scenarios),
	}

	if len(scenarios) > 0 {
		res.Sufficient, err = a.SufficientPatterns(ctx, goal)
		if err != nil {
			return nil, err
		}
	}

	log.Info("analysis complete",
		zap.Int("scenarios", len(scenarios)),
		zap.Int("sufficient_patterns", len(res.Sufficient)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
