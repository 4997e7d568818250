package scenario

import (
	"fmt"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/smt"
)

// weekModel holds the constraint variables for one open week: per
// competitor, the weekly score, the updated win count, and the final rank.
type weekModel struct {
	points []smt.IntVar
	wins   []smt.IntVar
	rank   []smt.IntVar
}

// buildModel asserts the season's base constraint system into a session:
// score bounds, conditional win updates, tie prohibitions, and the rank
// definition. No ranking goal is attached here.
func buildModel(sess smt.Session, season *league.Season, minScore, maxScore int) *weekModel {
	n := len(season.Competitors)
	m := &weekModel{
		points: make([]smt.IntVar, n),
		wins:   make([]smt.IntVar, n),
		rank:   make([]smt.IntVar, n),
	}
	for i := range season.Competitors {
		m.points[i] = smt.NewIntVar(fmt.Sprintf("points_%d", i))
		m.wins[i] = smt.NewIntVar(fmt.Sprintf("wins_%d", i))
		m.rank[i] = smt.NewIntVar(fmt.Sprintf("rank_%d", i))
	}

	for i := range season.Competitors {
		sess.Assert(smt.Ge(smt.V(m.points[i]), smt.C(minScore)))
		sess.Assert(smt.Le(smt.V(m.points[i]), smt.C(maxScore)))
	}

	// A win goes to whichever side outscores the other; the first-listed
	// side takes a score tie, though ties are ruled out below anyway.
	for _, mu := range season.Matchups {
		hw := season.Competitors[mu.Home].Wins
		aw := season.Competitors[mu.Away].Wins
		sess.Assert(smt.Cond(
			smt.Ge(smt.V(m.points[mu.Home]), smt.V(m.points[mu.Away])),
			smt.Eq(smt.V(m.wins[mu.Home]), smt.C(hw+1)),
			smt.Eq(smt.V(m.wins[mu.Home]), smt.C(hw)),
		))
		sess.Assert(smt.Cond(
			smt.Gt(smt.V(m.points[mu.Away]), smt.V(m.points[mu.Home])),
			smt.Eq(smt.V(m.wins[mu.Away]), smt.C(aw+1)),
			smt.Eq(smt.V(m.wins[mu.Away]), smt.C(aw)),
		))
	}
	for i := range season.Competitors {
		if season.Bye(i) {
			sess.Assert(smt.Eq(smt.V(m.wins[i]), smt.C(season.Competitors[i].Wins)))
		}
	}

	// Modeling assumption carried from the constraint design: exact ties
	// in weekly score or season total are disallowed so ranks stay
	// well-defined. A faithful league model would need an explicit
	// tiebreak rule here instead.
	for i := 0; i < len(season.Competitors); i++ {
		for j := i + 1; j < len(season.Competitors); j++ {
			sess.Assert(smt.Ne(smt.V(m.points[i]), smt.V(m.points[j])))
			sess.Assert(smt.Ne(
				smt.V(m.points[i]).Plus(season.Competitors[i].Points),
				smt.V(m.points[j]).Plus(season.Competitors[j].Points),
			))
		}
	}

	// rank_i = 1 + |{j : j strictly better than i}| where better means
	// more wins, or equal wins and a higher season total.
	for i := range season.Competitors {
		better := make([]smt.Constraint, 0, n-1)
		for j := range season.Competitors {
			if j == i {
				continue
			}
			better = append(better, smt.Or(
				smt.Gt(smt.V(m.wins[j]), smt.V(m.wins[i])),
				smt.And(
					smt.Eq(smt.V(m.wins[j]), smt.V(m.wins[i])),
					smt.Gt(
						smt.V(m.points[j]).Plus(season.Competitors[j].Points),
						smt.V(m.points[i]).Plus(season.Competitors[i].Points),
					),
				),
			))
		}
		sess.Assert(smt.CountEq(m.rank[i], 1, better...))
	}

	return m
}
