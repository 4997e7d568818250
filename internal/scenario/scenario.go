// Package scenario is the scenario-resolution engine: it encodes one open
// week of head-to-head matchups as a constraint system, enumerates every
// materially distinct outcome consistent with a ranking goal, derives the
// matchup results that are necessary across all of them, and searches for
// minimal outcome patterns sufficient to guarantee the goal. All solving
// goes through the smt.Session oracle contract.
package scenario

// Outcome is one matchup's resolved (or unconstrained) result.
type Outcome int8

const (
	// Open leaves the matchup unconstrained.
	Open Outcome = iota
	// HomeWins resolves the matchup for the first-listed side.
	HomeWins
	// AwayWins resolves the matchup for the second-listed side.
	AwayWins
)

func (o Outcome) String() string {
	switch o {
	case HomeWins:
		return "home"
	case AwayWins:
		return "away"
	default:
		return "open"
	}
}

// Scenario is one fully resolved week: updated win counts, final ranks,
// and the witness weekly scores (centipoints) the oracle produced. Two
// scenarios are the same outcome when their wins and ranks agree; scores
// are incidental.
type Scenario struct {
	Wins   []int `json:"wins"`
	Ranks  []int `json:"ranks"`
	Scores []int `json:"scores"`
}

// Winner resolves a matchup's outcome under this scenario's scores. The
// first side wins on a score tie, matching the win-update constraints;
// the base model rules score ties out anyway.
func (s *Scenario) Winner(home, away int) Outcome {
	if s.Scores[home] >= s.Scores[away] {
		return HomeWins
	}
	return AwayWins
}

// Pattern is a partial assignment of matchup outcomes, one entry per
// matchup in schedule order.
type Pattern []Outcome

// Decided counts the non-Open entries.
func (p Pattern) Decided() int {
	n := 0
	for _, o := range p {
		if o != Open {
			n++
		}
	}
	return n
}

// Subsumes reports whether p implies q: every outcome p commits to, q
// commits to identically. A more general (more wildcarded) pattern
// subsumes all of its agreeing specializations.
func (p Pattern) Subsumes(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i, o := range p {
		if o != Open && q[i] != o {
			return false
		}
	}
	return true
}

func (p Pattern) clone() Pattern {
	q := make(Pattern, len(p))
	copy(q, p)
	return q
}
