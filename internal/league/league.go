package league

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Competitor is one league member with season-to-date totals.
// Points are centipoints (fixed-point, two implied decimals).
type Competitor struct {
	Name   string `yaml:"name" json:"name"`
	Wins   int    `yaml:"wins" json:"wins"`
	Points int    `yaml:"points" json:"points"`
}

// Matchup is one undecided head-to-head pairing for the open week,
// referencing competitors by index. Home/Away only fixes which side is
// reported first; the pairing itself is unordered.
type Matchup struct {
	Home int `yaml:"home" json:"home"`
	Away int `yaml:"away" json:"away"`
}

// Season is the full input state for one analysis: current standings plus
// the open week's schedule. It is immutable once validated; analyses
// receive it explicitly so independent seasons can run concurrently.
type Season struct {
	Competitors []Competitor `yaml:"competitors" json:"competitors"`
	Matchups    []Matchup    `yaml:"matchups" json:"matchups"`
}

// Goal asks whether a competitor can finish the week at or above a rank:
// "final rank <= Rank".
type Goal struct {
	Competitor int `json:"competitor"`
	Rank       int `json:"rank"`
}

// Validate checks structural integrity of the season state. Failures are
// configuration errors from the upstream ingestion step: fatal, never
// retried.
func (s *Season) Validate() error {
	n := len(s.Competitors)
	if n == 0 {
		return eris.New("league: season has no competitors")
	}

	seen := make(map[string]int, n)
	for i, c := range s.Competitors {
		if strings.TrimSpace(c.Name) == "" {
			return eris.Errorf("league: competitor %d has an empty name", i)
		}
		key := foldName(c.Name)
		if j, dup := seen[key]; dup {
			return eris.Errorf("league: duplicate competitor name %q (indices %d and %d)", c.Name, j, i)
		}
		seen[key] = i

		if c.Wins < 0 {
			return eris.Errorf("league: competitor %q has negative wins", c.Name)
		}
		if c.Points < 0 {
			return eris.Errorf("league: competitor %q has negative points", c.Name)
		}
	}

	playing := make(map[int]int, 2*len(s.Matchups))
	for i, m := range s.Matchups {
		for _, idx := range []int{m.Home, m.Away} {
			if idx < 0 || idx >= n {
				return eris.Errorf("league: matchup %d references unknown competitor index %d", i, idx)
			}
		}
		if m.Home == m.Away {
			return eris.Errorf("league: matchup %d pairs competitor %d with itself", i, m.Home)
		}
		for _, idx := range []int{m.Home, m.Away} {
			if j, dup := playing[idx]; dup {
				return eris.Errorf("league: competitor %q appears in matchups %d and %d", s.Competitors[idx].Name, j, i)
			}
			playing[idx] = i
		}
	}

	return nil
}

// ValidateGoal checks a goal against this season. A goal for an unknown
// competitor or with a rank outside 1..N is a configuration error.
func (s *Season) ValidateGoal(g Goal) error {
	if g.Competitor < 0 || g.Competitor >= len(s.Competitors) {
		return eris.Errorf("league: goal references unknown competitor index %d", g.Competitor)
	}
	if g.Rank < 1 || g.Rank > len(s.Competitors) {
		return eris.Errorf("league: goal rank %d outside 1..%d", g.Rank, len(s.Competitors))
	}
	return nil
}

// CompetitorIndex resolves a canonical name to its index,
// case-insensitively.
func (s *Season) CompetitorIndex(name string) (int, bool) {
	key := foldName(name)
	for i, c := range s.Competitors {
		if foldName(c.Name) == key {
			return i, true
		}
	}
	return 0, false
}

// Bye reports whether competitor i sits out the open week.
func (s *Season) Bye(i int) bool {
	for _, m := range s.Matchups {
		if m.Home == i || m.Away == i {
			return false
		}
	}
	return true
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
