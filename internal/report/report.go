// Package report renders analysis results for humans. Pure formatting
// over an io.Writer; nothing here queries the oracle.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/scenario"
)

// Standing is one display row of a resolved standings table.
type Standing struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Points int    `json:"points"` // season total, centipoints
}

// Standings derives the final table for one scenario, sorted by rank
// ascending.
func Standings(season *league.Season, sc *scenario.Scenario) []Standing {
	rows := make([]Standing, len(season.Competitors))
	for i, c := range season.Competitors {
		rows[i] = Standing{
			Rank:   sc.Ranks[i],
			Name:   c.Name,
			Wins:   sc.Wins[i],
			Points: c.Points + sc.Scores[i],
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
	return rows
}

// points renders centipoints with two decimals.
func points(cp int) string {
	return fmt.Sprintf("%d.%02d", cp/100, cp%100)
}

// goalPhrase describes a goal in league terms.
func goalPhrase(season *league.Season, goal league.Goal) string {
	return fmt.Sprintf("%s finishing at rank %d or better",
		season.Competitors[goal.Competitor].Name, goal.Rank)
}

// Write renders a full analysis: scenario count, sufficient patterns,
// necessary outcomes, and one example scenario with its standings table.
func Write(w io.Writer, season *league.Season, res *scenario.Analysis) {
	name := season.Competitors[res.Goal.Competitor].Name

	fmt.Fprintf(w, "Scenarios for %s:\n", goalPhrase(season, res.Goal))
	fmt.Fprintf(w, "  %d distinct outcomes found.\n", len(res.Scenarios))

	if !res.Feasible() {
		fmt.Fprintf(w, "  %s cannot reach rank %d under any circumstances.\n", name, res.Goal.Rank)
		return
	}

	fmt.Fprintf(w, "\nGuaranteed if any of these hold:\n")
	if len(res.Sufficient) == 0 {
		fmt.Fprintf(w, "  none found\n")
	}
	for i, p := range res.Sufficient {
		if p.Decided() == 0 {
			fmt.Fprintf(w, "  Already guaranteed, whatever happens.\n")
			break
		}
		fmt.Fprintf(w, "  Case %d:\n", i+1)
		fmt.Fprintf(w, "    %s\n", strings.Join(patternLines(season, p), " AND\n    "))
	}

	fmt.Fprintf(w, "\nRequired in every scenario:\n")
	required := patternLines(season, scenario.Pattern(res.Necessary))
	if len(required) == 0 {
		fmt.Fprintf(w, "  nothing is forced\n")
	} else {
		fmt.Fprintf(w, "  %s\n", strings.Join(required, " AND\n  "))
	}

	ex := res.Example()
	fmt.Fprintf(w, "\nExample scenario:\n")
	for _, mu := range season.Matchups {
		home, away := mu.Home, mu.Away
		if ex.Winner(home, away) == scenario.AwayWins {
			home, away = away, home
		}
		fmt.Fprintf(w, "  %s beats %s (%s to %s)\n",
			season.Competitors[home].Name, season.Competitors[away].Name,
			points(ex.Scores[home]), points(ex.Scores[away]))
	}

	fmt.Fprintf(w, "\nFinal standings:\n")
	for _, row := range Standings(season, ex) {
		fmt.Fprintf(w, "  %2d. %-20s %d wins  %s points\n", row.Rank, row.Name, row.Wins, points(row.Points))
	}
}

// patternLines renders a pattern's decided entries as "X wins vs Y".
func patternLines(season *league.Season, p scenario.Pattern) []string {
	var lines []string
	for mi, o := range p {
		if o == scenario.Open {
			continue
		}
		mu := season.Matchups[mi]
		winner, loser := mu.Home, mu.Away
		if o == scenario.AwayWins {
			winner, loser = loser, winner
		}
		lines = append(lines, fmt.Sprintf("%s wins vs %s",
			season.Competitors[winner].Name, season.Competitors[loser].Name))
	}
	return lines
}
