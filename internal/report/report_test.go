package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/scenario"
)

func reportSeason() *league.Season {
	return &league.Season{
		Competitors: []league.Competitor{
			{Name: "Ann", Wins: 3, Points: 146426},
			{Name: "Ben", Wins: 2, Points: 139000},
			{Name: "Cam", Wins: 2, Points: 138851},
			{Name: "Dee", Wins: 1, Points: 120175},
		},
		Matchups: []league.Matchup{
			{Home: 0, Away: 1},
			{Home: 2, Away: 3},
		},
	}
}

// One concrete outcome: Ann beats Ben, Dee beats Cam. Final order by
// wins then total points: Ann, Ben, Cam, Dee.
func exampleScenario() scenario.Scenario {
	return scenario.Scenario{
		Wins:   []int{4, 2, 2, 2},
		Ranks:  []int{1, 2, 3, 4},
		Scores: []int{11050, 9825, 8000, 12001},
	}
}

func TestStandingsSortedByRank(t *testing.T) {
	sc := exampleScenario()
	rows := Standings(reportSeason(), &sc)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Ann", "Ben", "Cam", "Dee"},
		[]string{rows[0].Name, rows[1].Name, rows[2].Name, rows[3].Name})
	assert.Equal(t, 1, rows[0].Rank)
	// Season total folds in the weekly score.
	assert.Equal(t, 146426+11050, rows[0].Points)
}

func TestWriteFeasible(t *testing.T) {
	season := reportSeason()
	sc := exampleScenario()
	res := &scenario.Analysis{
		Goal:      league.Goal{Competitor: 2, Rank: 3},
		Scenarios: []scenario.Scenario{sc},
		Necessary: []scenario.Outcome{scenario.HomeWins, scenario.Open},
		Sufficient: []scenario.Pattern{
			{scenario.HomeWins, scenario.AwayWins},
		},
	}

	var buf bytes.Buffer
	Write(&buf, season, res)
	out := buf.String()

	assert.Contains(t, out, "Cam finishing at rank 3 or better")
	assert.Contains(t, out, "1 distinct outcomes found")
	assert.Contains(t, out, "Case 1:")
	assert.Contains(t, out, "Ann wins vs Ben")
	assert.Contains(t, out, "Dee wins vs Cam")
	assert.Contains(t, out, "Required in every scenario:")
	assert.Contains(t, out, "Example scenario:")
	// Winner listed first with formatted centipoints.
	assert.Contains(t, out, "Ann beats Ben (110.50 to 98.25)")
	assert.Contains(t, out, "Dee beats Cam (120.01 to 80.00)")
	assert.Contains(t, out, "Final standings:")
	assert.Contains(t, out, "Ann")
	assert.NotContains(t, out, "cannot reach")
}

func TestWriteInfeasible(t *testing.T) {
	season := reportSeason()
	res := &scenario.Analysis{
		Goal: league.Goal{Competitor: 3, Rank: 1},
	}

	var buf bytes.Buffer
	Write(&buf, season, res)
	out := buf.String()

	assert.Contains(t, out, "0 distinct outcomes found")
	assert.Contains(t, out, "Dee cannot reach rank 1 under any circumstances")
	assert.NotContains(t, out, "Example scenario:")
}

func TestWriteAlreadyGuaranteed(t *testing.T) {
	season := reportSeason()
	sc := exampleScenario()
	res := &scenario.Analysis{
		Goal:       league.Goal{Competitor: 0, Rank: 4},
		Scenarios:  []scenario.Scenario{sc},
		Necessary:  []scenario.Outcome{scenario.Open, scenario.Open},
		Sufficient: []scenario.Pattern{{scenario.Open, scenario.Open}},
	}

	var buf bytes.Buffer
	Write(&buf, season, res)
	out := buf.String()

	assert.Contains(t, out, "Already guaranteed, whatever happens.")
	assert.Contains(t, out, "nothing is forced")
}

func TestPointsFormatting(t *testing.T) {
	assert.Equal(t, "0.00", points(0))
	assert.Equal(t, "0.05", points(5))
	assert.Equal(t, "120.01", points(12001))
	assert.Equal(t, "1464.26", points(146426))
}
