package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSeason() *Season {
	return &Season{
		Competitors: []Competitor{
			{Name: "Ann", Wins: 3, Points: 146426},
			{Name: "Ben", Wins: 2, Points: 139000},
			{Name: "Cam", Wins: 2, Points: 138851},
			{Name: "Dee", Wins: 1, Points: 120175},
		},
		Matchups: []Matchup{
			{Home: 0, Away: 1},
			{Home: 2, Away: 3},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, validSeason().Validate())

	// A competitor on a bye is fine.
	s := validSeason()
	s.Matchups = s.Matchups[:1]
	assert.NoError(t, s.Validate())

	// No open matchups at all is fine.
	s.Matchups = nil
	assert.NoError(t, s.Validate())
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Season)
		want   string
	}{
		{"no competitors", func(s *Season) { s.Competitors = nil }, "no competitors"},
		{"empty name", func(s *Season) { s.Competitors[2].Name = "  " }, "empty name"},
		{"duplicate name", func(s *Season) { s.Competitors[1].Name = "ANN " }, "duplicate"},
		{"negative wins", func(s *Season) { s.Competitors[0].Wins = -1 }, "negative wins"},
		{"negative points", func(s *Season) { s.Competitors[3].Points = -5 }, "negative points"},
		{"bad index", func(s *Season) { s.Matchups[0].Away = 9 }, "unknown competitor index"},
		{"negative index", func(s *Season) { s.Matchups[1].Home = -1 }, "unknown competitor index"},
		{"self matchup", func(s *Season) { s.Matchups[0].Away = 0 }, "with itself"},
		{"double booking", func(s *Season) { s.Matchups[1].Home = 1 }, "appears in matchups"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSeason()
			tc.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateGoal(t *testing.T) {
	s := validSeason()
	assert.NoError(t, s.ValidateGoal(Goal{Competitor: 0, Rank: 1}))
	assert.NoError(t, s.ValidateGoal(Goal{Competitor: 3, Rank: 4}))

	assert.Error(t, s.ValidateGoal(Goal{Competitor: -1, Rank: 1}))
	assert.Error(t, s.ValidateGoal(Goal{Competitor: 4, Rank: 1}))
	assert.Error(t, s.ValidateGoal(Goal{Competitor: 0, Rank: 0}))
	assert.Error(t, s.ValidateGoal(Goal{Competitor: 0, Rank: 5}))
}

func TestCompetitorIndex(t *testing.T) {
	s := validSeason()

	i, ok := s.CompetitorIndex("Cam")
	require.True(t, ok)
	assert.Equal(t, 2, i)

	i, ok = s.CompetitorIndex("  dee ")
	require.True(t, ok)
	assert.Equal(t, 3, i)

	_, ok = s.CompetitorIndex("Zed")
	assert.False(t, ok)
}

func TestBye(t *testing.T) {
	s := validSeason()
	for i := range s.Competitors {
		assert.False(t, s.Bye(i))
	}

	s.Matchups = s.Matchups[:1]
	assert.False(t, s.Bye(0))
	assert.True(t, s.Bye(2))
	assert.True(t, s.Bye(3))
}
