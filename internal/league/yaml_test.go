package league

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "season.yaml")
	want := validSeason()

	require.NoError(t, SaveSeason(path, want))

	got, err := LoadSeason(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSeasonHandWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "season.yaml")
	yaml := `
competitors:
  - name: Ann
    wins: 3
    points: 146426
  - name: Ben
    wins: 2
    points: 139000
matchups:
  - home: 0
    away: 1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	s, err := LoadSeason(path)
	require.NoError(t, err)
	require.Len(t, s.Competitors, 2)
	assert.Equal(t, 146426, s.Competitors[0].Points)
	assert.Equal(t, Matchup{Home: 0, Away: 1}, s.Matchups[0])
}

func TestLoadSeasonErrors(t *testing.T) {
	_, err := LoadSeason(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("competitors: {nope"), 0o644))
	_, err = LoadSeason(path)
	assert.Error(t, err)

	// Structurally valid YAML that fails season validation.
	invalid := `
competitors:
  - name: Ann
    wins: 3
    points: 100
matchups:
  - home: 0
    away: 5
`
	require.NoError(t, os.WriteFile(path, []byte(invalid), 0o644))
	_, err = LoadSeason(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown competitor index")
}
