package league

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadSeason reads and validates a season state from a YAML file. This is
// the handoff format between the extraction pipeline and the analyzer.
func LoadSeason(path string) (*Season, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "league: read season file %s", path)
	}

	var s Season
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "league: parse season file %s", path)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSeason writes a season state as YAML.
func SaveSeason(path string, s *Season) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "league: marshal season")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "league: write season file %s", path)
	}
	return nil
}
