// Package extract turns league-app screenshots into a season state using a
// vision-capable Claude model. Responses are cached by content hash so
// re-runs are free; a second model pass reconciles abbreviated scoreboard
// names against the canonical roster.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/resilience"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/pkg/anthropic"
)

// Cache stores raw model responses keyed by request content hash.
type Cache interface {
	GetCached(ctx context.Context, key string) (string, bool, error)
	PutCached(ctx context.Context, key, response string) error
}

// Options configures an Extractor.
type Options struct {
	// Model is the vision-capable model ID.
	Model string
	// NoCache bypasses the response cache.
	NoCache bool
	// RequestsPerSecond throttles API calls; zero means 1.
	RequestsPerSecond float64
}

// Extractor drives the screenshot ingestion pipeline.
type Extractor struct {
	client  anthropic.Client
	cache   Cache
	limiter *rate.Limiter
	opts    Options
}

// New creates an extractor. cache may be nil to disable caching entirely.
func New(client anthropic.Client, cache Cache, opts Options) *Extractor {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Extractor{
		client:  client,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		opts:    opts,
	}
}

// ExtractSeason reads standings screenshots from dataDir/table and
// scoreboard screenshots from dataDir/scoreboard, and assembles a
// validated season state.
func (e *Extractor) ExtractSeason(ctx context.Context, dataDir string) (*league.Season, error) {
	tableImgs, err := listImages(filepath.Join(dataDir, "table"))
	if err != nil {
		return nil, err
	}
	boardImgs, err := listImages(filepath.Join(dataDir, "scoreboard"))
	if err != nil {
		return nil, err
	}
	if len(tableImgs) == 0 {
		return nil, eris.Errorf("extract: no standings screenshots under %s/table", dataDir)
	}

	competitors, err := e.ExtractStandings(ctx, tableImgs)
	if err != nil {
		return nil, err
	}

	season := &league.Season{Competitors: competitors}
	if len(boardImgs) > 0 {
		roster := make([]string, len(competitors))
		for i, c := range competitors {
			roster[i] = c.Name
		}
		pairs, err := e.ExtractMatchups(ctx, boardImgs, roster)
		if err != nil {
			return nil, err
		}
		season.Matchups, err = e.resolveMatchups(ctx, pairs, season)
		if err != nil {
			return nil, err
		}
	}

	if err := season.Validate(); err != nil {
		return nil, err
	}
	return season, nil
}

// ExtractStandings reads the standings table from screenshots. Multiple
// screenshots are merged in order; a competitor seen twice keeps its first
// appearance.
func (e *Extractor) ExtractStandings(ctx context.Context, imagePaths []string) ([]league.Competitor, error) {
	var competitors []league.Competitor
	seen := map[string]bool{}

	for _, img := range imagePaths {
		reply, err := e.vision(ctx, "standings", standingsPrompt, []string{img})
		if err != nil {
			return nil, err
		}

		var parsed struct {
			Players []struct {
				Name   string  `json:"name"`
				Wins   int     `json:"wins"`
				Points float64 `json:"points"`
			} `json:"players"`
		}
		if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
			return nil, eris.Wrapf(err, "extract: parse standings reply for %s", img)
		}
		for _, p := range parsed.Players {
			key := strings.ToLower(strings.TrimSpace(p.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			competitors = append(competitors, league.Competitor{
				Name:   strings.TrimSpace(p.Name),
				Wins:   p.Wins,
				Points: int(math.Round(p.Points * 100)),
			})
		}
	}

	zap.L().Info("standings extracted",
		zap.Int("screenshots", len(imagePaths)),
		zap.Int("competitors", len(competitors)),
	)
	return competitors, nil
}

// ExtractMatchups reads matchup name pairs from scoreboard screenshots,
// deduplicating unordered pairs across images.
func (e *Extractor) ExtractMatchups(ctx context.Context, imagePaths []string, roster []string) ([][2]string, error) {
	var all [][2]string
	seen := map[string]bool{}

	rosterJSON, _ := json.Marshal(roster)
	prompt := fmt.Sprintf(matchupsPrompt, rosterJSON)

	for _, img := range imagePaths {
		reply, err := e.vision(ctx, "matchups", prompt, []string{img})
		if err != nil {
			return nil, err
		}

		var parsed struct {
			Matchups [][]string `json:"matchups"`
		}
		if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
			return nil, eris.Wrapf(err, "extract: parse matchups reply for %s", img)
		}
		for _, pair := range parsed.Matchups {
			if len(pair) != 2 {
				return nil, eris.Errorf("extract: matchup %v is not a pair", pair)
			}
			key := pairKey(pair[0], pair[1])
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, [2]string{pair[0], pair[1]})
		}
	}

	zap.L().Info("matchups extracted",
		zap.Int("screenshots", len(imagePaths)),
		zap.Int("matchups", len(all)),
	)
	return all, nil
}

// resolveMatchups maps name pairs to competitor indices. Names that do not
// resolve exactly go through a model pass that reconciles abbreviations
// ("J. Doe") with the canonical roster.
func (e *Extractor) resolveMatchups(ctx context.Context, pairs [][2]string, season *league.Season) ([]league.Matchup, error) {
	unresolved := false
	for _, p := range pairs {
		for _, name := range []string{p[0], p[1]} {
			if _, ok := season.CompetitorIndex(name); !ok {
				unresolved = true
			}
		}
	}
	if unresolved {
		normalized, err := e.NormalizeNames(ctx, pairs, rosterNames(season))
		if err != nil {
			return nil, err
		}
		pairs = normalized
	}

	matchups := make([]league.Matchup, 0, len(pairs))
	for _, p := range pairs {
		h, ok := season.CompetitorIndex(p[0])
		if !ok {
			return nil, eris.Errorf("extract: matchup name %q not in roster", p[0])
		}
		a, ok := season.CompetitorIndex(p[1])
		if !ok {
			return nil, eris.Errorf("extract: matchup name %q not in roster", p[1])
		}
		matchups = append(matchups, league.Matchup{Home: h, Away: a})
	}
	return matchups, nil
}

// NormalizeNames asks the model to map possibly-abbreviated names onto the
// canonical roster.
func (e *Extractor) NormalizeNames(ctx context.Context, pairs [][2]string, roster []string) ([][2]string, error) {
	pairsJSON, _ := json.Marshal(pairs)
	rosterJSON, _ := json.Marshal(roster)
	prompt := fmt.Sprintf(normalizePrompt, pairsJSON, rosterJSON)

	reply, err := e.text(ctx, "normalize", prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Matchups [][]string `json:"matchups"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, eris.Wrap(err, "extract: parse normalization reply")
	}
	out := make([][2]string, 0, len(parsed.Matchups))
	for _, pair := range parsed.Matchups {
		if len(pair) != 2 {
			return nil, eris.Errorf("extract: normalized matchup %v is not a pair", pair)
		}
		out = append(out, [2]string{pair[0], pair[1]})
	}
	return out, nil
}

// vision sends one prompt with image attachments, going through the cache.
func (e *Extractor) vision(ctx context.Context, phase, prompt string, imagePaths []string) (string, error) {
	blocks := make([]anthropic.Block, 0, len(imagePaths)+1)
	hash := sha256.New()
	fmt.Fprintf(hash, "%s|%s|%s|", phase, e.opts.Model, prompt)
	for _, p := range imagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", eris.Wrapf(err, "extract: read image %s", p)
		}
		hash.Write(data)
		blocks = append(blocks, anthropic.ImageBlock(mediaType(p), base64.StdEncoding.EncodeToString(data)))
	}
	blocks = append(blocks, anthropic.TextBlock(prompt))
	return e.request(ctx, phase, fmt.Sprintf("%x", hash.Sum(nil)), blocks)
}

// text sends a text-only prompt, going through the cache.
func (e *Extractor) text(ctx context.Context, phase, prompt string) (string, error) {
	key := fmt.Sprintf("%x", sha256.Sum256([]byte(phase+"|"+e.opts.Model+"|"+prompt)))
	return e.request(ctx, phase, key, []anthropic.Block{anthropic.TextBlock(prompt)})
}

func (e *Extractor) request(ctx context.Context, phase, key string, blocks []anthropic.Block) (string, error) {
	if e.cache != nil && !e.opts.NoCache {
		if resp, ok, err := e.cache.GetCached(ctx, key); err != nil {
			return "", err
		} else if ok {
			zap.L().Debug("cache hit", zap.String("phase", phase), zap.String("key", key))
			return resp, nil
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "extract: rate limit wait")
	}

	resp, err := resilience.Retry(ctx, resilience.DefaultPolicy(), "extract/"+phase,
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return e.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     e.opts.Model,
				MaxTokens: 2048,
				Messages:  []anthropic.Message{anthropic.UserMessage(blocks...)},
			})
		})
	if err != nil {
		return "", eris.Wrapf(err, "extract: %s request", phase)
	}
	resp.Usage.LogCost(e.opts.Model, "extract/"+phase)

	body, err := jsonBody(resp.Text())
	if err != nil {
		return "", eris.Wrapf(err, "extract: %s reply", phase)
	}

	if e.cache != nil {
		if err := e.cache.PutCached(ctx, key, body); err != nil {
			zap.L().Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}

// jsonBody slices a reply down to its outermost JSON object, tolerating
// prose around it.
func jsonBody(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return "", eris.Errorf("no JSON object in reply: %.120s", reply)
	}
	return reply[start : end+1], nil
}

func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func rosterNames(season *league.Season) []string {
	names := make([]string, len(season.Competitors))
	for i, c := range season.Competitors {
		names[i] = c.Name
	}
	return names
}

// listImages returns the image files directly under dir, sorted by name.
// A missing directory is treated as empty.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read dir %s", dir)
	}
	var imgs []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			imgs = append(imgs, filepath.Join(dir, ent.Name()))
		}
	}
	sort.Strings(imgs)
	return imgs, nil
}

func mediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
