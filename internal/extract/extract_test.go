package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/pkg/anthropic"
)

// mockClient replies by matching a substring of the request's text blocks.
type mockClient struct {
	replies map[string]string
	calls   int
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.calls++
	var text string
	for _, msg := range req.Messages {
		for _, b := range msg.Blocks {
			if b.Type == "text" {
				text += b.Text
			}
		}
	}
	for needle, reply := range m.replies {
		if strings.Contains(text, needle) {
			return &anthropic.MessageResponse{
				Content: []anthropic.ContentBlock{{Type: "text", Text: reply}},
			}, nil
		}
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{}`}},
	}, nil
}

type memCache struct {
	m map[string]string
}

func newMemCache() *memCache { return &memCache{m: map[string]string{}} }

func (c *memCache) GetCached(_ context.Context, key string) (string, bool, error) {
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) PutCached(_ context.Context, key, response string) error {
	c.m[key] = response
	return nil
}

func writeImage(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

const standingsReply = `Here is the table:
{"players": [
  {"name": "Ann", "wins": 3, "points": 1464.26},
  {"name": "Ben", "wins": 2, "points": 1390.00},
  {"name": "Cam", "wins": 2, "points": 1388.51},
  {"name": "Dee", "wins": 1, "points": 1201.75}
]}`

const scoreboardReply = `{"matchups": [["Ann", "B."], ["Cam", "Dee"]]}`

const normalizeReply = `{"matchups": [["Ann", "Ben"], ["Cam", "Dee"]]}`

func testDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "table"), "standings.png", []byte("table-bytes"))
	writeImage(t, filepath.Join(dir, "scoreboard"), "week.png", []byte("board-bytes"))
	return dir
}

func TestExtractSeason(t *testing.T) {
	client := &mockClient{replies: map[string]string{
		"standings table":   standingsReply,
		"week's matchups":   scoreboardReply,
		"canonical roster entry": normalizeReply,
	}}
	ex := New(client, newMemCache(), Options{Model: "test-model", RequestsPerSecond: 1000})

	season, err := ex.ExtractSeason(context.Background(), testDataDir(t))
	require.NoError(t, err)

	require.Len(t, season.Competitors, 4)
	assert.Equal(t, "Ann", season.Competitors[0].Name)
	assert.Equal(t, 3, season.Competitors[0].Wins)
	assert.Equal(t, 146426, season.Competitors[0].Points)
	assert.Equal(t, 120175, season.Competitors[3].Points)

	// "B." resolved to Ben through the normalization pass.
	require.Len(t, season.Matchups, 2)
	assert.Equal(t, 0, season.Matchups[0].Home)
	assert.Equal(t, 1, season.Matchups[0].Away)
	assert.Equal(t, 2, season.Matchups[1].Home)
	assert.Equal(t, 3, season.Matchups[1].Away)
}

func TestExtractSeasonSkipsNormalizationWhenNamesResolve(t *testing.T) {
	client := &mockClient{replies: map[string]string{
		"standings table": standingsReply,
		"week's matchups": `{"matchups": [["Ann", "Ben"], ["Cam", "Dee"]]}`,
	}}
	ex := New(client, nil, Options{Model: "test-model", RequestsPerSecond: 1000})

	season, err := ex.ExtractSeason(context.Background(), testDataDir(t))
	require.NoError(t, err)
	require.Len(t, season.Matchups, 2)
	// One standings call plus one scoreboard call, no normalization pass.
	assert.Equal(t, 2, client.calls)
}

func TestExtractStandingsMergesScreenshots(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "p1.png", []byte("one"))
	writeImage(t, dir, "p2.png", []byte("two"))

	client := &mockClient{replies: map[string]string{
		"standings table": `{"players": [{"name": "Ann", "wins": 3, "points": 100.5}, {"name": "ann", "wins": 9, "points": 1.0}]}`,
	}}
	ex := New(client, nil, Options{Model: "test-model", RequestsPerSecond: 1000})

	imgs, err := listImages(dir)
	require.NoError(t, err)
	require.Len(t, imgs, 2)

	competitors, err := ex.ExtractStandings(context.Background(), imgs)
	require.NoError(t, err)
	// Duplicate names are case-folded; first appearance wins.
	require.Len(t, competitors, 1)
	assert.Equal(t, 3, competitors[0].Wins)
	assert.Equal(t, 10050, competitors[0].Points)
}

func TestExtractMatchupsDeduplicatesPairs(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", []byte("a"))
	writeImage(t, dir, "b.png", []byte("b"))

	client := &mockClient{replies: map[string]string{
		"week's matchups": `{"matchups": [["Ann", "Ben"], ["ben", "ANN"]]}`,
	}}
	ex := New(client, nil, Options{Model: "test-model", RequestsPerSecond: 1000})

	imgs, err := listImages(dir)
	require.NoError(t, err)
	pairs, err := ex.ExtractMatchups(context.Background(), imgs, []string{"Ann", "Ben"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"Ann", "Ben"}}, pairs)
}

func TestCacheAvoidsRepeatCalls(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "standings.png", []byte("same-bytes"))

	client := &mockClient{replies: map[string]string{
		"standings table": standingsReply,
	}}
	cache := newMemCache()
	ex := New(client, cache, Options{Model: "test-model", RequestsPerSecond: 1000})

	imgs, err := listImages(dir)
	require.NoError(t, err)

	_, err = ex.ExtractStandings(context.Background(), imgs)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)

	_, err = ex.ExtractStandings(context.Background(), imgs)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls, "second run should be served from cache")

	// NoCache forces a fresh call even with a warm cache.
	fresh := New(client, cache, Options{Model: "test-model", NoCache: true, RequestsPerSecond: 1000})
	_, err = fresh.ExtractStandings(context.Background(), imgs)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestJSONBody(t *testing.T) {
	body, err := jsonBody("Sure! {\"a\": {\"b\": 1}} hope that helps")
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, body)

	_, err = jsonBody("no json here")
	assert.Error(t, err)
}

func TestListImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "b.png", []byte("b"))
	writeImage(t, dir, "a.jpeg", []byte("a"))
	writeImage(t, dir, "notes.txt", []byte("x"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	imgs, err := listImages(dir)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, filepath.Join(dir, "a.jpeg"), imgs[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), imgs[1])

	none, err := listImages(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
