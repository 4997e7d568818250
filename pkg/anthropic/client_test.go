package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponse_TextConcatenatesTextBlocks(t *testing.T) {
	r := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "hello "},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "world"},
	}}
	assert.Equal(t, "hello world", r.Text())
}

func TestBlockBuilders(t *testing.T) {
	b := ImageBlock("image/png", "aGk=")
	assert.Equal(t, "image", b.Type)
	assert.Equal(t, "image/png", b.MediaType)

	m := UserMessage(b, TextBlock("what do you see?"))
	assert.Equal(t, "user", m.Role)
	assert.Len(t, m.Blocks, 2)
	assert.Equal(t, "text", m.Blocks[1].Type)
}

func TestToSDKMessages_RolesAndBlocks(t *testing.T) {
	msgs := toSDKMessages([]Message{
		UserMessage(TextBlock("hi")),
		{Role: "assistant", Blocks: []Block{TextBlock("hello")}},
	})
	assert.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}

func TestEstimateCost_KnownAndUnknownModels(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 18.0, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.Zero(t, u.EstimateCost("some-unknown-model"))
}

func TestEstimateCost_CacheMultipliers(t *testing.T) {
	u := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}
	// write at 1.25x input, read at 0.1x input
	assert.InDelta(t, 3.0*1.25+3.0*0.1, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
}
