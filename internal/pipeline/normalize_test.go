package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_WholeJSON(t *testing.T) {
	raw := `{"content":"Launching Acme!","reasoning":"Short punchy hook"}`

	reply := Normalize(raw)

	assert.Equal(t, "Launching Acme!", reply.Content)
	assert.Equal(t, "Short punchy hook", reply.Reasoning)
}

func TestNormalize_WholeJSONWithoutReasoning(t *testing.T) {
	reply := Normalize(`{"content":"Hello world"}`)

	assert.Equal(t, "Hello world", reply.Content)
	assert.Equal(t, DefaultReasoning, reply.Reasoning)
}

func TestNormalize_WholeJSONWithSurroundingWhitespace(t *testing.T) {
	reply := Normalize("\n  {\"content\":\"padded\",\"reasoning\":\"r\"}  \n")

	assert.Equal(t, "padded", reply.Content)
	assert.Equal(t, "r", reply.Reasoning)
}

func TestNormalize_FencedJSONBlock(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{
			name: "json language tag",
			raw:  "Here is your post:\n```json\n{\"content\":\"Fenced post\",\"reasoning\":\"why\"}\n```\nHope that helps!",
		},
		{
			name: "bare fence",
			raw:  "```\n{\"content\":\"Fenced post\",\"reasoning\":\"why\"}\n```",
		},
		{
			name: "prose before and after",
			raw:  "Sure! I considered the limit.\n\n```json\n{\"content\":\"Fenced post\",\"reasoning\":\"why\"}\n```\n\nLet me know if you want edits.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := Normalize(tc.raw)
			assert.Equal(t, "Fenced post", reply.Content)
			assert.Equal(t, "why", reply.Reasoning)
		})
	}
}

func TestNormalize_PlainTextFallback(t *testing.T) {
	raw := "Just buy our widgets"

	reply := Normalize(raw)

	assert.Equal(t, raw, reply.Content)
	assert.Equal(t, DefaultReasoning, reply.Reasoning)
}

func TestNormalize_MalformedInputsFallBackVerbatim(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"broken json", `{"content": "unterminated`},
		{"json without content key", `{"text":"no content field here"}`},
		{"json array", `["not","an","object"]`},
		{"fence without object", "```json\nnot json at all\n```"},
		{"empty string", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := Normalize(tc.raw)
			assert.Equal(t, tc.raw, reply.Content, "fallback must return the raw input verbatim")
			assert.Equal(t, DefaultReasoning, reply.Reasoning)
		})
	}
}

func TestNormalize_WholeJSONWinsOverFence(t *testing.T) {
	// A whole-string JSON object is preferred even if its content happens
	// to contain something fence-like.
	raw := "{\"content\":\"use ```json fences``` in markdown\",\"reasoning\":\"meta\"}"

	reply := Normalize(raw)

	assert.Equal(t, "use ```json fences``` in markdown", reply.Content)
	assert.Equal(t, "meta", reply.Reasoning)
}

func TestNormalize_EmptyContentKeyIsStillStructured(t *testing.T) {
	// content present but empty is a valid structured reply, not a
	// fall-through to the raw text.
	reply := Normalize(`{"content":"","reasoning":"said nothing"}`)

	assert.Equal(t, "", reply.Content)
	assert.Equal(t, "said nothing", reply.Reasoning)
}
