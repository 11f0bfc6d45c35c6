package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultReasoning is used when the model's reply carries no reasoning of
// its own, including when the reply was not structured at all.
const DefaultReasoning = "Generated using AI optimization strategies"

// NormalizedReply is the structured pair recovered from a raw model reply.
type NormalizedReply struct {
	Content   string
	Reasoning string
}

// aiReply mirrors the JSON shape the generation prompt asks for. Content is
// a pointer so a missing key can be told apart from an empty one.
type aiReply struct {
	Content   *string `json:"content"`
	Reasoning string  `json:"reasoning"`
}

// parseStrategy attempts to recover a structured reply from raw text. It
// returns false when the format does not match; the next strategy is tried.
type parseStrategy func(raw string) (NormalizedReply, bool)

// The strategies are tried in order, first match wins. New reply formats are
// handled by appending here, not by touching call sites.
var parseStrategies = []parseStrategy{
	parseWholeJSON,
	parseFencedJSON,
}

// Normalize recovers a {content, reasoning} pair from a raw model reply.
// It is total: model output that is neither JSON nor a fenced JSON block is
// taken verbatim as content with the default reasoning. Malformed output is
// never an error here.
func Normalize(raw string) NormalizedReply {
	for _, parse := range parseStrategies {
		if reply, ok := parse(raw); ok {
			return reply
		}
	}
	return NormalizedReply{Content: raw, Reasoning: DefaultReasoning}
}

// parseWholeJSON treats the entire reply as one JSON object.
func parseWholeJSON(raw string) (NormalizedReply, bool) {
	return parseObject(strings.TrimSpace(raw))
}

// fencedJSONPattern matches a ```json (or bare ```) fence containing an
// object, with any prose allowed around the fence.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseFencedJSON looks for a fenced code block holding a JSON object.
func parseFencedJSON(raw string) (NormalizedReply, bool) {
	m := fencedJSONPattern.FindStringSubmatch(raw)
	if m == nil {
		return NormalizedReply{}, false
	}
	return parseObject(m[1])
}

// parseObject decodes a candidate JSON object. The object must carry a
// content key; reasoning falls back to the default literal when absent.
func parseObject(candidate string) (NormalizedReply, bool) {
	var reply aiReply
	if err := json.Unmarshal([]byte(candidate), &reply); err != nil {
		return NormalizedReply{}, false
	}
	if reply.Content == nil {
		return NormalizedReply{}, false
	}
	reasoning := reply.Reasoning
	if reasoning == "" {
		reasoning = DefaultReasoning
	}
	return NormalizedReply{Content: *reply.Content, Reasoning: reasoning}, true
}
