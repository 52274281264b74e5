package ai

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ExtractJSON pulls a single JSON object out of a raw model response. It first
// parses the whole text strictly, then falls back to the span between the first
// '{' and the last '}'. The boolean is false when neither stage yields an object.
func ExtractJSON(raw string) (map[string]any, bool) {
	if object, ok := parseObject(raw); ok {
		return object, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	return parseObject(raw[start : end+1])
}

// parseObject keeps numbers as json.Number so an out-of-range value only
// affects its own field.
func parseObject(text string) (map[string]any, bool) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var object map[string]any
	if err := decoder.Decode(&object); err != nil || object == nil {
		return nil, false
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return object, true
}
