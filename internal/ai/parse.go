package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"binance-trading-bot/internal/apperr"
)

var codeBlockPattern = regexp.MustCompile(`(?s)^` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```" + `$`)

// stripMarkdownCodeBlock removes a wrapping ```json / ``` fence that
// chat models routinely add around otherwise-valid JSON.
func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)
	if matches := codeBlockPattern.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return response
}

// ParseVerdict unmarshals a model completion into v, trying the raw
// text first and falling back to stripping a markdown code fence
// before giving up with AI_PARSE_ERROR.
func ParseVerdict(raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	stripped := stripMarkdownCodeBlock(raw)
	if err := json.Unmarshal([]byte(stripped), v); err != nil {
		return apperr.Wrap(apperr.ParseError, "AI_PARSE_ERROR", "model response was not valid JSON", err)
	}
	return nil
}
