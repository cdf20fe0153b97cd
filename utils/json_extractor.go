package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONFound is returned when no valid JSON object/array is found in the input
var ErrNoJSONFound = errors.New("no valid JSON object or array found in response")

var markdownBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// ExtractJSON extracts and validates JSON from LLM responses that may contain
// markdown code fences or stray text around the payload.
func ExtractJSON(response string) (string, error) {
	if response == "" {
		return "", ErrNoJSONFound
	}

	cleaned := extractFromMarkdown(response)

	if jsonStr := extractJSONByBrackets(cleaned); jsonStr != "" && json.Valid([]byte(jsonStr)) {
		return jsonStr, nil
	}

	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	// Last resort: widest span between the first opening and last closing bracket
	if jsonStr := aggressiveExtract(response); jsonStr != "" && json.Valid([]byte(jsonStr)) {
		return jsonStr, nil
	}

	return "", fmt.Errorf("%w: response length=%d", ErrNoJSONFound, len(response))
}

// ExtractJSONTo extracts JSON from response and unmarshals it into the target
func ExtractJSONTo(response string, target interface{}) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(jsonStr), target)
}

// extractFromMarkdown removes markdown code block formatting
func extractFromMarkdown(s string) string {
	s = strings.TrimSpace(s)

	if matches := markdownBlockRe.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// extractJSONByBrackets uses bracket matching to find the first complete JSON value
func extractJSONByBrackets(s string) string {
	startObj := strings.Index(s, "{")
	startArr := strings.Index(s, "[")

	var start int
	var openChar, closeChar byte

	switch {
	case startObj == -1 && startArr == -1:
		return ""
	case startArr == -1 || (startObj != -1 && startObj < startArr):
		start, openChar, closeChar = startObj, '{', '}'
	default:
		start, openChar, closeChar = startArr, '[', ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == openChar:
			depth++
		case ch == closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// aggressiveExtract grabs from the first opening bracket to the last closing one
func aggressiveExtract(s string) string {
	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
