package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errNoJSONObject = errors.New("no json object in reply")
	errMissingKey   = errors.New("required key is missing")

	codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	strayFence  = regexp.MustCompile("```[a-zA-Z]*")
)

type screenReply struct {
	Selected *[]json.RawMessage `json:"selected"`
}

type rankReply struct {
	Matches *[]json.RawMessage `json:"matches"`
}

// jsonSpan marks a balanced {...} region of a reply.
type jsonSpan struct {
	start, end int
}

// ParseScreen decodes a stage-1 reply. The first {...} to last } region is tried first;
// when prose around it contains stray braces every balanced object is tried in order.
func ParseScreen(raw string) ([]int64, error) {
	candidates := make([]string, 0, 4)
	if first, last := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); first >= 0 && last > first {
		candidates = append(candidates, raw[first:last+1])
	}
	for _, span := range balancedObjects(raw) {
		candidates = append(candidates, raw[span.start:span.end])
	}
	if len(candidates) == 0 {
		return nil, malformed(StageScreen, raw, errNoJSONObject)
	}

	var lastErr error
	for _, c := range candidates {
		var reply screenReply
		if err := decodeStrict(c, &reply); err != nil {
			lastErr = err
			continue
		}
		if reply.Selected == nil {
			lastErr = fmt.Errorf("selected: %w", errMissingKey)
			continue
		}
		ids, err := coerceIDs(*reply.Selected)
		if err != nil {
			lastErr = err
			continue
		}
		return ids, nil
	}
	return nil, malformed(StageScreen, raw, lastErr)
}

// ParseRank decodes a stage-2 reply: prose followed by a trailing {"matches": [...]} object.
// The explanation is the prose before the last decodable object with fences removed.
func ParseRank(raw string) ([]int64, string, error) {
	spans := balancedObjects(raw)
	if len(spans) == 0 {
		return nil, "", malformed(StageRank, raw, errNoJSONObject)
	}

	var lastErr error
	for i := len(spans) - 1; i >= 0; i-- {
		span := spans[i]
		var reply rankReply
		if err := decodeStrict(raw[span.start:span.end], &reply); err != nil {
			lastErr = err
			continue
		}
		if reply.Matches == nil {
			lastErr = fmt.Errorf("matches: %w", errMissingKey)
			continue
		}
		ids, err := coerceIDs(*reply.Matches)
		if err != nil {
			lastErr = err
			continue
		}
		return ids, cleanExplanation(raw[:span.start]), nil
	}
	return nil, "", malformed(StageRank, raw, lastErr)
}

func decodeStrict(text string, dst any) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode reply object: %w", err)
	}
	return nil
}

// coerceIDs accepts integers, integral floats and numeric strings.
func coerceIDs(items []json.RawMessage) ([]int64, error) {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}

		var text string
		if item[0] == '"' {
			if err := json.Unmarshal(item, &text); err != nil {
				return nil, fmt.Errorf("decode id %s: %w", item, err)
			}
		} else {
			text = string(item)
		}

		id, err := parseID(strings.TrimSpace(text))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseID(text string) (int64, error) {
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("id %q is not an integer", text)
	}
	// 2^63 is exact in float64; MaxInt64 is not.
	if f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, fmt.Errorf("id %q is out of range", text)
	}
	return int64(f), nil
}

// balancedObjects returns the top-level {...} regions of text, skipping braces inside JSON strings.
func balancedObjects(text string) []jsonSpan {
	var (
		spans    []jsonSpan
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, jsonSpan{start: start, end: i + 1})
				start = -1
			}
		}
	}
	return spans
}

func cleanExplanation(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "$1")
	text = strayFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
