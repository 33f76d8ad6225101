package logmodel

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

var (
	leadingTimestampRe = regexp.MustCompile(`^(\S+)\s*`)
	severityTokenRe    = regexp.MustCompile(`\b(DEBUG|INFO|WARN|ERROR)\b`)
)

// ParsePayload best-effort decodes a payload string of the conventional
// shape "<ISO-8601 timestamp> <opaque tokens> <JSON object>". It never
// fails: a malformed payload yields a ParsedEvent with zero-value
// fields rather than an error.
//
// Decoding tolerates one layer of doubled-quote escaping (`""` in place
// of `"`) within the embedded JSON, which is how some CSV encoders
// represent already-escaped JSON text inside a quoted field.
func ParsePayload(raw string) ParsedEvent {
	event := ParsedEvent{Fields: map[string]string{}}

	ts, rest := extractLeadingTimestamp(raw)
	event.Timestamp = ts

	jsonStart := strings.IndexByte(rest, '{')
	var tokens string
	if jsonStart < 0 {
		tokens = rest
	} else {
		tokens = rest[:jsonStart]
		obj := extractBalancedObject(rest[jsonStart:])
		if obj != "" {
			fields, ok := decodeJSONObject(obj)
			if ok {
				event.Fields = fields
			}
		}
	}

	if m := severityTokenRe.FindString(tokens); m != "" {
		event.Severity = m
	}
	event.Message = strings.TrimSpace(severityTokenRe.ReplaceAllString(tokens, ""))

	return event
}

func extractLeadingTimestamp(raw string) (*time.Time, string) {
	m := leadingTimestampRe.FindStringSubmatchIndex(raw)
	if m == nil {
		return nil, raw
	}
	candidate := raw[m[2]:m[3]]
	rest := raw[m[1]:]
	t, err := time.Parse(time.RFC3339, candidate)
	if err != nil {
		// Not a timestamp after all; leave the whole string as the rest.
		return nil, raw
	}
	return &t, rest
}

// extractBalancedObject returns the first balanced-brace JSON object
// found at the start of s, or "" if s does not start with one.
func extractBalancedObject(s string) string {
	if len(s) == 0 || s[0] != '{' {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// decodeJSONObject parses obj into a flat string map, tolerating one
// layer of doubled-quote escaping if the direct parse fails.
func decodeJSONObject(obj string) (map[string]string, bool) {
	if fields, ok := tryDecodeJSONObject(obj); ok {
		return fields, true
	}
	unescaped := strings.ReplaceAll(obj, `""`, `"`)
	if unescaped != obj {
		return tryDecodeJSONObject(unescaped)
	}
	return nil, false
}

func tryDecodeJSONObject(obj string) (map[string]string, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, false
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		fields[k] = stringifyJSONValue(v)
	}
	return fields, true
}

func stringifyJSONValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
