package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeObject extracts the first JSON object from a completion and
// unmarshals it into v. Models routinely wrap JSON in prose or code
// fences; this tolerates both. Returns an error wrapping
// [ErrMalformed] when no decodable object is found, so callers can
// branch to their deterministic fallback.
func DecodeObject(raw string, v any) error {
	obj := extractObject(raw)
	if obj == "" {
		return fmt.Errorf("%w: no JSON object in %d bytes of output", ErrMalformed, len(raw))
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// DecodeObjectOrdered is DecodeObject plus the object's top-level
// keys in their original order. encoding/json loses key order through
// maps, but some callers treat the order the model emitted fields in
// as meaningful.
func DecodeObjectOrdered(raw string, v any) ([]string, error) {
	obj := extractObject(raw)
	if obj == "" {
		return nil, fmt.Errorf("%w: no JSON object in %d bytes of output", ErrMalformed, len(raw))
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key %v", ErrMalformed, tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// extractObject returns the first balanced {...} span in s, honoring
// string literals and escapes, or "" when none exists.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
