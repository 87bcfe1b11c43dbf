package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrNotObject is returned when the reply parses but is not a JSON object.
var ErrNotObject = errors.New("extraction result is not a JSON object")

var trailingComma = regexp.MustCompile(`,[\s\n]*}[\s\n]*$`)

// Repair patches the two quirks seen in model replies: a trailing comma before
// the final closing brace, and a literal \xa0 escape (which is not valid JSON).
func Repair(raw string) string {
	s := trailingComma.ReplaceAllString(raw, "\n}\n")
	return strings.ReplaceAll(s, `\xa0`, " ")
}

// Parse repairs raw and decodes it as a single JSON object. Raw control
// characters inside strings are tolerated; numbers are kept as json.Number.
func Parse(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(escapeControlChars(Repair(raw))))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode extraction result: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode extraction result: extra data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
	return obj, nil
}

// Normalize drops null values and keys starting with "_". The underscore keys
// only steer the model and are never stored.
func Normalize(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil || strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// escapeControlChars rewrites bytes below 0x20 that appear inside string
// literals as \u escapes, leaving everything outside strings untouched.
func escapeControlChars(s string) string {
	var buf bytes.Buffer
	buf.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case !inString:
			if c == '"' {
				inString = true
			}
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = false
		case c < 0x20:
			fmt.Fprintf(&buf, `\u%04x`, c)
			continue
		}
		buf.WriteByte(c)
	}
	return buf.String()
}
