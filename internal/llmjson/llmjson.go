// Package llmjson decodes JSON payloads embedded in free-form LLM output.
//
// Models asked for JSON routinely wrap it in prose, code fences, or emit
// almost-JSON (single quotes, trailing commas). Decoding runs in explicit
// stages so failures are diagnosable: direct decode, then extraction of the
// first balanced JSON value, then a documented repair pass over the
// extracted text. Callers get a typed ParseError naming the stage that gave
// up, with the raw response preserved.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage identifies the decode stage that produced a result or error.
type Stage string

const (
	// StageDirect decodes the whole response as JSON.
	StageDirect Stage = "direct"

	// StageExtract decodes the first balanced JSON array or object found
	// in the response.
	StageExtract Stage = "extract"

	// StageRepair is the last-resort fallback: the extracted candidate is
	// rewritten (single quotes to double quotes outside strings, trailing
	// commas removed) before decoding. This mirrors the quote-swap
	// heuristic the upstream pipeline applied implicitly; here it is an
	// explicit, final stage.
	StageRepair Stage = "repair"
)

// ParseError reports that no stage could decode the response. Raw
// preserves the model output for diagnosis.
type ParseError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("llmjson: parse failed at stage %q: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Unmarshal decodes the JSON value carried in text into v, trying each
// stage in order. It returns the stage that succeeded, or a *ParseError
// carrying the last stage attempted.
func Unmarshal(text string, v any) (Stage, error) {
	trimmed := strings.TrimSpace(stripFences(text))

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return StageDirect, nil
	}

	candidate, ok := extract(trimmed)
	if !ok {
		return StageExtract, &ParseError{
			Stage: StageExtract,
			Raw:   text,
			Err:   fmt.Errorf("no JSON array or object found"),
		}
	}

	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return StageExtract, nil
	}

	repaired := repair(candidate)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return StageRepair, &ParseError{Stage: StageRepair, Raw: text, Err: err}
	}
	return StageRepair, nil
}

// stripFences removes markdown code fences around the payload.
func stripFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return text
	}
	t = strings.TrimPrefix(t, "```")
	// Drop a language tag like "json" on the fence line.
	if idx := strings.IndexByte(t, '\n'); idx >= 0 {
		first := strings.TrimSpace(t[:idx])
		if first != "" && !strings.ContainsAny(first, "{[") {
			t = t[idx+1:]
		}
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return t
}

// extract returns the first balanced JSON array or object in text.
func extract(text string) (string, bool) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", false
	}
	open := text[start]
	var close byte = ']'
	if open == '{' {
		close = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// repair rewrites common almost-JSON constructs: single-quoted strings
// become double-quoted, and trailing commas before a closing bracket are
// dropped. Quotes inside double-quoted strings are left alone.
func repair(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inDouble := false
	inSingle := false
	escaped := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		switch {
		case escaped:
			escaped = false
			b.WriteRune(ch)
		case ch == '\\':
			escaped = true
			b.WriteRune(ch)
		case inDouble:
			if ch == '"' {
				inDouble = false
			}
			b.WriteRune(ch)
		case inSingle:
			if ch == '\'' {
				inSingle = false
				b.WriteRune('"')
			} else if ch == '"' {
				// Escape embedded double quotes when converting.
				b.WriteString(`\"`)
			} else {
				b.WriteRune(ch)
			}
		case ch == '"':
			inDouble = true
			b.WriteRune(ch)
		case ch == '\'':
			inSingle = true
			b.WriteRune('"')
		case ch == ',':
			// Drop the comma if only whitespace separates it from a
			// closing bracket.
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == ']' || runes[j] == '}') {
				continue
			}
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
