package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// decodeSettings reads a hand-edited settings document over dst. Line and
// block comments and trailing commas are accepted; decode errors carry the
// line and column they occurred at.
func decodeSettings(content []byte, dst *Settings) error {
	plain, err := stripJSONC(string(content))
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(strings.NewReader(plain))
	if err := decoder.Decode(dst); err != nil {
		return locate(plain, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("settings document holds more than one JSON value")
		}
		return locate(plain, err)
	}
	return nil
}

// stripJSONC blanks out comments and trailing commas with spaces, so every
// byte keeps its offset.
func stripJSONC(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	var (
		inString bool
		escaped  bool
		inLine   bool
		inBlock  bool
	)
	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch {
		case inLine:
			if ch == '\n' || ch == '\r' {
				inLine = false
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
		case inBlock:
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				inBlock = false
				out.WriteString("  ")
				i++
			} else if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
		case inString:
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
		case ch == '"':
			inString = true
			out.WriteByte(ch)
		case ch == '/' && i+1 < len(content) && content[i+1] == '/':
			inLine = true
			out.WriteString("  ")
			i++
		case ch == '/' && i+1 < len(content) && content[i+1] == '*':
			inBlock = true
			out.WriteString("  ")
			i++
		case ch == ',' && closesNext(content, i+1):
			out.WriteByte(' ')
		default:
			out.WriteByte(ch)
		}
	}

	if inBlock {
		return "", errors.New("unterminated block comment in settings document")
	}
	return out.String(), nil
}

// closesNext reports whether the next significant byte from i closes an
// object or array. Comments in between are skipped.
func closesNext(content string, i int) bool {
	for i < len(content) {
		switch content[i] {
		case ' ', '\n', '\r', '\t':
			i++
		case '/':
			if i+1 >= len(content) {
				return false
			}
			switch content[i+1] {
			case '/':
				for i < len(content) && content[i] != '\n' {
					i++
				}
			case '*':
				end := strings.Index(content[i+2:], "*/")
				if end < 0 {
					return false
				}
				i += end + 4
			default:
				return false
			}
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}

func locate(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := lineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := lineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}
	return err
}

// lineCol maps a 1-based byte offset to a line and column.
func lineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
