package config

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// SplitCommand splits a shell-style command line into argv. Single and
// double quotes group words and a backslash escapes the next rune. An empty
// line or one starting with '#' yields nil.
func SplitCommand(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	if escaped {
		return nil, fmt.Errorf("unterminated escape in command %q", line)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command %q", line)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}

// OpenCommand returns the argv from $SOUNDPP_OPEN_CMD used to open
// directories, or nil when unset.
func OpenCommand() ([]string, error) {
	argv, err := SplitCommand(os.Getenv("SOUNDPP_OPEN_CMD"))
	if err != nil {
		return nil, fmt.Errorf("SOUNDPP_OPEN_CMD: %w", err)
	}
	return argv, nil
}
