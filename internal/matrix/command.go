// Where: internal/matrix/command.go
// What: Command line splitting.
// Why: Command values become argv vectors after substitution; quoting must survive.
package matrix

import (
	"fmt"
	"strings"
)

// SplitCommand splits a substituted command line into argv words.
// Single and double quotes group words; a backslash escapes the next
// character outside single quotes. There is no expansion here: commands
// run via exec, not a shell.
func SplitCommand(line string) ([]string, error) {
	var words []string
	var current strings.Builder
	inWord := false

	flush := func() {
		if inWord {
			words = append(words, current.String())
			current.Reset()
			inWord = false
		}
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch ch {
		case ' ', '\t':
			flush()
		case '\'':
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated single quote in command %q", line)
			}
			current.WriteString(line[i+1 : i+1+end])
			inWord = true
			i += end + 1
		case '"':
			chunk, consumed, err := readDoubleQuoted(line[i+1:])
			if err != nil {
				return nil, fmt.Errorf("%w in command %q", err, line)
			}
			current.WriteString(chunk)
			inWord = true
			i += consumed + 1
		case '\\':
			if i+1 >= len(line) {
				return nil, fmt.Errorf("trailing backslash in command %q", line)
			}
			current.WriteByte(line[i+1])
			inWord = true
			i++
		default:
			current.WriteByte(ch)
			inWord = true
		}
	}
	flush()
	return words, nil
}

func readDoubleQuoted(s string) (chunk string, consumed int, err error) {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return out.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("unterminated double quote")
			}
			out.WriteByte(s[i+1])
			i++
		default:
			out.WriteByte(s[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated double quote")
}
