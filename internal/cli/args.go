package cli

import (
	"errors"
	"strings"
	"unicode"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// parseLine splits a shell line into commands separated by ';' and each
// command into whitespace-separated words. Double quotes group words and
// backslash escapes a character inside quotes.
func parseLine(line string) ([][]string, error) {
	var (
		commands [][]string
		words    []string
		word     strings.Builder
		inWord   bool
		quoted   bool
		escaped  bool
	)

	endWord := func() {
		if inWord {
			words = append(words, word.String())
			word.Reset()
			inWord = false
		}
	}
	endCommand := func() {
		endWord()
		if len(words) > 0 {
			commands = append(commands, words)
			words = nil
		}
	}

	for _, r := range line {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
			inWord = true
		case quoted:
			word.WriteRune(r)
		case r == ';':
			endCommand()
		case unicode.IsSpace(r):
			endWord()
		default:
			word.WriteRune(r)
			inWord = true
		}
	}
	if quoted || escaped {
		return nil, errUnterminatedQuote
	}
	endCommand()

	return commands, nil
}

// oneShotLine rebuilds a shell line from process arguments. A single argument
// is taken as a whole line, so "add 1; report" works when quoted by the shell.
// With several arguments each one stays a literal word and only a bare ";"
// separates commands.
func oneShotLine(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = quoteWord(a)
	}
	return strings.Join(parts, " ")
}

func quoteWord(w string) string {
	if w == ";" || (w != "" && !strings.ContainsAny(w, " \t\"\\;")) {
		return w
	}
	w = strings.ReplaceAll(w, `\`, `\\`)
	w = strings.ReplaceAll(w, `"`, `\"`)
	return `"` + w + `"`
}
