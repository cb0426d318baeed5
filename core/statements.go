package orchestration

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Statement is a speakable fragment of a response, cut at a sentence
// terminator or at the end of the stream.
type Statement struct {
	// Raw is the exact slice of the response text, surrounding whitespace
	// included. Concatenating every Raw in order rebuilds the response.
	Raw string
}

// String returns the statement as shown to the user.
func (s Statement) String() string {
	return strings.TrimSpace(s.Raw)
}

// Speech returns the statement as handed to synthesis.
func (s Statement) Speech() string {
	return speechText(s.Raw)
}

// isTerminator reports whether r ends a statement: sentence marks in their
// ASCII, full-width and ideographic forms, or a line break.
func isTerminator(r rune) bool {
	switch r {
	case '.', '?', '!', '\n', '。', '｡':
		return true
	}

	switch width.LookupRune(r).Narrow() {
	case '.', '?', '!':
		return true
	}
	return false
}

var listOrdinalPattern = regexp.MustCompile(`^[ \t]*\d{1,3}\.$`)

// isListOrdinal reports whether text[:end] ends a line holding only a list
// ordinal such as "2.".
func isListOrdinal(text string, end int) bool {
	lineStart := strings.LastIndexByte(text[:end], '\n') + 1
	return listOrdinalPattern.MatchString(text[lineStart:end])
}

// hasSpeakableContent reports whether s contains a letter or a digit.
func hasSpeakableContent(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// nextStatementEnd finds the end of the first statement in text[start:].
//
// The first terminator wins, and terminators directly following it are
// absorbed so "Really?!" stays whole. A candidate without speakable content
// is not cut on its own; scanning continues so it prefixes the next
// statement. The same holds for a list ordinal opening a line, so "1. Open
// the file." stays one item.
func nextStatementEnd(text string, start int) (int, bool) {
	for i := start; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminator(r) {
			continue
		}

		for i < len(text) {
			next, nextSize := utf8.DecodeRuneInString(text[i:])
			if !isTerminator(next) {
				break
			}
			i += nextSize
		}

		if hasSpeakableContent(text[start:i]) && !isListOrdinal(text, i) {
			return i, true
		}
	}
	return start, false
}

// splitStatements cuts every complete statement out of text[start:] and
// returns them with the offset of the remaining tail.
func splitStatements(text string, start int) ([]Statement, int) {
	var statements []Statement
	for {
		end, ok := nextStatementEnd(text, start)
		if !ok {
			return statements, start
		}
		statements = append(statements, Statement{Raw: text[start:end]})
		start = end
	}
}
