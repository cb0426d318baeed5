package orchestration

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	codeFencePattern  = regexp.MustCompile("```[\\w+-]*")
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headerPattern     = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]*`)
	blockquotePattern = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rulePattern       = regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`)
	bulletPattern     = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedPattern   = regexp.MustCompile(`(?m)^[ \t]*\d{1,3}[.)][ \t]+`)
	underscorePattern = regexp.MustCompile(`(^|[^\pL\pN_])_{1,2}([^_\n]+?)_{1,2}([^\pL\pN_]|$)`)
	htmlTagPattern    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	emphasisReplacer = strings.NewReplacer("***", "", "**", "", "*", "", "~~", "", "`", "", "|", " ")
)

// stripMarkdown reduces markdown to the plain text a listener should hear.
// Links and images keep their label.
func stripMarkdown(text string) string {
	text = codeFencePattern.ReplaceAllString(text, "")
	text = imagePattern.ReplaceAllString(text, "$1")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = rulePattern.ReplaceAllString(text, "")
	text = headerPattern.ReplaceAllString(text, "")
	text = blockquotePattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = numberedPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = underscorePattern.ReplaceAllString(text, "$1$2$3")
	return emphasisReplacer.Replace(text)
}

// speechText projects a raw statement to its spoken form.
func speechText(raw string) string {
	text := whitespacePattern.ReplaceAllString(stripMarkdown(raw), " ")
	text = strings.TrimLeftFunc(text, func(r rune) bool {
		return isTerminator(r) || unicode.IsSpace(r)
	})
	return strings.TrimSpace(text)
}
