package templates

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// PlainTextToHTML converts a rendered plain-text body into the HTML
// form the email transport expects: special characters escaped first,
// then each line separated by a line break.
func PlainTextToHTML(text string) string {
	escaped := htmlEscaper.Replace(text)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br />")
}

// HighlightTokens wraps well-formed {{dotted.path}} tokens in a span so
// an authoring UI can display them. Cosmetic only, substitution
// semantics live in Render.
func HighlightTokens(templateDef string) string {
	var sb strings.Builder
	rest := templateDef
	for {
		start := strings.Index(rest, tokenOpen)
		if start < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		end := strings.Index(rest[start+len(tokenOpen):], tokenClose)
		if end < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		token := rest[start : start+len(tokenOpen)+end+len(tokenClose)]
		sb.WriteString(rest[:start])
		if isValidPath(strings.TrimSpace(rest[start+len(tokenOpen) : start+len(tokenOpen)+end])) {
			sb.WriteString(`<span class="template-token">` + token + `</span>`)
		} else {
			sb.WriteString(token)
		}
		rest = rest[start+len(tokenOpen)+end+len(tokenClose):]
	}
}
