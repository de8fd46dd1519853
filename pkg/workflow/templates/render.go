package templates

import (
	"fmt"
	"strings"
)

// TemplateContext is the read-only data snapshot used to resolve the
// tokens of one render. Nested values are nested maps.
type TemplateContext map[string]interface{}

const (
	tokenOpen  = "{{"
	tokenClose = "}}"
)

// Render substitutes {{dotted.path}} tokens in templateDef with values
// resolved from ctx. A path that cannot be resolved (missing segment,
// nil value, non-traversable intermediate) is substituted with the
// empty string. Text that is not a well-formed token passes through
// unchanged. Render has no side effects.
func Render(templateDef string, ctx TemplateContext) string {
	var sb strings.Builder
	rest := templateDef
	for {
		start := strings.Index(rest, tokenOpen)
		if start < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		sb.WriteString(rest[:start])

		end := strings.Index(rest[start+len(tokenOpen):], tokenClose)
		if end < 0 {
			// no closing braces, rest is literal text
			sb.WriteString(rest[start:])
			return sb.String()
		}
		inner := rest[start+len(tokenOpen) : start+len(tokenOpen)+end]
		if nested := strings.Index(inner, tokenOpen); nested >= 0 {
			// stray braces, emit them and re-scan from the nested open
			sb.WriteString(rest[start : start+len(tokenOpen)+nested])
			rest = rest[start+len(tokenOpen)+nested:]
			continue
		}
		path := strings.TrimSpace(inner)
		if !isValidPath(path) {
			// malformed token, keep it verbatim
			sb.WriteString(rest[start : start+len(tokenOpen)+end+len(tokenClose)])
		} else {
			sb.WriteString(resolvePath(ctx, path))
		}
		rest = rest[start+len(tokenOpen)+end+len(tokenClose):]
	}
}

func isValidPath(path string) bool {
	if path == "" {
		return false
	}
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return false
		}
		for _, r := range segment {
			isLower := r >= 'a' && r <= 'z'
			isUpper := r >= 'A' && r <= 'Z'
			isDigit := r >= '0' && r <= '9'
			if !isLower && !isUpper && !isDigit && r != '_' {
				return false
			}
		}
	}
	return true
}

func resolvePath(ctx TemplateContext, path string) string {
	var current interface{} = map[string]interface{}(ctx)
	for _, segment := range strings.Split(path, ".") {
		obj, ok := asMap(current)
		if !ok {
			return ""
		}
		current, ok = obj[segment]
		if !ok {
			return ""
		}
	}
	if current == nil {
		return ""
	}
	switch v := current.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asMap(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, true
	case TemplateContext:
		return v, true
	default:
		return nil, false
	}
}
