package util

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{name}}, {{ name }} and {{$name}}.
var placeholderPattern = regexp.MustCompile(`\{\{\s*\$?([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// RenderTemplate replaces every placeholder in text with lookup(name). Names
// lookup cannot resolve render as the empty string. Text outside placeholders
// is copied verbatim.
// This lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(text string, lookup func(name string) (string, bool)) string {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text
	}

	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return ""
	})
}

// TemplateVariables returns the distinct placeholder names in text in order
// of first appearance.
func TemplateVariables(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}
