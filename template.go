package extprefs

import (
	"net/url"
	"regexp"
	"strings"
)

// placeholderRE matches %TOKEN% placeholders in URL templates such as
// subscriptions_fallbackurl or report_submiturl.
var placeholderRE = regexp.MustCompile(`%([A-Z][A-Z0-9_]*)%`)

// Placeholders returns the distinct placeholder names in tmpl, in order of first use.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRE.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Expand replaces every %NAME% in tmpl that has an entry in vars with its value,
// unescaped. Placeholders without a value are left as they are.
func Expand(tmpl string, vars map[string]string) string {
	return expand(tmpl, vars, func(s string) string { return s })
}

// ExpandURL is like Expand but escapes each value as a URI component.
func ExpandURL(tmpl string, vars map[string]string) string {
	return expand(tmpl, vars, func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	})
}

func expand(tmpl string, vars map[string]string, esc func(string) string) string {
	return placeholderRE.ReplaceAllStringFunc(tmpl, func(m string) string {
		v, ok := vars[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return esc(v)
	})
}

// SplitList splits a space-separated list value such as whitelistschemes.
func SplitList(s string) []string {
	return strings.Fields(s)
}
