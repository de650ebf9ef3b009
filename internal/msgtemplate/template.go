// ABOUTME: Placeholder expansion for user-editable emergency message templates
// ABOUTME: Replaces [NAME], [LOCATION], and [TIME] tokens and never fails

// Package msgtemplate expands the bracketed placeholder tokens of an
// emergency message template.
package msgtemplate

import "strings"

// Recognized placeholder tokens.
const (
	TokenName     = "[NAME]"
	TokenLocation = "[LOCATION]"
	TokenTime     = "[TIME]"
)

// Tokens lists the placeholders in the order a template editor offers them.
var Tokens = []string{TokenLocation, TokenTime, TokenName}

// Vars holds the live values substituted into a template.
type Vars struct {
	Name     string
	Location string
	Time     string
}

// Apply replaces every occurrence of each recognized token in tmpl with its
// value. Bracketed sequences outside the recognized set are left untouched.
func Apply(tmpl string, vars Vars) string {
	if tmpl == "" {
		return ""
	}
	r := strings.NewReplacer(
		TokenName, vars.Name,
		TokenLocation, vars.Location,
		TokenTime, vars.Time,
	)
	return r.Replace(tmpl)
}

// InsertAt replaces text[start:end] with insert, clamping both bounds into
// the text. Offsets are byte offsets.
func InsertAt(text, insert string, start, end int) string {
	start = clamp(start, 0, len(text))
	end = clamp(end, 0, len(text))
	if end < start {
		end = start
	}
	return text[:start] + insert + text[end:]
}

func clamp(n, lo, hi int) int {
	return max(lo, min(hi, n))
}
