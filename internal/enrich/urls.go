// Package enrich turns URLs shared in chat into short context
// annotations for the model.
package enrich

import "regexp"

// URLs stop at whitespace or '>' so that Discord's <suppressed-embed>
// syntax doesn't leak into the match.
var urlRe = regexp.MustCompile(`(?i)https?://[^\s>]+`)

// ExtractURLs returns every http(s) URL in text, in order of appearance.
func ExtractURLs(text string) []string {
	return urlRe.FindAllString(text, -1)
}
