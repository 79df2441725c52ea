// Package wikitext extracts internal links from MediaWiki markup.
package wikitext

import (
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)

// ExtractLinks maps the visible text of every internal link to its target
// title. [[Title]] maps Title to itself and [[Title|text]] maps text to
// Title. Links with more than one pipe are skipped; a later link with the
// same text replaces an earlier one.
func ExtractLinks(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range linkPattern.FindAllStringSubmatch(text, -1) {
		parts := strings.Split(m[1], "|")
		switch len(parts) {
		case 1:
			out[parts[0]] = parts[0]
		case 2:
			out[parts[1]] = parts[0]
		}
	}
	return out
}
