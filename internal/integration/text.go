package integration

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markupTags are the elements that mark a description as HTML
const markupTags = "p, br, li, ul, ol, div, span, b, i, em, strong, a, h1, h2, h3, h4, h5, h6"

// PlainText flattens a description only when it is HTML, that is when it holds at
// least one of markupTags. Anything else (stray "<" or "&" included) comes back verbatim.
func PlainText(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	body := doc.Find("body")
	if body.Find(markupTags).Length() == 0 {
		return s
	}

	body.Find("br").ReplaceWithHtml("\n")
	body.Find("p, li, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	lines := strings.Split(body.Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
