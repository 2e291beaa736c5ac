package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultNativeTextSelector matches the spans the host player renders its own
// caption text into.
const DefaultNativeTextSelector = ".player-timedtext-text-container span"

// NativeText returns the caption text currently rendered by the host player,
// read from an HTML snapshot of its caption container. Each matched span
// contributes its text followed by a single space.
func NativeText(html string) (string, error) {
	return NativeTextWithSelector(html, DefaultNativeTextSelector)
}

// NativeTextWithSelector is NativeText with a custom CSS selector.
func NativeTextWithSelector(html, selector string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	reader, err := NewUTF8Reader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
		sb.WriteByte(' ')
	})
	return sb.String(), nil
}
