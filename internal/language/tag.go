// Package language derives canonical BCP-47-style tags for subtitle batches
// from request URLs, host track metadata and, as a diagnostic, cue text.
package language

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Belphemur/CueLoop/internal/models"
)

var (
	tagShape    = regexp.MustCompile(`^[A-Za-z]{2,3}(?:-[A-Za-z0-9]{2,8})*$`)
	pathTag     = regexp.MustCompile(`/([A-Za-z]{2,3}(?:[-_][A-Za-z0-9]{2,8})*)/`)
	queryTag    = regexp.MustCompile(`[?&](?:lang|bcp47|language|locale)=([^&]+)`)
	threeDigits = regexp.MustCompile(`^[0-9]{3}$`)
)

// queryParams are the query parameters that may carry a language, in
// priority order.
var queryParams = []string{"lang", "bcp47", "language", "locale"}

// Canonicalize validates a language tag against the loose shape
// "2-3 letters, then any number of 2-8 alphanumeric subtags" and normalizes
// subtag casing: language lower, script title, region upper, rest lower.
// Underscores are accepted as separators.
func Canonicalize(tag string) (string, bool) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if !tagShape.MatchString(tag) {
		return "", false
	}

	subtags := strings.Split(tag, "-")
	for i, sub := range subtags {
		switch {
		case i == 0:
			subtags[i] = strings.ToLower(sub)
		case len(sub) == 4:
			subtags[i] = strings.ToUpper(sub[:1]) + strings.ToLower(sub[1:])
		case len(sub) == 2 || threeDigits.MatchString(sub):
			subtags[i] = strings.ToUpper(sub)
		default:
			subtags[i] = strings.ToLower(sub)
		}
	}
	return strings.Join(subtags, "-"), true
}

// NormalizeToken turns a raw URL fragment into a canonical tag. It
// percent-decodes the token, maps "_" to "-", strips a trailing ".xml" and
// keeps only the first entry of a comma-separated list.
func NormalizeToken(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	token := raw
	if decoded, err := url.PathUnescape(raw); err == nil {
		token = decoded
	}
	token = strings.ReplaceAll(token, "_", "-")
	if n := len(token); n >= 4 && strings.EqualFold(token[n-4:], ".xml") {
		token = token[:n-4]
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if first, _, found := strings.Cut(token, ","); found {
		token = strings.TrimSpace(first)
	}
	return Canonicalize(token)
}

// FromURL extracts a language tag from a subtitle request URL. Query
// parameters are tried first, then the first path segment shaped like a tag,
// then a raw scan of the query string. Relative URLs are accepted.
func FromURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		query := parsed.Query()
		for _, key := range queryParams {
			if value := query.Get(key); value != "" {
				if tag, ok := NormalizeToken(value); ok {
					return tag, true
				}
				break
			}
		}

		if m := pathTag.FindStringSubmatch(parsed.Path); m != nil {
			if tag, ok := NormalizeToken(m[1]); ok {
				return tag, true
			}
		}
	}

	for _, m := range queryTag.FindAllStringSubmatch(rawURL, -1) {
		if tag, ok := NormalizeToken(m[1]); ok {
			return tag, true
		}
	}
	return "", false
}

// Resolve picks the language for an incoming batch: the URL first, then the
// host's active track unless it is off, else models.UnknownLanguage.
func Resolve(rawURL string, active *models.Track) string {
	if tag, ok := FromURL(rawURL); ok {
		return tag
	}
	if active != nil && !active.IsOff() {
		if tag, ok := Canonicalize(active.BCP47); ok {
			return tag
		}
	}
	return models.UnknownLanguage
}
