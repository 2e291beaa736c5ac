// Package transcript renders every intercepted subtitle batch as one
// tab-separated table with a column per language.
package transcript

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Belphemur/CueLoop/internal/models"
)

// Transcript is a rendered export.
type Transcript struct {
	TSV       string
	Rows      int
	Languages []string
}

type row struct {
	start float64
	end   float64
	texts map[string]string
}

var flatten = strings.NewReplacer("\n", " ", "\t", " ")

// Build merges batches into rows keyed by cue timing. When two batches of the
// same language share a timing, the later batch wins. Rows are sorted by start
// time, keeping first-seen order on ties; language columns are sorted.
func Build(batches []models.Batch) Transcript {
	var (
		order []string
		rows  = map[string]*row{}
		langs = map[string]struct{}{}
	)

	for _, b := range batches {
		lang := b.Language
		if lang == "" {
			lang = models.UnknownLanguage
		}
		langs[lang] = struct{}{}

		for _, cue := range b.Cues {
			key := fmt.Sprintf("%.3f-%.3f", cue.Start, cue.End)
			r, ok := rows[key]
			if !ok {
				r = &row{start: cue.Start, end: cue.End, texts: map[string]string{}}
				rows[key] = r
				order = append(order, key)
			}
			r.texts[lang] = flatten.Replace(cue.Text)
		}
	}

	sortedLangs := make([]string, 0, len(langs))
	for lang := range langs {
		sortedLangs = append(sortedLangs, lang)
	}
	sort.Strings(sortedLangs)

	entries := make([]*row, len(order))
	for i, key := range order {
		entries[i] = rows[key]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].start < entries[j].start
	})

	var sb strings.Builder
	sb.WriteString("Start\tEnd\t")
	sb.WriteString(strings.Join(sortedLangs, "\t"))
	sb.WriteByte('\n')
	for _, e := range entries {
		fields := make([]string, 0, len(sortedLangs)+2)
		fields = append(fields, FormatTimestamp(e.start), FormatTimestamp(e.end))
		for _, lang := range sortedLangs {
			fields = append(fields, e.texts[lang])
		}
		sb.WriteString(strings.Join(fields, "\t"))
		sb.WriteByte('\n')
	}

	return Transcript{TSV: sb.String(), Rows: len(entries), Languages: sortedLangs}
}

// FormatTimestamp renders milliseconds as HH:MM:SS.mmm, rounded to the
// nearest millisecond.
func FormatTimestamp(ms float64) string {
	total := int64(math.Round(ms))
	hours := total / 3_600_000
	minutes := total % 3_600_000 / 60_000
	seconds := total % 60_000 / 1000
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// Summary is the confirmation shown after a successful export.
func (t Transcript) Summary() string {
	return fmt.Sprintf("Copied %d subtitles\nLanguages: %s", t.Rows, strings.Join(t.Languages, ", "))
}
