package testutil

import (
	"fmt"
	"strings"
)

// CueOptions describes one <p> element of a generated timed-text document.
type CueOptions struct {
	Begin string
	End   string
	// Lines are joined with <br/>. Markup is written verbatim.
	Lines []string
	// OmitBegin leaves the begin attribute out entirely.
	OmitBegin bool
}

// TimedTextOptions contains options for generating a timed-text document.
type TimedTextOptions struct {
	// TickRate is written as ttp:tickRate on the root when set.
	TickRate string
	// BareTickRate is written as an unprefixed tickRate attribute when set.
	BareTickRate string
	// Encoding is written in the XML declaration. Defaults to UTF-8.
	Encoding string
	Cues     []CueOptions
}

// GenerateTimedTextXML generates a TTML document shaped like the ones the
// streaming CDN serves, with one <p> per cue inside body/div.
func GenerateTimedTextXML(opts TimedTextOptions) string {
	var sb strings.Builder

	encoding := opts.Encoding
	if encoding == "" {
		encoding = "UTF-8"
	}
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="%s"?>`+"\n", encoding)

	sb.WriteString(`<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttp="http://www.w3.org/ns/ttml#parameter" xmlns:tts="http://www.w3.org/ns/ttml#styling" xml:lang="en"`)
	if opts.TickRate != "" {
		fmt.Fprintf(&sb, ` ttp:tickRate="%s"`, opts.TickRate)
	}
	if opts.BareTickRate != "" {
		fmt.Fprintf(&sb, ` tickRate="%s"`, opts.BareTickRate)
	}
	sb.WriteString(">\n")
	sb.WriteString(`<head><styling><style xml:id="s1" tts:color="white"/></styling></head>` + "\n")
	sb.WriteString("<body><div>\n")

	for i, cue := range opts.Cues {
		fmt.Fprintf(&sb, `<p xml:id="subtitle%d"`, i+1)
		if !cue.OmitBegin {
			fmt.Fprintf(&sb, ` begin="%s"`, cue.Begin)
		}
		if cue.End != "" {
			fmt.Fprintf(&sb, ` end="%s"`, cue.End)
		}
		sb.WriteString(` style="s1">`)
		sb.WriteString(strings.Join(cue.Lines, "<br/>"))
		sb.WriteString("</p>\n")
	}

	sb.WriteString("</div></body>\n</tt>\n")
	return sb.String()
}

// ThreeCueTimedText is a small tick-based document with three cues at
// 1s, 2s and 3s, one second long each.
func ThreeCueTimedText() string {
	return GenerateTimedTextXML(TimedTextOptions{
		TickRate: "10000000",
		Cues: []CueOptions{
			{Begin: "10000000t", End: "20000000t", Lines: []string{"Hello there."}},
			{Begin: "20000000t", End: "30000000t", Lines: []string{"How are you?"}},
			{Begin: "30000000t", End: "40000000t", Lines: []string{"Fine, thanks."}},
		},
	})
}

// NativeCaptionHTML generates the markup the host player renders its own
// captions into.
func NativeCaptionHTML(lines ...string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="player-timedtext"><div class="player-timedtext-text-container">`)
	for _, line := range lines {
		fmt.Fprintf(&sb, `<span>%s</span>`, line)
	}
	sb.WriteString(`</div></div>`)
	return sb.String()
}
