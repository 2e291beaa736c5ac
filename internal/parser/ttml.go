package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/models"
)

// CueParser extracts timed cues from TTML-style timed-text documents.
type CueParser struct{}

var _ Parser[models.Cue] = (*CueParser)(nil)

// NewCueParser creates a new timed-text cue parser.
func NewCueParser() *CueParser {
	return &CueParser{}
}

type paragraph struct {
	begin string
	end   string
	text  strings.Builder
}

// Parse reads a timed-text document and returns one cue per <p> element whose
// begin time is usable, in document order. Any XML syntax error fails the
// whole document. An empty result is reported as *apperrors.ErrNoCues.
func (p *CueParser) Parse(body io.Reader) ([]models.Cue, error) {
	decoder := xml.NewDecoder(body)
	decoder.CharsetReader = xmlCharsetReader

	tickRate := DefaultTickRate
	rootSeen := false

	var (
		paragraphs []*paragraph
		open       []*paragraph
		isPara     []bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse timed text: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if !rootSeen {
				rootSeen = true
				tickRate = rootTickRate(t.Attr)
			}
			switch {
			case t.Name.Local == "p":
				para := &paragraph{begin: plainAttr(t.Attr, "begin"), end: plainAttr(t.Attr, "end")}
				paragraphs = append(paragraphs, para)
				open = append(open, para)
			case strings.EqualFold(t.Name.Local, "br"):
				for _, para := range open {
					para.text.WriteByte('\n')
				}
			}
			isPara = append(isPara, t.Name.Local == "p")
		case xml.EndElement:
			if n := len(isPara); n > 0 {
				if isPara[n-1] {
					open = open[:len(open)-1]
				}
				isPara = isPara[:n-1]
			}
		case xml.CharData:
			for _, para := range open {
				para.text.Write(t)
			}
		}
	}

	cues := make([]models.Cue, 0, len(paragraphs))
	for _, para := range paragraphs {
		start := ParseTime(para.begin, tickRate)
		if math.IsNaN(start) {
			continue
		}
		// An end that cannot be resolved, including ticks under an unusable
		// tick rate, is stored as 0.
		end := ParseTime(para.end, tickRate)
		if math.IsNaN(end) {
			end = 0
		}
		cues = append(cues, models.Cue{
			Start: start,
			End:   end,
			Text:  para.text.String(),
		})
	}

	if len(cues) == 0 {
		return nil, &apperrors.ErrNoCues{}
	}
	return cues, nil
}

// ExtractCues parses a timed-text payload and returns its cues, or an empty
// list when the payload is malformed or carries none.
func ExtractCues(payload []byte) []models.Cue {
	cues, err := NewCueParser().Parse(bytes.NewReader(payload))
	if err != nil {
		if !errors.Is(err, &apperrors.ErrNoCues{}) {
			logger := config.GetLogger()
			logger.Debug().Err(err).Int("bytes", len(payload)).Msg("Discarding malformed timed-text payload")
		}
		return []models.Cue{}
	}
	return cues
}

// LooksLikeTimedText reports whether a response body resembles a timed-text
// document.
func LooksLikeTimedText(body []byte) bool {
	return bytes.Contains(body, []byte("<tt")) || bytes.Contains(body, []byte("<p begin="))
}

// rootTickRate reads the tick rate from the document root, preferring the
// namespaced attribute over the bare one. A declared but unusable value yields
// 0, which makes tick expressions unparseable.
func rootTickRate(attrs []xml.Attr) int {
	value := ""
	for _, attr := range attrs {
		if attr.Name.Local == "tickRate" && attr.Name.Space != "" && attr.Value != "" {
			value = attr.Value
			break
		}
	}
	if value == "" {
		value = plainAttr(attrs, "tickRate")
	}
	if value == "" {
		return DefaultTickRate
	}

	rate, ok := parseLeadingInt(value)
	if !ok || rate <= 0 || rate > math.MaxInt32 {
		return 0
	}
	return int(rate)
}

// plainAttr returns the value of an unprefixed attribute.
func plainAttr(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
