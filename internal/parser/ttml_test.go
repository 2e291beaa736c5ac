package parser

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/testutil"
)

func TestCueParser_Parse_ThreeParagraphs(t *testing.T) {
	t.Parallel()
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		TickRate: "10000",
		Cues: []testutil.CueOptions{
			{Begin: "10000t", End: "20000t", Lines: []string{"First line"}},
			{Begin: "20000t", End: "30000t", Lines: []string{"Second line"}},
			{Begin: "30000t", End: "40000t", Lines: []string{"Third line"}},
		},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 3 {
		t.Fatalf("Expected 3 cues, got %d", len(cues))
	}

	first := cues[0]
	if first.Start != 1000 || first.End != 2000 {
		t.Errorf("Expected first cue {1000, 2000}, got {%v, %v}", first.Start, first.End)
	}
	if first.Text != "First line" {
		t.Errorf("Expected first cue text %q, got %q", "First line", first.Text)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start <= cues[i-1].Start {
			t.Errorf("Cues out of document order at %d: %v after %v", i, cues[i].Start, cues[i-1].Start)
		}
	}
}

func TestCueParser_Parse_LineBreaksAndNestedSpans(t *testing.T) {
	t.Parallel()
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		Cues: []testutil.CueOptions{
			{Begin: "0t", End: "10000t", Lines: []string{
				`<span tts:fontStyle="italic">Where</span> are you?`,
				"Over <span>here, <span>look</span></span>!",
			}},
		},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expected := "Where are you?\nOver here, look!"
	if cues[0].Text != expected {
		t.Errorf("Expected text %q, got %q", expected, cues[0].Text)
	}
}

func TestCueParser_Parse_TickRate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		opts          testutil.TimedTextOptions
		expectedStart float64
	}{
		{
			name:          "default tick rate",
			opts:          testutil.TimedTextOptions{},
			expectedStart: 1000,
		},
		{
			name:          "namespaced attribute",
			opts:          testutil.TimedTextOptions{TickRate: "1000"},
			expectedStart: 10000,
		},
		{
			name:          "bare attribute",
			opts:          testutil.TimedTextOptions{BareTickRate: "20000"},
			expectedStart: 500,
		},
		{
			name:          "namespaced attribute wins",
			opts:          testutil.TimedTextOptions{TickRate: "1000", BareTickRate: "20000"},
			expectedStart: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.opts.Cues = []testutil.CueOptions{{Begin: "10000t", End: "20000t", Lines: []string{"x"}}}
			cues, err := NewCueParser().Parse(strings.NewReader(testutil.GenerateTimedTextXML(tt.opts)))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if cues[0].Start != tt.expectedStart {
				t.Errorf("Expected start %v, got %v", tt.expectedStart, cues[0].Start)
			}
		})
	}
}

func TestCueParser_Parse_InvalidTickRateDropsTickCues(t *testing.T) {
	t.Parallel()
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		TickRate: "fast",
		Cues: []testutil.CueOptions{
			{Begin: "10000t", End: "20000t", Lines: []string{"tick based"}},
			{Begin: "00:00:03.000", End: "00:00:04.000", Lines: []string{"clock based"}},
		},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 1 {
		t.Fatalf("Expected 1 cue, got %d", len(cues))
	}
	if cues[0].Text != "clock based" || cues[0].Start != 3000 {
		t.Errorf("Unexpected surviving cue: %+v", cues[0])
	}
}

// A missing or garbage end becomes 0, which yields a negative-duration cue.
// This is kept as-is; 0 is ambiguous between a real zero and a parse failure.
func TestCueParser_Parse_GarbageEndIsZero(t *testing.T) {
	t.Parallel()
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		Cues: []testutil.CueOptions{
			{Begin: "50000t", End: "garbage", Lines: []string{"bad end"}},
			{Begin: "60000t", Lines: []string{"no end"}},
		},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, cue := range cues {
		if cue.End != 0 {
			t.Errorf("Expected end 0 for %q, got %v", cue.Text, cue.End)
		}
		if cue.End >= cue.Start {
			t.Errorf("Expected negative duration for %q", cue.Text)
		}
	}
}

func TestCueParser_Parse_TickEndUnderUnusableRateIsZero(t *testing.T) {
	t.Parallel()
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		TickRate: "0",
		Cues: []testutil.CueOptions{
			{Begin: "00:00:01.000", End: "20000t", Lines: []string{"mixed units"}},
		},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 1 {
		t.Fatalf("Expected 1 cue, got %d", len(cues))
	}
	if cues[0].Start != 1000 {
		t.Errorf("Expected start 1000, got %v", cues[0].Start)
	}
	if math.IsNaN(cues[0].End) || cues[0].End != 0 {
		t.Errorf("Expected end 0, got %v", cues[0].End)
	}
	if _, err := json.Marshal(cues); err != nil {
		t.Errorf("Expected cues to marshal, got %v", err)
	}
}

func TestCueParser_Parse_MissingBeginIsZero(t *testing.T) {
	t.Parallel()
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		Cues: []testutil.CueOptions{{OmitBegin: true, End: "10000t", Lines: []string{"untimed"}}},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cues[0].Start != 0 {
		t.Errorf("Expected start 0, got %v", cues[0].Start)
	}
}

func TestCueParser_Parse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		wantNoCue bool
	}{
		{"empty input", "", true},
		{"no paragraphs", `<tt><body><div></div></body></tt>`, true},
		{"malformed markup", `<tt><body><p begin="1t">unclosed</body></tt>`, false},
		{"html entity", `<tt><body><p begin="1t">a&nbsp;b</p></body></tt>`, false},
		{"not markup at all", `{"cues": []}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cues, err := NewCueParser().Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("Expected error, got %d cues", len(cues))
			}
			if got := errors.Is(err, &apperrors.ErrNoCues{}); got != tt.wantNoCue {
				t.Errorf("errors.Is(err, ErrNoCues) = %v, want %v (err: %v)", got, tt.wantNoCue, err)
			}
		})
	}
}

func TestCueParser_Parse_DeclaredLegacyEncoding(t *testing.T) {
	t.Parallel()
	// "Café" with é encoded as 0xE9 in ISO-8859-1.
	doc := testutil.GenerateTimedTextXML(testutil.TimedTextOptions{
		Encoding: "ISO-8859-1",
		Cues:     []testutil.CueOptions{{Begin: "0t", End: "10000t", Lines: []string{"Caf\xe9"}}},
	})

	cues, err := NewCueParser().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cues[0].Text != "Café" {
		t.Errorf("Expected %q, got %q", "Café", cues[0].Text)
	}
}

func TestExtractCues(t *testing.T) {
	t.Parallel()

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()
		cues := ExtractCues([]byte(testutil.ThreeCueTimedText()))
		if len(cues) != 3 {
			t.Fatalf("Expected 3 cues, got %d", len(cues))
		}
		if cues[2].Start != 3000 || cues[2].End != 4000 {
			t.Errorf("Unexpected third cue: %+v", cues[2])
		}
	})

	t.Run("malformed payload yields empty", func(t *testing.T) {
		t.Parallel()
		cues := ExtractCues([]byte("<tt><p begin='1t'>"))
		if cues == nil || len(cues) != 0 {
			t.Errorf("Expected empty non-nil slice, got %#v", cues)
		}
	})
}

func TestLooksLikeTimedText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		body     string
		expected bool
	}{
		{testutil.ThreeCueTimedText(), true},
		{`<p begin="1t">x</p>`, true},
		{`{"status":"ok"}`, false},
		{`<html><body><p class="x">hi</p></body></html>`, false},
	}
	for _, tt := range tests {
		if got := LooksLikeTimedText([]byte(tt.body)); got != tt.expected {
			t.Errorf("LooksLikeTimedText(%.30q) = %v, want %v", tt.body, got, tt.expected)
		}
	}
}
