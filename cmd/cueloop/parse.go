package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/language"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/parser"
	"github.com/Belphemur/CueLoop/internal/transcript"
)

var (
	parseSourceURL  string
	parseActiveLang string
	parseTSV        bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <timed-text-file>",
	Short: "Extract the cues of a saved timed-text payload",
	Long: `Parse a timed-text (TTML) payload saved from the player's network traffic and
print its cues together with the language the pipeline would label it with.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd.OutOrStdout(), args[0], parseOptions{
			SourceURL:  parseSourceURL,
			ActiveLang: parseActiveLang,
			TSV:        parseTSV,
		})
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseSourceURL, "url", "", "URL the payload was downloaded from (language hints)")
	parseCmd.Flags().StringVar(&parseActiveLang, "active-lang", "", "language of the host's active subtitle track")
	parseCmd.Flags().BoolVar(&parseTSV, "tsv", false, "print a tab-separated transcript instead of cue lines")

	rootCmd.AddCommand(parseCmd)
}

type parseOptions struct {
	SourceURL  string
	ActiveLang string
	TSV        bool
}

func runParse(w io.Writer, path string, opts parseOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cues, err := parser.NewCueParser().Parse(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, &apperrors.ErrNoCues{}) {
			return &apperrors.ErrNoCues{Source: path}
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}

	var active *models.Track
	if opts.ActiveLang != "" {
		active = &models.Track{BCP47: opts.ActiveLang}
	}
	lang := language.Resolve(opts.SourceURL, active)

	fmt.Fprintf(w, "language: %s\n", lang)
	if guess, ok := language.Guess(cues); ok {
		fmt.Fprintf(w, "detected: %s (%s)\n", guess, language.DisplayName(guess))
	}
	fmt.Fprintf(w, "cues: %d\n\n", len(cues))

	if opts.TSV {
		tr := transcript.Build([]models.Batch{{Language: lang, Cues: cues}})
		_, err := io.WriteString(w, tr.TSV)
		return err
	}
	for _, cue := range cues {
		fmt.Fprintf(w, "%s --> %s %s\n",
			transcript.FormatTimestamp(cue.Start),
			transcript.FormatTimestamp(cue.End),
			strings.ReplaceAll(cue.Text, "\n", " / "))
	}
	return nil
}
