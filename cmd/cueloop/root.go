package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cueloop",
	Short: "Subtitle navigation companion for a streaming web player",
	Long: `CueLoop captures the timed-text subtitles a streaming web player downloads and
drives subtitle-by-subtitle navigation, looping, sentence mode and a
multi-language overlay through a small local bridge the in-page shim talks to.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
