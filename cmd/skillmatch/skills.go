package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skillmatch/internal/app"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Print the skill vocabulary, one term per line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vocab, err := app.LoadVocabulary(cfg.Matching)
		if err != nil {
			return err
		}
		for _, term := range vocab.Terms() {
			fmt.Fprintln(cmd.OutOrStdout(), term)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)
}
