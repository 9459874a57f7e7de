// Command skillmatch runs resume matching locally and manages the database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"skillmatch/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "skillmatch",
	Short:         "Resume to job description matching",
	Long:          "skillmatch scores a resume against a job description using TF-IDF text similarity and skill keyword coverage.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml); environment variables override it")
}

func loadConfig() (config.Config, error) {
	return config.LoadCLI(configFile)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
