package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"aivideo/config"
)

var (
	// Global flags
	envFile      string
	formatOutput string
)

var rootCmd = &cobra.Command{
	Use:   "aivideo",
	Short: "AI video generation service",
	Long: `aivideo - generate videos from text, image and video prompts through a
hosted multimodal model, and keep a local history of the results.

Configuration is read from the environment, optionally seeded from a .env
file (see --env).

Examples:
  # Run the HTTP service
  aivideo serve

  # Generate from the command line
  aivideo generate "A cat on a skateboard" --duration 12
  aivideo generate "animate this" --media photo.png

  # Inspect history
  aivideo history list --sort oldest
  aivideo history delete video_1700000000000_abc123xyz`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVarP(&formatOutput, "output", "o", "text", "output format: text, json or yaml")
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		return config.LoadConfig(envFile)
	}
	return config.LoadConfig()
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
