// Package commands provides the cleansight CLI.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/cleansight/internal/config"
)

var (
	// Global flags
	configFlag   string
	logLevelFlag string
	logFileFlag  string
	relayURLFlag string
	personaFlag  string

	// One-shot flags
	outputFlag string
	fileFlag   string
	imageFlag  string
	rawFlag    bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cleansight [prompt]",
	Short: "Recycling and disposal assistant backed by Gemini",
	Long: `cleansight answers questions about recycling, reuse and disposal.
Questions go through a small relay that holds the Gemini API key, so the
key never reaches the client.

Examples:
  cleansight serve                          Run the relay (needs GEMINI_API_KEY)
  cleansight chat                           Start interactive chat
  cleansight "Can I recycle pizza boxes?"   Ask a single question
  cleansight -i bottle.jpg "What is this?"  Ask about a photo
  cat photo.png | cleansight -i - "Bin?"    Read the photo from stdin
  cleansight -f question.md                 Read the question from a file
  cat question.md | cleansight              Read the question from stdin
  cleansight "Old paint" -o answer.md       Save the answer to a file`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "cleansight %s (built %s)\n", Version, BuildTime)
			return nil
		}

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), string(data))
		}

		stat, _ := os.Stdin.Stat()
		hasStdin := stat != nil && (stat.Mode()&os.ModeCharDevice) == 0
		// With "-i -" stdin carries the image, not the question
		if hasStdin && len(args) == 0 && imageFlag != stdinImage {
			data, err := io.ReadAll(deps.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), string(data))
		}

		if len(args) > 0 {
			return runQuery(cmd.Context(), cmd.OutOrStdout(), args[0])
		}

		// An image alone is a valid question
		if imageFlag != "" {
			return runQuery(cmd.Context(), cmd.OutOrStdout(), "")
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.cleansight/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&relayURLFlag, "relay-url", "", "Relay endpoint (default http://localhost:3000/api/gemini)")
	rootCmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "Persona whose preamble frames each question")

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the answer to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the question from file")
	rootCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Path to an image to include (- reads stdin)")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the answer as plain markdown")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(personaCmd)
}

// configPath returns the config file in use
func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.GetConfigPath()
}

// loadConfig reads the config file and applies the global flag overrides
func loadConfig() (config.Config, error) {
	path, err := configPath()
	if err != nil {
		return config.DefaultConfig(), err
	}

	cfg, err := config.LoadConfigFrom(path)
	if err != nil {
		return cfg, err
	}

	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if logFileFlag != "" {
		cfg.Log.File = logFileFlag
	}
	if relayURLFlag != "" {
		cfg.Client.RelayURL = relayURLFlag
	}
	if personaFlag != "" {
		cfg.Client.PreambleName = personaFlag
		cfg.Client.Preamble = ""
	}
	return cfg, nil
}
