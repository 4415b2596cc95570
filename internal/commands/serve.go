package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/cleansight/internal/logging"
	"github.com/diogo/cleansight/internal/relay"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay that holds the Gemini API key",
	Long: `Run the HTTP relay. It accepts POST /api/gemini with a Gemini
generateContent body, adds the API key and returns {"reply": "..."}.

The key is read from GEMINI_API_KEY (or relay.api_key in the config file)
and never leaves the relay.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default localhost:3000)")
}

// runServe serves until ctx is cancelled
func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addrFlag != "" {
		cfg.Relay.Addr = addrFlag
	}
	if err := cfg.Relay.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	gen, err := deps.NewUpstream(cfg.Relay)
	if err != nil {
		return fmt.Errorf("failed to create provider client: %w", err)
	}
	if c, ok := gen.(interface{ Close() }); ok {
		defer c.Close()
	}

	logger.Info().
		Str("model", cfg.Relay.Model).
		Dur("timeout", cfg.Relay.Timeout()).
		Int64("max_body_bytes", cfg.Relay.MaxBodyBytes).
		Msg("starting relay")

	return relay.NewServer(cfg.Relay, gen, logger).ListenAndServe(ctx)
}
