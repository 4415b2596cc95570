package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/conversation"
	"github.com/diogo/cleansight/internal/history"
	"github.com/diogo/cleansight/internal/logging"
	"github.com/diogo/cleansight/internal/render"
	"github.com/diogo/cleansight/internal/tui"
)

var chatImageDirFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat with the CleanSight assistant.

The last turns of the conversation are sent with every question so
follow-ups keep their context. Nothing is saved unless you run /export.

Commands inside the chat:
  /image <path>    attach a photo to the next question
  /persona [name]  switch persona
  /copy            copy the last answer
  /export <file>   save the conversation (.md or .json)
  /clear           start over
  /quit            leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatImageDirFlag, "image-dir", ".", "Directory listed by /image")
}

func runChat() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logs never go to the terminal while the alternate screen is up
	logger, closer, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	manager, personaName, err := newManager(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.TUITheme != "" && !render.SetTUITheme(cfg.TUITheme) {
		fmt.Fprintf(os.Stderr, "Warning: unknown tui_theme '%s' (available: %s), using default\n",
			cfg.TUITheme, strings.Join(render.TUIThemeNames(), ", "))
	}
	tui.UpdateTheme()

	export := history.DefaultExportOptions()
	export.Model = cfg.Relay.Model

	return deps.RunChat(manager, tui.ChatOptions{
		RelayURL:    cfg.Client.RelayURL,
		PersonaName: personaName,
		Personas:    config.DefaultPersonas(),
		Render:      render.OptionsFromConfig(cfg.Markdown),
		Export:      export,
		ImageDir:    chatImageDirFlag,
	})
}

// newManager validates the client settings and builds a conversation that
// talks to the relay. The returned name describes the preamble in use.
func newManager(cfg config.Config, logger zerolog.Logger) (*conversation.Manager, string, error) {
	if err := cfg.Client.Validate(); err != nil {
		return nil, "", err
	}

	preamble, err := config.ResolvePreamble(cfg.Client)
	if err != nil {
		return nil, "", err
	}
	personaName := cfg.Client.PreambleName
	if strings.TrimSpace(cfg.Client.Preamble) != "" {
		personaName = "custom"
	} else if personaName == "" {
		personaName = config.DefaultPreambleName
	}

	gen, err := deps.NewGenerator(cfg.Client)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create relay client: %w", err)
	}

	manager := conversation.NewManager(gen,
		conversation.WithPreamble(preamble),
		conversation.WithWindowSize(cfg.Client.WindowSize),
		conversation.WithTimeout(cfg.Client.Timeout()),
		conversation.WithGenerationConfig(cfg.Client.GenerationConfig()),
		conversation.WithLogger(logger),
	)
	return manager, personaName, nil
}
