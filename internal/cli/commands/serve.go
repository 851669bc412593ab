// Package commands implements the Atelier CLI subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/events"
	"github.com/atelierhq/atelier-api/internal/i18n"
	"github.com/atelierhq/atelier-api/internal/server"
	"github.com/atelierhq/atelier-api/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Atelier API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigFlag(cmd)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			// Standard JSON logger to stdout.
			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

			st, err := store.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			var dirs []string
			if cfg.Locales.Dir != "" {
				dirs = append(dirs, cfg.Locales.Dir)
			}
			bundle := i18n.New(logger, dirs...)

			var publisher events.Publisher = (*events.AMQPPublisher)(nil)
			if cfg.Events.URL != "" {
				amqpPub, err := events.NewAMQP(cfg.Events.URL, cfg.Events.Exchange, logger)
				if err != nil {
					// The API stays up without the broker.
					logger.Warn().Err(err).Msg("Event broker unavailable, events disabled")
				} else {
					publisher = amqpPub
				}
			}

			srv := server.New(cfg, st, bundle, publisher, logger)
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")

	return cmd
}

// applyConfigFlag routes the global --config flag to the config loader.
func applyConfigFlag(cmd *cobra.Command) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		_ = os.Setenv("ATELIER_CONFIG_PATH", path)
	}
}
