package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/thereayou/roomchat/internal/config"
	"github.com/thereayou/roomchat/internal/database"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "roomchat",
		Short:        "Multi-room chat server",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().Bool("debug", false, "human readable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db := &database.Database{}
			if err := db.Connect(cfg.DatabaseURL); err != nil {
				return err
			}
			if err := db.Migrate(); err != nil {
				return err
			}
			log.Info().Str("module", "migrate").Msg("schema up to date")
			return nil
		},
	})

	return root
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to start server")
		return err
	}

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}
	log.Info().Msg("server exited gracefully")
	return nil
}
