package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chris/flightai/internal/brochure"
	"github.com/chris/flightai/internal/chat"
	"github.com/chris/flightai/internal/db"
	"github.com/chris/flightai/internal/discord"
	"github.com/chris/flightai/internal/flight"
	"github.com/chris/flightai/internal/scheduler"
	"github.com/chris/flightai/internal/scrape"
	"github.com/chris/flightai/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat widget (and the Discord bot when configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}

		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg, client)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		store, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		sched := scheduler.New(store, cfg.SessionTTL)
		if err := sched.Start(cfg.SessionPruneCron); err != nil {
			return err
		}
		defer sched.Stop()

		if cfg.DiscordToken != "" {
			bot, err := discord.NewBot(cfg.DiscordToken, engine, flight.SystemPrompt)
			if err != nil {
				return err
			}
			defer bot.Close()
		}

		server := web.New(web.Options{
			Chat:         chat.New(client, chat.DefaultSystemPrompt),
			Brochures:    brochure.New(client, scrape.NewFetcher(0)),
			Engine:       engine,
			Sessions:     store,
			SystemPrompt: flight.SystemPrompt,
			Speaker:      newSpeaker(cfg),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = server.Run(ctx, cfg.HTTPAddr)
		slog.Info("shutting down")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from HTTP_ADDR, :7860)")
}
