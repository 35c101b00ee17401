package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/cwygoda/lootdrop/internal/adapter/http"
	"github.com/cwygoda/lootdrop/internal/adapter/telegram"
	"github.com/cwygoda/lootdrop/internal/delivery"
	"github.com/cwygoda/lootdrop/internal/domain"
	"github.com/cwygoda/lootdrop/internal/loot"
	"github.com/cwygoda/lootdrop/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve the bot, by long polling or through a webhook",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	dispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Endpoint, cfg.Telegram.Timeout)
	if err != nil {
		return err
	}
	logger.Info("starting lootdrop", slog.String("bot", bot.Self.UserName), slog.String("version", Version))

	transport := telegram.NewTransport(bot, logger)
	sender := delivery.NewSender(transport, delivery.Limits{
		MaxCaption: cfg.Limits.MaxCaptionChars,
		CollapseAt: cfg.Limits.CollapseAtChars,
		MaxMessage: delivery.MaxMessageUnits,
	}, logger)
	w := worker.New(dispatcher, loot.NewCollector(logger), sender, workerOptions(cfg, bot.Self.UserName), logger)

	// Graceful shutdown setup
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	messages := make(chan domain.Message, 64)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		w.Run(ctx, messages)
	}()

	var srv *httpAdapter.Server
	if cfg.Webhook.URL != "" {
		srv = httpAdapter.NewServer(messages, cfg.Webhook.Addr, cfg.Webhook.Secret, logger)
		go func() {
			logger.Info("webhook server listening", slog.String("addr", srv.Addr()), slog.Int("port", srv.Port()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("webhook server error", slog.Any("error", err))
				cancel()
			}
		}()
		if err := telegram.SetWebhook(bot, cfg.Webhook.URL, cfg.Webhook.Secret); err != nil {
			return fmt.Errorf("registering webhook: %w", err)
		}
	} else {
		// getUpdates is refused while a webhook is registered.
		if err := telegram.DeleteWebhook(bot); err != nil {
			return fmt.Errorf("removing webhook: %w", err)
		}
		poller := telegram.NewPoller(bot, int(cfg.Telegram.PollTimeout.Seconds()), logger)
		go poller.Run(ctx, messages)
	}

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}
	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("webhook server shutdown error", slog.Any("error", err))
		}
	}

	<-workerDone
	logger.Info("shutdown complete")
	return nil
}
