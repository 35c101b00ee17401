// Package worker turns inbound chat messages into delivered loot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/cwygoda/lootdrop/internal/domain"
)

// Dispatcher picks the handler for a URL. A nil handler means the URL is
// not ours to handle.
type Dispatcher interface {
	Dispatch(ctx context.Context, url string, mentioned bool) (domain.Handler, error)
}

// Collector classifies the files a handler left in a directory.
type Collector interface {
	Collect(dir string) (domain.LootItems, error)
}

// Sender delivers batches and chat status.
type Sender interface {
	Announce(ctx context.Context, to domain.ReplyTarget, action domain.Action)
	Deliver(ctx context.Context, to domain.ReplyTarget, b domain.Batch, source string) error
}

// Options configure a Worker.
type Options struct {
	// Username is the bot's username, used to detect mentions.
	Username     string
	MaxGroupSize int
	// TempDir is where scratch directories are created; empty means the
	// system default.
	TempDir string
	Retry   RetryPolicy
}

// Worker processes messages one at a time, and the URLs in each message in
// order.
type Worker struct {
	dispatcher Dispatcher
	collector  Collector
	sender     Sender
	opts       Options
	logger     *slog.Logger
}

// New creates a new worker.
func New(dispatcher Dispatcher, collector Collector, sender Sender, opts Options, logger *slog.Logger) *Worker {
	if opts.MaxGroupSize <= 0 {
		opts.MaxGroupSize = domain.DefaultMaxGroupSize
	}
	opts.Retry = opts.Retry.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		dispatcher: dispatcher,
		collector:  collector,
		sender:     sender,
		opts:       opts,
		logger:     logger.With(slog.String("component", "worker")),
	}
}

// Run consumes messages until the channel closes or ctx is cancelled.
func (w *Worker) Run(ctx context.Context, messages <-chan domain.Message) {
	w.logger.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return
		case msg, ok := <-messages:
			if !ok {
				w.logger.Info("message source closed")
				return
			}
			w.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage processes every URL in msg.
func (w *Worker) HandleMessage(ctx context.Context, msg domain.Message) {
	urls := msg.URLs()
	if len(urls) == 0 {
		return
	}
	mentioned := w.opts.Username != "" && msg.Mentions(w.opts.Username)

	for _, url := range urls {
		if ctx.Err() != nil {
			return
		}
		w.processJob(ctx, domain.NewJob(msg, url, mentioned))
	}
}

// processJob runs attempts until one succeeds, the URL turns out to have
// nothing to fetch, or the retry policy is exhausted.
func (w *Worker) processJob(ctx context.Context, job *domain.Job) {
	log := w.logger.With(slog.String("url", job.URL), slog.Int64("chat_id", job.Message.ChatID))
	schedule := w.opts.Retry.backOff()

	for {
		job.Attempts++
		err := w.attempt(ctx, job)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			log.Info("cancelled", slog.Int("attempt", job.Attempts))
			return
		}
		if errors.Is(err, domain.ErrProbeNotFound) {
			log.Info("nothing to fetch", slog.Any("error", err))
			return
		}

		wait := schedule.NextBackOff()
		if !job.CanRetry(w.opts.Retry.MaxAttempts) || wait == backoff.Stop {
			log.Error("giving up", slog.Int("attempts", job.Attempts), slog.Any("error", err))
			return
		}
		log.Warn("attempt failed, retrying",
			slog.Int("attempt", job.Attempts),
			slog.Duration("backoff", wait),
			slog.Any("error", err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// attempt runs the whole pipeline once in a scratch directory of its own.
func (w *Worker) attempt(ctx context.Context, job *domain.Job) error {
	handler, err := w.dispatcher.Dispatch(ctx, job.URL, job.Mentioned)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if handler == nil {
		return nil
	}

	id := uuid.NewString()
	log := w.logger.With(slog.String("url", job.URL), slog.String("attempt_id", id), slog.String("handler", handler.Name()))

	to := job.Target()
	w.sender.Announce(ctx, to, handler.Action())

	dir, err := os.MkdirTemp(w.opts.TempDir, fmt.Sprintf("lootdrop-%s-*", id))
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	batches, err := w.Loot(ctx, handler, job.URL, dir)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		log.Warn("handler produced no loot")
		return nil
	}

	for i, b := range batches {
		if err := w.sender.Deliver(ctx, to, b, job.URL); err != nil {
			return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
	}
	log.Info("delivered", slog.Int("batches", len(batches)), slog.Int("attempt", job.Attempts))
	return nil
}

// Loot fetches url with handler into dir and batches what it left there.
func (w *Worker) Loot(ctx context.Context, handler domain.Handler, url, dir string) ([]domain.Batch, error) {
	if err := handler.Fetch(ctx, url, dir); err != nil {
		return nil, fmt.Errorf("%s: %w", handler.Name(), err)
	}
	items, err := w.collector.Collect(dir)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	return domain.BatchLoot(items, w.opts.MaxGroupSize), nil
}
