package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cwygoda/lootdrop/internal/domain"
)

const pollErrorDelay = 3 * time.Second

// Poller long-polls getUpdates and forwards messages.
type Poller struct {
	bot     *tgbotapi.BotAPI
	timeout int
	offset  int
	logger  *slog.Logger
}

// NewPoller creates a poller. timeout is the long-poll timeout in seconds
// and must stay below the HTTP client timeout.
func NewPoller(bot *tgbotapi.BotAPI, timeout int, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{bot: bot, timeout: timeout, logger: logger.With(slog.String("component", "poller"))}
}

// Run polls until ctx is cancelled, sending every message on out.
func (p *Poller) Run(ctx context.Context, out chan<- domain.Message) {
	p.logger.Info("polling for updates", slog.Int("timeout_s", p.timeout))

	for ctx.Err() == nil {
		updates, err := p.poll()
		if err != nil {
			p.logger.Error("poll error", slog.Any("error", err))
			select {
			case <-ctx.Done():
			case <-time.After(pollErrorDelay):
			}
			continue
		}

		for _, u := range updates {
			msg, ok := p.accept(u)
			if !ok {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
	p.logger.Info("poller shutting down")
}

// accept advances the offset past u and converts it.
func (p *Poller) accept(u Update) (domain.Message, bool) {
	if u.UpdateID >= p.offset {
		p.offset = u.UpdateID + 1
	}
	return u.DomainMessage()
}

func (p *Poller) poll() ([]Update, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", p.offset)
	params.AddNonZero("timeout", p.timeout)
	if err := params.AddInterface("allowed_updates", AllowedUpdates); err != nil {
		return nil, err
	}

	resp, err := p.bot.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}
