// Package instagram downloads Instagram posts through a structured API tier
// with a page-scraping tier behind it.
package instagram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cwygoda/lootdrop/internal/dispatch"
	"github.com/cwygoda/lootdrop/internal/domain"
)

// Tier is one way of fetching a post into a directory.
type Tier interface {
	Fetch(ctx context.Context, shortcode, dir string) domain.Outcome
}

// Handler tries the API tier, then the scraper, then the generic fallback
// handler.
type Handler struct {
	pattern  *dispatch.Pattern
	api      Tier
	scraper  Tier
	fallback domain.Handler
	logger   *slog.Logger
}

// NewHandler creates the handler. api may be nil when no session is
// configured, in which case the scraper runs first.
func NewHandler(pattern *dispatch.Pattern, api, scraper Tier, fallback domain.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pattern:  pattern,
		api:      api,
		scraper:  scraper,
		fallback: fallback,
		logger:   logger.With(slog.String("handler", "instagram")),
	}
}

func (h *Handler) Name() string { return "instagram" }

func (h *Handler) Action() domain.Action { return domain.ActionRecordVideo }

func (h *Handler) Fetch(ctx context.Context, url, dir string) error {
	shortcode := h.pattern.Group(url, "shortcode")
	if shortcode == "" {
		h.logger.Warn("no shortcode, using generic handler", slog.String("url", url))
		return h.fallback.Fetch(ctx, url, dir)
	}
	log := h.logger.With(slog.String("shortcode", shortcode))

	if h.api != nil {
		out := h.api.Fetch(ctx, shortcode, dir)
		if out.OK() {
			return nil
		}
		log.Warn("api tier failed, scraping", slog.String("reason", out.Reason.String()), slog.Any("error", out.Err))
		if err := resetDir(dir); err != nil {
			return err
		}
	}

	out := h.scraper.Fetch(ctx, shortcode, dir)
	switch out.Reason {
	case domain.ReasonNone:
		return nil
	case domain.ReasonNotFound, domain.ReasonUnrecognized:
		log.Warn("scraper found nothing, using generic handler", slog.Any("error", out.Err))
		if err := resetDir(dir); err != nil {
			return err
		}
		return h.fallback.Fetch(ctx, url, dir)
	default:
		return fmt.Errorf("instagram %s: %w", shortcode, out.AsError())
	}
}

// resetDir empties dir, keeping the directory itself.
func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
