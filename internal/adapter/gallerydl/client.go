// Package gallerydl drives gallery-dl, the catch-all backend for sites that
// post images and text.
package gallerydl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwygoda/lootdrop/internal/adapter/command"
	"github.com/cwygoda/lootdrop/internal/domain"
)

// Handler downloads whatever gallery-dl can find at a URL and turns its
// metadata into text loot.
type Handler struct {
	binary    string
	cookies   string
	runner    command.Runner
	extractor *TextExtractor
	logger    *slog.Logger
}

// NewHandler creates a handler. cookies is the path to a Netscape cookie
// file and may be empty.
func NewHandler(binary, cookies string, runner command.Runner, logger *slog.Logger) *Handler {
	if binary == "" {
		binary = "gallery-dl"
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("downloader", "gallery-dl"))
	return &Handler{
		binary:    binary,
		cookies:   cookies,
		runner:    runner,
		extractor: NewTextExtractor(logger),
		logger:    logger,
	}
}

func (h *Handler) Name() string { return "gallery-dl" }

func (h *Handler) Action() domain.Action { return domain.ActionTyping }

// Fetch downloads url into dir and writes an info.txt next to every
// info.json that carries a title or body.
func (h *Handler) Fetch(ctx context.Context, url, dir string) error {
	h.logger.Info("downloading whatever", slog.String("url", url))

	if _, err := h.runner.Run(ctx, dir, h.binary, h.args(url, dir)...); err != nil {
		return fmt.Errorf("gallery-dl %s: %w", url, err)
	}
	return h.extractor.Extract(dir)
}

func (h *Handler) args(url, dir string) []string {
	args := []string{
		"--directory", dir,
		"--write-info-json",
		"--option", "extractor.twitter.text-tweets=true",
		"--option", "extractor.twitter.quoted=true",
		"--option", "extractor.twitter.retweets=true",
		"--quiet",
	}
	if h.cookies != "" {
		args = append(args, "--cookies", h.cookies)
	}
	return append(args, url)
}
