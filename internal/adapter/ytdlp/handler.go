package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwygoda/lootdrop/internal/domain"
)

// Handler downloads video, or audio for the audio variant, with yt-dlp.
type Handler struct {
	client    *Client
	audio     bool
	maxBytes  int64
	maxHeight int
	logger    *slog.Logger
}

// NewVideoHandler creates the video handler.
func NewVideoHandler(client *Client, maxBytes int64, maxHeight int) *Handler {
	return &Handler{client: client, maxBytes: maxBytes, maxHeight: maxHeight, logger: client.logger}
}

// NewAudioHandler creates the audio variant.
func NewAudioHandler(client *Client, maxBytes int64, maxHeight int) *Handler {
	h := NewVideoHandler(client, maxBytes, maxHeight)
	h.audio = true
	return h
}

func (h *Handler) Name() string {
	if h.audio {
		return "yt-dlp-audio"
	}
	return "yt-dlp"
}

func (h *Handler) Action() domain.Action {
	if h.audio {
		return domain.ActionRecordVoice
	}
	return domain.ActionRecordVideo
}

// Fetch picks a format that fits the size ceiling and downloads it into dir.
func (h *Handler) Fetch(ctx context.Context, url, dir string) error {
	url, _, _ = strings.Cut(url, "&")
	log := h.logger.With(slog.String("url", url))

	info, ignoredCookies, err := h.client.InfoWithCookieFallback(ctx, url)
	if errors.Is(err, domain.ErrProbeNotFound) {
		// Past dispatch this is a backend failure, not a missing post.
		return fmt.Errorf("yt-dlp info %s: %s", url, err.Error())
	}
	if err != nil {
		return err
	}
	if ignoredCookies {
		log.Info("this one doesn't work with our cookies, but does without them")
	}

	format, ok := ChooseFormat(info, h.maxHeight, h.maxBytes, log)
	if !ok {
		log.Warn("every format is over the size limit, fetching sidecars only")
	}

	return h.client.Download(ctx, url, dir, DownloadOptions{
		Format:        format,
		Audio:         h.audio,
		MaxBytes:      h.maxBytes,
		IgnoreCookies: ignoredCookies,
	})
}
