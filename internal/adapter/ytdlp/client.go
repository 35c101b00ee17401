// Package ytdlp drives yt-dlp, the format-aware video and audio backend.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cwygoda/lootdrop/internal/adapter/command"
	"github.com/cwygoda/lootdrop/internal/domain"
)

// Client wraps the yt-dlp executable.
type Client struct {
	binary      string
	cookies     string
	impersonate bool
	runner      command.Runner
	logger      *slog.Logger
}

// NewClient creates a client. cookies is the path to a Netscape cookie file
// and may be empty.
func NewClient(binary, cookies string, impersonate bool, runner command.Runner, logger *slog.Logger) *Client {
	if binary == "" {
		binary = "yt-dlp"
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		binary:      binary,
		cookies:     cookies,
		impersonate: impersonate,
		runner:      runner,
		logger:      logger.With(slog.String("downloader", "yt-dlp")),
	}
}

// HasCookies reports whether a cookie file is configured.
func (c *Client) HasCookies() bool {
	return c.cookies != ""
}

// Info fetches metadata for url without downloading. yt-dlp reporting an
// error for the URL is returned as domain.ErrProbeNotFound.
func (c *Client) Info(ctx context.Context, url string, ignoreCookies bool) (*Info, error) {
	args := []string{"--dump-single-json", "--no-warnings"}
	if c.cookies != "" && !ignoreCookies {
		args = append(args, "--cookies", c.cookies)
	}
	args = append(args, url)

	out, err := c.runner.Run(ctx, "", c.binary, args...)
	if err != nil {
		if reason, ok := notFound(err); ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProbeNotFound, reason)
		}
		return nil, err
	}
	return ParseInfo(out)
}

// InfoWithCookieFallback fetches metadata, retrying once without cookies
// when the URL is not found with them. ignoredCookies reports whether the
// result came from the cookieless attempt.
func (c *Client) InfoWithCookieFallback(ctx context.Context, url string) (info *Info, ignoredCookies bool, err error) {
	info, err = c.Info(ctx, url, false)
	if errors.Is(err, domain.ErrProbeNotFound) && c.HasCookies() {
		c.logger.Info("checking once more without cookies", slog.String("url", url))
		info, err = c.Info(ctx, url, true)
		return info, true, err
	}
	return info, false, err
}

// Probe lists the media extensions available at url. A URL yt-dlp cannot
// extract yields an empty list.
func (c *Client) Probe(ctx context.Context, url string) ([]string, error) {
	log := c.logger.With(slog.String("url", url))

	info, _, err := c.InfoWithCookieFallback(ctx, url)
	if errors.Is(err, domain.ErrProbeNotFound) {
		log.Info("media not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log.Info("media found")
	return info.Extensions(), nil
}

// DownloadOptions control a download.
type DownloadOptions struct {
	// Format is a yt-dlp format selector. Empty skips the media download
	// and fetches sidecar files only.
	Format        string
	Audio         bool
	MaxBytes      int64
	IgnoreCookies bool
}

// Download fetches url into dir, alongside its thumbnail and description.
func (c *Client) Download(ctx context.Context, url, dir string, opts DownloadOptions) error {
	args := c.downloadArgs(url, dir, opts)
	c.logger.Info("downloading",
		slog.String("url", url),
		slog.Bool("audio", opts.Audio),
		slog.String("format", opts.Format),
	)
	if _, err := c.runner.Run(ctx, dir, c.binary, args...); err != nil {
		return fmt.Errorf("yt-dlp download %s: %w", url, err)
	}
	return nil
}

func (c *Client) downloadArgs(url, dir string, opts DownloadOptions) []string {
	args := []string{
		"--paths", "home:" + dir,
		"--output", "%(id)s.%(ext)s",
		"--write-thumbnail", "--convert-thumbnails", "png",
		"--write-description",
		"--write-subs", "--embed-subs",
		"--embed-thumbnail",
		"--embed-metadata", "--embed-chapters",
		"--no-playlist", "--playlist-items", "1:1",
		"--quiet", "--no-warnings",
	}
	if opts.MaxBytes > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(opts.MaxBytes, 10))
	}
	if c.impersonate {
		args = append(args, "--impersonate", "")
	}

	if opts.Format == "" {
		args = append(args, "--skip-download")
	} else {
		args = append(args, "--format", opts.Format)
	}

	if opts.Audio {
		args = append(args,
			"--format-sort", "res,ext:mp3:m4a",
			"--extract-audio", "--audio-format", "mp3",
		)
	} else {
		args = append(args,
			"--format-sort", "res,ext:mp4:m4a",
			"--recode-video", "mp4",
		)
	}

	if c.cookies != "" && !opts.IgnoreCookies {
		args = append(args, "--cookies", c.cookies)
	}
	return append(args, url)
}

// notFound reports whether err is yt-dlp declining to extract the URL, as
// opposed to the tool failing to run at all.
func notFound(err error) (string, bool) {
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) {
		return "", false
	}
	for _, line := range strings.Split(cmdErr.Stderr, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "ERROR:") {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}
