package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cwygoda/lootdrop/internal/adapter/command"
	"github.com/cwygoda/lootdrop/internal/adapter/gallerydl"
	"github.com/cwygoda/lootdrop/internal/adapter/instagram"
	"github.com/cwygoda/lootdrop/internal/adapter/ytdlp"
	"github.com/cwygoda/lootdrop/internal/config"
	"github.com/cwygoda/lootdrop/internal/cookies"
	"github.com/cwygoda/lootdrop/internal/dispatch"
	"github.com/cwygoda/lootdrop/internal/worker"
)

// newDispatcher builds the handler set and the URL dispatcher in front of it.
func newDispatcher(cfg *config.Config, logger *slog.Logger) (*dispatch.Dispatcher, error) {
	cookieFile, err := cfg.CookieFile()
	if err != nil {
		return nil, err
	}

	sessionID := cfg.Instagram.SessionID
	var jar http.CookieJar
	if cookieFile != "" {
		list, err := cookies.Load(cookieFile)
		if err != nil {
			return nil, err
		}
		if sessionID == "" {
			sessionID, _ = cookies.Lookup(list, "instagram.com", "sessionid")
		}
		if jar, err = cookies.Jar(list); err != nil {
			return nil, err
		}
	}

	runner := command.ExecRunner{}
	maxBytes := cfg.Limits.MaxUploadBytes()

	yt := ytdlp.NewClient(cfg.Tools.YtDlp, cookieFile, cfg.Tools.Impersonate, runner, logger)
	video := ytdlp.NewVideoHandler(yt, maxBytes, cfg.Limits.MaxHeight)
	audio := ytdlp.NewAudioHandler(yt, maxBytes, cfg.Limits.MaxHeight)
	generic := gallerydl.NewHandler(cfg.Tools.GalleryDl, cookieFile, runner, logger)

	patterns, err := dispatch.NewPatterns(dispatch.DefaultPatterns)
	if err != nil {
		return nil, fmt.Errorf("compiling url patterns: %w", err)
	}

	client := instagram.NewHTTPClient(jar)
	var api instagram.Tier
	if sessionID != "" {
		api = instagram.NewAPIClient(client, "", sessionID, logger)
	} else {
		logger.Info("no instagram session, skipping the private api tier")
	}
	scraper := instagram.NewScraper(client, "", logger)
	insta := instagram.NewHandler(patterns.Get(dispatch.Insta), api, scraper, generic, logger)

	return dispatch.New(patterns, yt, dispatch.Handlers{
		Video:   video,
		Audio:   audio,
		Generic: generic,
		Social:  insta,
	}, logger), nil
}

func workerOptions(cfg *config.Config, username string) worker.Options {
	return worker.Options{
		Username:     username,
		MaxGroupSize: cfg.Limits.MaxGroupSize,
		TempDir:      cfg.TempDir,
		Retry: worker.RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			MaxElapsed:      cfg.Retry.MaxElapsed,
		},
	}
}
