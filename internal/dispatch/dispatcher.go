// Package dispatch decides which handler extracts a URL.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/cwygoda/lootdrop/internal/domain"
	"github.com/cwygoda/lootdrop/internal/mediatype"
)

// Handlers are the strategies the dispatcher chooses between.
type Handlers struct {
	Video   domain.Handler
	Audio   domain.Handler
	Generic domain.Handler
	Social  domain.Handler
}

type resolveFunc func(ctx context.Context, url string) (domain.Handler, error)

// rule maps URL families to a resolution. Rules are evaluated in order and
// the first matching rule wins.
type rule struct {
	patterns []string
	resolve  resolveFunc
}

// Dispatcher classifies URLs into handlers.
type Dispatcher struct {
	patterns *Patterns
	prober   domain.Prober
	handlers Handlers
	rules    []rule
	logger   *slog.Logger
}

// New creates a dispatcher over patterns, using prober for ambiguous URLs.
func New(patterns *Patterns, prober domain.Prober, handlers Handlers, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		patterns: patterns,
		prober:   prober,
		handlers: handlers,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
	d.rules = []rule{
		{patterns: []string{Insta}, resolve: d.fixed(handlers.Social)},
		{patterns: []string{TikTok, VReddit, YouTube, Vimeo}, resolve: d.fixed(handlers.Video)},
		{patterns: []string{X, Reddit, Bluesky}, resolve: d.ResolveForced},
		{patterns: []string{SoundCloud, Bandcamp}, resolve: d.fixed(handlers.Audio)},
	}
	return d
}

func (d *Dispatcher) fixed(h domain.Handler) resolveFunc {
	return func(context.Context, string) (domain.Handler, error) {
		return h, nil
	}
}

// Resolve returns the handler for url, or nil if no known family matches.
func (d *Dispatcher) Resolve(ctx context.Context, url string) (domain.Handler, error) {
	for _, r := range d.rules {
		if d.patterns.MatchesAny(url, r.patterns...) {
			return r.resolve(ctx, url)
		}
	}
	return nil, nil
}

// ResolveForced probes url for media and always returns a handler. No media
// means the generic handler and audio alone means the audio handler; any
// other media, images included, goes to the video handler.
func (d *Dispatcher) ResolveForced(ctx context.Context, url string) (domain.Handler, error) {
	log := d.logger.With(slog.String("url", url))

	extensions, err := d.prober.Probe(ctx, url)
	if err != nil && !errors.Is(err, domain.ErrProbeNotFound) {
		return nil, err
	}
	if len(extensions) == 0 {
		return d.handlers.Generic, nil
	}
	log.Info("found media extensions", slog.Any("extensions", extensions))

	families, unknown := mediaFamilies(extensions)
	if len(unknown) > 0 {
		log.Warn("unknown extensions", slog.Any("unknown_extensions", unknown))
	}

	if !slices.Contains(families, "video") && slices.Contains(families, "audio") {
		return d.handlers.Audio, nil
	}
	return d.handlers.Video, nil
}

// Dispatch resolves url, falling back to forced resolution when nothing
// matched and the bot was explicitly addressed.
func (d *Dispatcher) Dispatch(ctx context.Context, url string, mentioned bool) (domain.Handler, error) {
	h, err := d.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	if h == nil && mentioned {
		d.logger.Info("mentioned, forcing resolution", slog.String("url", url))
		return d.ResolveForced(ctx, url)
	}
	return h, nil
}

// mediaFamilies maps extensions to their deduplicated, sorted MIME
// families, returning the extensions it could not map separately.
func mediaFamilies(extensions []string) (families, unknown []string) {
	for _, ext := range extensions {
		t := mediatype.ByExtension(ext)
		if t == "" {
			unknown = append(unknown, ext)
			continue
		}
		families = append(families, mediatype.Family(t))
	}
	slices.Sort(families)
	return slices.Compact(families), unknown
}
