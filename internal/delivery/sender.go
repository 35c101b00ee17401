// Package delivery turns batches of loot into replies.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cwygoda/lootdrop/internal/domain"
)

// Limits are the text thresholds applied when planning replies. Lengths are
// in UTF-16 units.
type Limits struct {
	MaxCaption int
	CollapseAt int
	MaxMessage int
}

// DefaultLimits match Telegram's ceilings.
var DefaultLimits = Limits{
	MaxCaption: 1024,
	CollapseAt: 300,
	MaxMessage: MaxMessageUnits,
}

// Step is one outbound operation, preceded by a chat action. Exactly one of
// Group, Media and Text is set.
type Step struct {
	Action    domain.Action
	Group     []domain.OutboundMedia
	Media     *domain.OutboundMedia
	Text      string
	ParseMode string
}

var kindAction = map[domain.LootKind]domain.Action{
	domain.KindVideo: domain.ActionUploadVideo,
	domain.KindAudio: domain.ActionUploadVoice,
	domain.KindImage: domain.ActionUploadPhoto,
	domain.KindText:  domain.ActionTyping,
}

// Sender delivers batches over a transport.
type Sender struct {
	transport domain.Transport
	limits    Limits
	logger    *slog.Logger
}

// NewSender creates a sender. Zero limits take their defaults.
func NewSender(transport domain.Transport, limits Limits, logger *slog.Logger) *Sender {
	if limits.MaxCaption <= 0 {
		limits.MaxCaption = DefaultLimits.MaxCaption
	}
	if limits.CollapseAt <= 0 {
		limits.CollapseAt = DefaultLimits.CollapseAt
	}
	if limits.MaxMessage <= 0 {
		limits.MaxMessage = DefaultLimits.MaxMessage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		transport: transport,
		limits:    limits,
		logger:    logger.With(slog.String("component", "sender")),
	}
}

// render collapses text that reaches the collapse threshold.
func (s *Sender) render(text string) (string, string) {
	if UTF16Len(text) >= s.limits.CollapseAt {
		return Collapse(text), domain.ParseModeHTML
	}
	return text, domain.ParseModeNone
}

func (s *Sender) fitsCaption(text string) bool {
	return text != "" && UTF16Len(text) <= s.limits.MaxCaption
}

func (s *Sender) textSteps(text string) []Step {
	var steps []Step
	for _, chunk := range Split(text, s.limits.MaxMessage) {
		body, mode := s.render(chunk)
		steps = append(steps, Step{Action: domain.ActionTyping, Text: body, ParseMode: mode})
	}
	return steps
}

func outbound(item domain.LootItem) domain.OutboundMedia {
	return domain.OutboundMedia{Kind: item.Kind, Path: item.Path}
}

// Plan lays out the operations that deliver b.
//
// Two or more media go out as one group of images, then videos, then audio.
// Text that fits a caption rides on the first member; longer text is sent
// ahead of the group. Otherwise media go out one by one, a lone medium
// taking the text as its caption when it fits, and any remaining text
// follows.
func (s *Sender) Plan(b domain.Batch) []Step {
	var steps []Step

	if b.MediaCount() > 1 {
		var group []domain.OutboundMedia
		for _, item := range b.Media() {
			group = append(group, outbound(item))
		}
		if s.fitsCaption(b.Text) {
			group[0].Caption, group[0].ParseMode = s.render(b.Text)
		} else if b.Text != "" {
			steps = append(steps, s.textSteps(b.Text)...)
		}
		return append(steps, Step{Action: domain.ActionUploadVideo, Group: group})
	}

	text := b.Text
	for _, items := range [][]domain.LootItem{b.Video, b.Audio, b.Image} {
		for _, item := range items {
			media := outbound(item)
			if s.fitsCaption(text) {
				media.Caption, media.ParseMode = s.render(text)
				text = ""
			}
			steps = append(steps, Step{Action: kindAction[item.Kind], Media: &media})
		}
	}
	if text != "" {
		steps = append(steps, s.textSteps(text)...)
	}
	return steps
}

// Deliver sends b as replies to the given target. source identifies where
// the loot came from in logs.
func (s *Sender) Deliver(ctx context.Context, to domain.ReplyTarget, b domain.Batch, source string) error {
	log := s.logger.With(slog.Int64("chat_id", to.ChatID), slog.String("context", source))

	for _, step := range s.Plan(b) {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Announce(ctx, to, step.Action)

		var err error
		switch {
		case step.Group != nil:
			log.Info("uploading", slog.Any("loot", names(step.Group)))
			err = s.transport.SendMediaGroup(ctx, to, step.Group)
		case step.Media != nil:
			log.Info("uploading", slog.Any("loot", names([]domain.OutboundMedia{*step.Media})))
			err = s.transport.SendMedia(ctx, to, *step.Media)
		default:
			log.Info("replying", slog.Int("units", UTF16Len(step.Text)), slog.String("parse_mode", step.ParseMode))
			err = s.transport.SendText(ctx, to, step.Text, step.ParseMode)
		}
		if err != nil {
			return fmt.Errorf("deliver %s: %w", source, err)
		}
	}
	return nil
}

// Announce shows action in the chat. Failures are logged and otherwise
// ignored.
func (s *Sender) Announce(ctx context.Context, to domain.ReplyTarget, action domain.Action) {
	if err := s.transport.SendChatAction(ctx, to, action); err != nil {
		s.logger.Warn("failed to send chat action",
			slog.Int64("chat_id", to.ChatID),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}

func names(media []domain.OutboundMedia) []string {
	out := make([]string, len(media))
	for i, m := range media {
		out[i] = m.Kind.String() + ":" + filepath.Base(m.Path)
	}
	return out
}

