// Package telegram talks to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cwygoda/lootdrop/internal/domain"
)

// NewBot connects to the Bot API. endpoint is a format string in the shape
// of tgbotapi.APIEndpoint; empty means the public API.
func NewBot(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return bot, nil
}

// upload describes how a loot kind is sent on its own and inside a group.
type upload struct {
	method    string
	field     string
	groupType string
}

func uploadFor(kind domain.LootKind) (upload, error) {
	switch kind {
	case domain.KindVideo:
		return upload{method: "sendVideo", field: "video", groupType: "video"}, nil
	case domain.KindAudio:
		return upload{method: "sendAudio", field: "audio", groupType: "audio"}, nil
	case domain.KindImage:
		return upload{method: "sendPhoto", field: "photo", groupType: "photo"}, nil
	}
	return upload{}, fmt.Errorf("%s loot cannot be uploaded", kind)
}

type replyParameters struct {
	MessageID                int  `json:"message_id"`
	AllowSendingWithoutReply bool `json:"allow_sending_without_reply"`
}

type linkPreviewOptions struct {
	IsDisabled bool `json:"is_disabled"`
}

type inputMedia struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Transport implements domain.Transport over the Bot API. Every call
// carries the business connection id of its target.
type Transport struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

func NewTransport(bot *tgbotapi.BotAPI, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{bot: bot, logger: logger.With(slog.String("component", "telegram"))}
}

func targetParams(to domain.ReplyTarget) tgbotapi.Params {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", to.ChatID)
	params.AddNonEmpty("business_connection_id", to.BusinessConnectionID)
	return params
}

func replyParams(to domain.ReplyTarget) (tgbotapi.Params, error) {
	params := targetParams(to)
	if to.MessageID != 0 {
		err := params.AddInterface("reply_parameters", replyParameters{
			MessageID:                to.MessageID,
			AllowSendingWithoutReply: true,
		})
		if err != nil {
			return nil, err
		}
	}
	return params, nil
}

func (t *Transport) SendChatAction(ctx context.Context, to domain.ReplyTarget, action domain.Action) error {
	params := targetParams(to)
	params["action"] = string(action)
	return t.call(ctx, "sendChatAction", params, nil)
}

func (t *Transport) SendText(ctx context.Context, to domain.ReplyTarget, text, parseMode string) error {
	params, err := textParams(to, text, parseMode)
	if err != nil {
		return err
	}
	return t.call(ctx, "sendMessage", params, nil)
}

func textParams(to domain.ReplyTarget, text, parseMode string) (tgbotapi.Params, error) {
	params, err := replyParams(to)
	if err != nil {
		return nil, err
	}
	params["text"] = text
	params.AddNonEmpty("parse_mode", parseMode)
	if err := params.AddInterface("link_preview_options", linkPreviewOptions{IsDisabled: true}); err != nil {
		return nil, err
	}
	return params, nil
}

func (t *Transport) SendMedia(ctx context.Context, to domain.ReplyTarget, media domain.OutboundMedia) error {
	method, params, files, err := mediaParams(to, media)
	if err != nil {
		return err
	}
	return t.call(ctx, method, params, files)
}

func mediaParams(to domain.ReplyTarget, media domain.OutboundMedia) (string, tgbotapi.Params, []tgbotapi.RequestFile, error) {
	up, err := uploadFor(media.Kind)
	if err != nil {
		return "", nil, nil, err
	}
	params, err := replyParams(to)
	if err != nil {
		return "", nil, nil, err
	}
	params.AddNonEmpty("caption", media.Caption)
	params.AddNonEmpty("parse_mode", media.ParseMode)
	if media.Kind == domain.KindVideo {
		params.AddBool("supports_streaming", true)
	}
	files := []tgbotapi.RequestFile{{Name: up.field, Data: tgbotapi.FilePath(media.Path)}}
	return up.method, params, files, nil
}

func (t *Transport) SendMediaGroup(ctx context.Context, to domain.ReplyTarget, media []domain.OutboundMedia) error {
	params, files, err := groupParams(to, media)
	if err != nil {
		return err
	}
	return t.call(ctx, "sendMediaGroup", params, files)
}

func groupParams(to domain.ReplyTarget, media []domain.OutboundMedia) (tgbotapi.Params, []tgbotapi.RequestFile, error) {
	params, err := replyParams(to)
	if err != nil {
		return nil, nil, err
	}

	members := make([]inputMedia, 0, len(media))
	files := make([]tgbotapi.RequestFile, 0, len(media))
	for i, m := range media {
		up, err := uploadFor(m.Kind)
		if err != nil {
			return nil, nil, err
		}
		name := fmt.Sprintf("file-%d", i)
		members = append(members, inputMedia{
			Type:      up.groupType,
			Media:     "attach://" + name,
			Caption:   m.Caption,
			ParseMode: m.ParseMode,
		})
		files = append(files, tgbotapi.RequestFile{Name: name, Data: tgbotapi.FilePath(m.Path)})
	}
	if err := params.AddInterface("media", members); err != nil {
		return nil, nil, err
	}
	return params, files, nil
}

// call issues one Bot API request. The client library is not context aware,
// so cancellation is only checked before the request starts.
func (t *Transport) call(ctx context.Context, method string, params tgbotapi.Params, files []tgbotapi.RequestFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	if len(files) > 0 {
		_, err = t.bot.UploadFiles(method, params, files)
	} else {
		_, err = t.bot.MakeRequest(method, params)
	}
	if err != nil {
		t.logger.Debug("request failed", slog.String("method", method), slog.Any("error", err))
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return nil
}
