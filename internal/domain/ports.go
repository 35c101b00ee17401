package domain

import (
	"context"
	"errors"
)

// ErrProbeNotFound is returned by a Prober when the remote resource has no
// extractable media.
var ErrProbeNotFound = errors.New("no media found")

// ErrNoShortcode is returned when an Instagram URL carries no post shortcode.
var ErrNoShortcode = errors.New("no instagram shortcode")

// Action is a chat status signal shown while we work.
type Action string

const (
	ActionTyping      Action = "typing"
	ActionRecordVideo Action = "record_video"
	ActionRecordVoice Action = "record_voice"
	ActionUploadVideo Action = "upload_video"
	ActionUploadVoice Action = "upload_voice"
	ActionUploadPhoto Action = "upload_photo"
)

// Handler turns one URL into a directory of downloaded artifacts.
type Handler interface {
	Name() string
	// Action is signalled to the chat before fetching starts.
	Action() Action
	Fetch(ctx context.Context, url, dir string) error
}

// Prober lists the media file extensions available at a URL without
// downloading anything.
type Prober interface {
	Probe(ctx context.Context, url string) ([]string, error)
}

// ParseMode values for outbound text.
const (
	ParseModeNone = ""
	ParseModeHTML = "HTML"
)

// OutboundMedia is one file upload with an optional caption.
type OutboundMedia struct {
	Kind      LootKind
	Path      string
	Caption   string
	ParseMode string
}

// Transport is the driven port for outbound chat operations.
type Transport interface {
	SendChatAction(ctx context.Context, to ReplyTarget, action Action) error
	SendMediaGroup(ctx context.Context, to ReplyTarget, media []OutboundMedia) error
	SendMedia(ctx context.Context, to ReplyTarget, media OutboundMedia) error
	SendText(ctx context.Context, to ReplyTarget, text, parseMode string) error
}
