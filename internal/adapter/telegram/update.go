package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cwygoda/lootdrop/internal/domain"
)

// Message is a Telegram message with the business connection it arrived
// through, if any.
type Message struct {
	tgbotapi.Message
	BusinessConnectionID string `json:"business_connection_id,omitempty"`
}

// Update is the subset of a Telegram update we consume: plain messages and
// messages sent on behalf of a business account.
type Update struct {
	UpdateID        int      `json:"update_id"`
	Message         *Message `json:"message,omitempty"`
	BusinessMessage *Message `json:"business_message,omitempty"`
}

// AllowedUpdates are the update kinds requested from Telegram.
var AllowedUpdates = []string{"message", "business_message"}

// DecodeUpdate parses one update as delivered to a webhook.
func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	return u, nil
}

// DomainMessage converts the update's message. ok is false for updates
// without one.
func (u Update) DomainMessage() (domain.Message, bool) {
	m := u.Message
	if m == nil {
		m = u.BusinessMessage
	}
	if m == nil || m.Chat == nil {
		return domain.Message{}, false
	}

	text, entities := m.Text, m.Entities
	if text == "" {
		text, entities = m.Caption, m.CaptionEntities
	}

	msg := domain.Message{
		ChatID:               m.Chat.ID,
		MessageID:            m.MessageID,
		Text:                 text,
		BusinessConnectionID: m.BusinessConnectionID,
	}
	for _, e := range entities {
		msg.Entities = append(msg.Entities, domain.Entity{
			Type:   e.Type,
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return msg, true
}
