package domain

import (
	"strings"
	"unicode/utf16"
)

// Entity types we care about.
const (
	EntityURL      = "url"
	EntityTextLink = "text_link"
	EntityMention  = "mention"
)

// Entity is a marked span of message text. Offset and Length are counted in
// UTF-16 code units, as Telegram reports them.
type Entity struct {
	Type   string
	Offset int
	Length int
	URL    string
}

// Message is an inbound chat message.
type Message struct {
	ChatID               int64
	MessageID            int
	Text                 string
	Entities             []Entity
	BusinessConnectionID string
}

// ReplyTarget addresses outbound replies to a message.
type ReplyTarget struct {
	ChatID               int64
	MessageID            int
	BusinessConnectionID string
}

// ReplyTarget returns the target for replies to m.
func (m Message) ReplyTarget() ReplyTarget {
	return ReplyTarget{
		ChatID:               m.ChatID,
		MessageID:            m.MessageID,
		BusinessConnectionID: m.BusinessConnectionID,
	}
}

// EntityText returns the slice of the message text covered by e.
func (m Message) EntityText(e Entity) string {
	units := utf16.Encode([]rune(m.Text))
	start, end := e.Offset, e.Offset+e.Length
	if start < 0 || start > len(units) {
		return ""
	}
	end = min(max(end, start), len(units))
	return string(utf16.Decode(units[start:end]))
}

// URLs returns every URL in the message, in order of appearance.
func (m Message) URLs() []string {
	var urls []string
	for _, e := range m.Entities {
		if e.Type != EntityURL && e.Type != EntityTextLink {
			continue
		}
		u := e.URL
		if u == "" {
			u = m.EntityText(e)
		}
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Mentions reports whether the message mentions @username.
func (m Message) Mentions(username string) bool {
	if username == "" {
		return false
	}
	target := "@" + strings.TrimPrefix(username, "@")
	for _, e := range m.Entities {
		if e.Type == EntityMention && strings.EqualFold(m.EntityText(e), target) {
			return true
		}
	}
	return false
}
