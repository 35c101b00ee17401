package delivery

import (
	"html"
	"strings"
	"unicode/utf16"

	"github.com/rivo/uniseg"
)

// MaxMessageUnits is Telegram's ceiling on a text message.
const MaxMessageUnits = 4096

// Split separators, most preferred first.
var separators = []string{"\n", ". ", " "}

// UTF16Len returns the length of s in UTF-16 code units, the unit Telegram
// measures text in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Split breaks text into chunks of at most limit UTF-16 units. Each chunk
// ends after the last newline in range, else the last ". ", else the last
// space, else at the last whole grapheme cluster that fits. Separators stay
// on the chunk they end, so the chunks concatenate back to text.
func Split(text string, limit int) []string {
	if limit < 1 {
		limit = MaxMessageUnits
	}

	var chunks []string
	for UTF16Len(text) > limit {
		head, bounds := fitting(text, limit)
		cut := len(head)
		for _, sep := range separators {
			if end := lastCut(head, sep, bounds); end >= 0 {
				cut = end
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// fitting returns the longest prefix of text made of whole grapheme clusters
// that is at most limit units long, with the byte offsets of the cluster
// ends inside it. A single cluster longer than limit is returned whole.
func fitting(text string, limit int) (string, map[int]bool) {
	g := uniseg.NewGraphemes(text)
	bounds := map[int]bool{}
	units, end := 0, 0
	for g.Next() {
		n := UTF16Len(g.Str())
		if units+n > limit {
			if end == 0 {
				_, end = g.Positions()
				bounds[end] = true
			}
			break
		}
		units += n
		_, end = g.Positions()
		bounds[end] = true
	}
	return text[:end], bounds
}

// lastCut returns the offset just past the last sep in head that ends on a
// grapheme boundary, or -1.
func lastCut(head, sep string, bounds map[int]bool) int {
	for s := head; ; {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			return -1
		}
		if end := i + len(sep); bounds[end] {
			return end
		}
		s = s[:i]
	}
}

// Collapse wraps text in an expandable blockquote for HTML parse mode.
func Collapse(text string) string {
	return "<blockquote expandable>" + html.EscapeString(text) + "</blockquote>"
}
