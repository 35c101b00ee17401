package domain

import "fmt"

// LootKind is the delivery category of a downloaded file.
type LootKind int

const (
	KindVideo LootKind = iota
	KindAudio
	KindImage
	KindText
)

// Kinds lists every kind in collection order.
var Kinds = []LootKind{KindVideo, KindAudio, KindImage, KindText}

func (k LootKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("LootKind(%d)", int(k))
}

// IsMedia is true for kinds that are uploaded as files.
func (k LootKind) IsMedia() bool {
	return k == KindVideo || k == KindAudio || k == KindImage
}

// LootItem is one classified downloaded file.
type LootItem struct {
	Path string
	Kind LootKind
	Size int64
	// Text holds the file content for KindText items.
	Text string
}

// LootItems groups loot by kind, each in discovery order.
type LootItems map[LootKind][]LootItem

// Add appends item under its kind.
func (l LootItems) Add(item LootItem) {
	l[item.Kind] = append(l[item.Kind], item)
}

// Len returns the number of items across all kinds.
func (l LootItems) Len() int {
	n := 0
	for _, items := range l {
		n += len(items)
	}
	return n
}

// Batch is a delivery-ready subset of loot.
type Batch struct {
	Video []LootItem
	Image []LootItem
	Audio []LootItem
	Text  string
}

// MediaCount is the number of file uploads in the batch.
func (b Batch) MediaCount() int {
	return len(b.Video) + len(b.Image) + len(b.Audio)
}

// Media returns the batch members in upload order: images, videos, audio.
func (b Batch) Media() []LootItem {
	media := make([]LootItem, 0, b.MediaCount())
	media = append(media, b.Image...)
	media = append(media, b.Video...)
	media = append(media, b.Audio...)
	return media
}

func (b *Batch) add(item LootItem) {
	switch item.Kind {
	case KindVideo:
		b.Video = append(b.Video, item)
	case KindImage:
		b.Image = append(b.Image, item)
	case KindAudio:
		b.Audio = append(b.Audio, item)
	}
}
