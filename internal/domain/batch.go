package domain

import "strings"

// DefaultMaxGroupSize is Telegram's ceiling on media group members.
const DefaultMaxGroupSize = 10

// BatchLoot partitions items into batches of at most maxGroup media members.
// Video and image share batches; audio is batched on its own. All text is
// joined by blank lines and attached to the first batch.
func BatchLoot(items LootItems, maxGroup int) []Batch {
	if maxGroup < 1 {
		maxGroup = DefaultMaxGroupSize
	}

	visual := make([]LootItem, 0, len(items[KindVideo])+len(items[KindImage]))
	visual = append(visual, items[KindVideo]...)
	visual = append(visual, items[KindImage]...)

	var batches []Batch
	for _, chunk := range chunk(visual, maxGroup) {
		var b Batch
		for _, item := range chunk {
			b.add(item)
		}
		batches = append(batches, b)
	}
	for _, chunk := range chunk(items[KindAudio], maxGroup) {
		batches = append(batches, Batch{Audio: chunk})
	}

	texts := make([]string, 0, len(items[KindText]))
	for _, item := range items[KindText] {
		texts = append(texts, item.Text)
	}
	if len(texts) == 0 {
		return batches
	}
	if len(batches) == 0 {
		batches = append(batches, Batch{})
	}
	batches[0].Text = strings.Join(texts, "\n\n")
	return batches
}

func chunk(items []LootItem, size int) [][]LootItem {
	var chunks [][]LootItem
	for len(items) > 0 {
		n := min(size, len(items))
		chunks = append(chunks, items[:n:n])
		items = items[n:]
	}
	return chunks
}
