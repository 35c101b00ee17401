// Package loot classifies the files a backend left in a scratch directory.
package loot

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/cwygoda/lootdrop/internal/domain"
	"github.com/cwygoda/lootdrop/internal/mediatype"
)

// Collector walks download directories and classifies their files.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a collector.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger.With(slog.String("component", "collector"))}
}

// Collect returns every classifiable regular file under dir, grouped by kind
// in walk order. Unclassifiable files are logged and skipped.
func (c *Collector) Collect(dir string) (domain.LootItems, error) {
	items := domain.LootItems{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		kind, ok := c.classify(path)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		item := domain.LootItem{Path: path, Kind: kind, Size: info.Size()}

		if kind == domain.KindText {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			item.Text = strings.TrimRight(string(data), " \t\r\n")
			if item.Text == "" {
				c.logger.Debug("skipping empty text file", slog.String("path", path))
				return nil
			}
		}

		c.logger.Debug("found loot",
			slog.String("path", path),
			slog.String("kind", kind.String()),
			slog.String("size", humanize.Bytes(uint64(item.Size))),
		)
		items.Add(item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", dir, err)
	}
	return items, nil
}

// Classify returns the loot kind of the file at path.
func Classify(path string) (domain.LootKind, bool) {
	mimeType := mediatype.ByFilename(path)
	if mimeType == "" {
		switch {
		case strings.HasSuffix(path, ".description"):
			return domain.KindText, true
		case strings.HasSuffix(path, ".mkv"):
			return domain.KindVideo, true
		case filepath.Ext(path) == "":
			if m, err := mimetype.DetectFile(path); err == nil {
				mimeType = m.String()
			}
		}
	}
	return kindOf(mimeType)
}

func (c *Collector) classify(path string) (domain.LootKind, bool) {
	kind, ok := Classify(path)
	if !ok {
		c.logger.Info("skipping unidentified file",
			slog.String("path", path),
			slog.String("mime", mediatype.ByFilename(path)),
		)
	}
	return kind, ok
}

func kindOf(mimeType string) (domain.LootKind, bool) {
	switch mediatype.Family(mimeType) {
	case "video":
		return domain.KindVideo, true
	case "audio":
		return domain.KindAudio, true
	case "image":
		return domain.KindImage, true
	case "text":
		return domain.KindText, true
	}
	return 0, false
}
