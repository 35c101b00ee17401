package gallerydl

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/mitchellh/mapstructure"
)

const (
	infoJSON = "info.json"
	infoText = "info.txt"
)

// postText is the subset of gallery-dl metadata worth posting as text.
// Reddit puts the body in selftext, Bluesky and Mastodon in content.
type postText struct {
	Title    string `mapstructure:"title"`
	Content  string `mapstructure:"content"`
	SelfText string `mapstructure:"selftext"`
}

func (p postText) parts() []string {
	var parts []string
	for _, s := range []string{p.Title, p.Content, p.SelfText} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

var htmlTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// TextExtractor writes info.txt files from gallery-dl's info.json output.
type TextExtractor struct {
	converter *md.Converter
	logger    *slog.Logger
}

func NewTextExtractor(logger *slog.Logger) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractor{
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Extract walks dir for info.json files and writes a sibling info.txt
// holding the title and body joined by a blank line. Files without any text
// get no info.txt.
func (e *TextExtractor) Extract(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != infoJSON {
			return nil
		}

		text, err := e.textOf(path)
		if err != nil {
			e.logger.Warn("unreadable info.json", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if text == "" {
			return nil
		}
		return os.WriteFile(filepath.Join(filepath.Dir(path), infoText), []byte(text), 0o644)
	})
}

func (e *TextExtractor) textOf(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	var post postText
	if err := mapstructure.WeakDecode(raw, &post); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	if htmlTag.MatchString(post.Content) {
		converted, err := e.converter.ConvertString(post.Content)
		if err != nil {
			e.logger.Warn("failed to convert html content", slog.String("path", path), slog.Any("error", err))
		} else {
			post.Content = converted
		}
	}
	return strings.Join(post.parts(), "\n\n"), nil
}
