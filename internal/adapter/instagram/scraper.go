package instagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cwygoda/lootdrop/internal/domain"
)

const defaultWebBase = "https://www.instagram.com"

var errNoMedia = errors.New("no og:video or og:image on post page")

// Scraper is the fallback tier. It reads the Open Graph tags of the public
// post page and needs no session.
type Scraper struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewScraper(client *http.Client, baseURL string, logger *slog.Logger) *Scraper {
	if client == nil {
		client = NewHTTPClient(nil)
	}
	if baseURL == "" {
		baseURL = defaultWebBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(slog.String("downloader", "instagram-web")),
	}
}

// Fetch saves the post's video, or its image when there is no video, and
// the page description.
func (s *Scraper) Fetch(ctx context.Context, shortcode, dir string) domain.Outcome {
	log := s.logger.With(slog.String("shortcode", shortcode))

	doc, err := s.fetchDocument(ctx, fmt.Sprintf("%s/p/%s/", s.baseURL, shortcode))
	if err != nil {
		log.Error("bad instagram response", slog.Any("error", err))
		return failure(err)
	}

	var file asset
	if v := ogContent(doc, "og:video:secure_url", "og:video"); v != "" {
		file = asset{url: v, name: shortcode + ".mp4"}
	} else if img := ogContent(doc, "og:image"); img != "" {
		file = asset{url: img, name: shortcode + ".jpg"}
	} else {
		return domain.Failure(domain.ReasonNotFound, errNoMedia)
	}

	log.Info("downloading insta", slog.String("file", file.name))
	if err := download(ctx, s.client, file.url, filepath.Join(dir, file.name)); err != nil {
		return failure(err)
	}

	if desc := ogContent(doc, "og:description"); desc != "" {
		if err := os.WriteFile(filepath.Join(dir, shortcode+".txt"), []byte(desc), 0o644); err != nil {
			return domain.Failure(domain.ReasonBackend, err)
		}
	}
	return domain.Success()
}

func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := get(ctx, s.client, url, http.Header{
		"User-Agent":      {browserAgent},
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": {"en-US,en;q=0.5"},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// ogContent returns the first non-empty content of the given Open Graph
// properties.
func ogContent(doc *goquery.Document, properties ...string) string {
	for _, p := range properties {
		v := doc.Find(fmt.Sprintf(`meta[property=%q]`, p)).First().AttrOr("content", "")
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
