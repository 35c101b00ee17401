package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwygoda/lootdrop/internal/domain"
)

const defaultAPIBase = "https://i.instagram.com"

// Instagram media types.
const (
	mediaPhoto = 1
	mediaVideo = 2
	mediaAlbum = 8
)

type rendition struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func best(rs []rendition) (rendition, bool) {
	if len(rs) == 0 {
		return rendition{}, false
	}
	top := rs[0]
	for _, r := range rs[1:] {
		if r.Width*r.Height > top.Width*top.Height {
			top = r
		}
	}
	return top, top.URL != ""
}

type mediaItem struct {
	Code        string `json:"code"`
	MediaType   int    `json:"media_type"`
	ProductType string `json:"product_type"`
	Caption     *struct {
		Text string `json:"text"`
	} `json:"caption"`
	ImageVersions struct {
		Candidates []rendition `json:"candidates"`
	} `json:"image_versions2"`
	VideoVersions []rendition `json:"video_versions"`
	CarouselMedia []mediaItem `json:"carousel_media"`
}

type mediaInfo struct {
	Items []mediaItem `json:"items"`
}

// asset is one file to save for a post.
type asset struct {
	url  string
	name string
}

func photo(item mediaItem, name string) (asset, bool) {
	r, ok := best(item.ImageVersions.Candidates)
	return asset{url: r.URL, name: name + ".jpg"}, ok
}

func video(item mediaItem, name string) (asset, bool) {
	r, ok := best(item.VideoVersions)
	return asset{url: r.URL, name: name + ".mp4"}, ok
}

// assets lists what to download for a post, keyed on its media and product
// type. ok is false for kinds we have no downloader for.
func assets(item mediaItem) ([]asset, bool) {
	name := item.Code
	switch item.MediaType {
	case mediaPhoto:
		a, ok := photo(item, name)
		return []asset{a}, ok
	case mediaVideo:
		switch item.ProductType {
		case "feed", "igtv", "clips":
			a, ok := video(item, name)
			return []asset{a}, ok
		}
	case mediaAlbum:
		var out []asset
		for i, member := range item.CarouselMedia {
			memberName := fmt.Sprintf("%s_%02d", name, i+1)
			a, ok := video(member, memberName)
			if !ok {
				a, ok = photo(member, memberName)
			}
			if !ok {
				return nil, false
			}
			out = append(out, a)
		}
		return out, len(out) > 0
	}
	return nil, false
}

// APIClient is the structured tier. It needs a logged-in session.
type APIClient struct {
	client    *http.Client
	baseURL   string
	sessionID string
	logger    *slog.Logger
}

// NewAPIClient creates the API tier. baseURL defaults to Instagram's
// private API host.
func NewAPIClient(client *http.Client, baseURL, sessionID string, logger *slog.Logger) *APIClient {
	if client == nil {
		client = NewHTTPClient(nil)
	}
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIClient{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		logger:    logger.With(slog.String("downloader", "instagram-api")),
	}
}

// Fetch downloads the post with the given shortcode into dir, plus its
// caption as a text file.
func (c *APIClient) Fetch(ctx context.Context, shortcode, dir string) domain.Outcome {
	pk, err := MediaPK(shortcode)
	if err != nil {
		return domain.Failure(domain.ReasonNotFound, err)
	}
	log := c.logger.With(slog.String("shortcode", shortcode), slog.String("pk", pk))

	item, err := c.mediaInfo(ctx, pk)
	if err != nil {
		return failure(err)
	}
	if item.Code == "" {
		item.Code = shortcode
	}

	files, ok := assets(item)
	if !ok {
		log.Error("unknown media type",
			slog.Int("media_type", item.MediaType),
			slog.String("product_type", item.ProductType),
		)
		return domain.Failure(domain.ReasonUnrecognized,
			fmt.Errorf("media type %d/%q", item.MediaType, item.ProductType))
	}

	log.Info("downloading insta", slog.Int("files", len(files)))
	for _, f := range files {
		if err := download(ctx, c.client, f.url, filepath.Join(dir, f.name)); err != nil {
			return failure(err)
		}
	}

	if item.Caption != nil && strings.TrimSpace(item.Caption.Text) != "" {
		path := filepath.Join(dir, item.Code+".txt")
		if err := os.WriteFile(path, []byte(item.Caption.Text), 0o644); err != nil {
			return domain.Failure(domain.ReasonBackend, err)
		}
	}
	return domain.Success()
}

func (c *APIClient) mediaInfo(ctx context.Context, pk string) (mediaItem, error) {
	url := fmt.Sprintf("%s/api/v1/media/%s/info/", c.baseURL, pk)
	resp, err := get(ctx, c.client, url, http.Header{
		"User-Agent":  {appAgent},
		"X-Ig-App-Id": {appID},
		"Cookie":      {"sessionid=" + c.sessionID},
	})
	if err != nil {
		return mediaItem{}, err
	}
	defer resp.Body.Close()

	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return mediaItem{}, fmt.Errorf("decode media info: %w", err)
	}
	if len(info.Items) == 0 {
		return mediaItem{}, &statusError{url: url, code: http.StatusNotFound}
	}
	return info.Items[0], nil
}
