package instagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cwygoda/lootdrop/internal/domain"
)

const (
	browserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"
	appAgent     = "Instagram 269.0.0.18.75 Android (26/8.0.0; 480dpi; 1080x1920; OnePlus; 6T Dev; devitron; qcom; en_US; 314665256)"
	appID        = "936619743392459"
)

// NewHTTPClient creates the client both tiers share. jar may be nil.
func NewHTTPClient(jar http.CookieJar) *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Jar:     jar,
	}
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.url, e.code)
}

// get issues a GET request and fails on any non-200 status.
func get(ctx context.Context, client *http.Client, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &statusError{url: url, code: resp.StatusCode}
	}
	return resp, nil
}

// download saves the body at url to path.
func download(ctx context.Context, client *http.Client, url, path string) error {
	resp, err := get(ctx, client, url, http.Header{"User-Agent": {browserAgent}})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("saving %s: %w", url, err)
	}
	return f.Close()
}

// failure maps a request error onto a tier outcome.
func failure(err error) domain.Outcome {
	var se *statusError
	if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusGone) {
		return domain.Failure(domain.ReasonNotFound, err)
	}
	return domain.Failure(domain.ReasonBackend, err)
}
