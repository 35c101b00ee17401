package worker

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cwygoda/lootdrop/internal/adapter/command"
	"github.com/cwygoda/lootdrop/internal/adapter/ytdlp"
)

const clipInfo = `{"id": "abc", "ext": "mp4", "duration": 10,
	"formats": [{"format_id": "18", "ext": "mp4", "height": 360, "filesize": 1000}]}`

// flakyYtdlp fails the first metadata call the way yt-dlp reports a server
// error, then serves metadata and writes the download into the work dir.
type flakyYtdlp struct {
	mu    sync.Mutex
	calls int
}

func (r *flakyYtdlp) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	switch {
	case r.calls == 1:
		return nil, &command.Error{
			Command: name,
			Stderr:  "ERROR: [youtube] abc: Unable to download webpage: HTTP Error 503: Service Unavailable\n",
			Err:     &exec.ExitError{},
		}
	case dir == "":
		return []byte(clipInfo), nil
	default:
		return nil, os.WriteFile(filepath.Join(dir, "abc.mp4"), []byte("video"), 0o644)
	}
}

func TestProcessJobRetriesYtdlpServerError(t *testing.T) {
	runner := &flakyYtdlp{}
	client := ytdlp.NewClient("yt-dlp", "", false, runner, discard)
	d := &mockDispatcher{handler: ytdlp.NewVideoHandler(client, 50_000_000, 1080)}
	s := &mockSender{}
	w := newTestWorker(t, d, s, Options{})

	w.HandleMessage(context.Background(), message("https://youtu.be/abc"))

	// failed info, then info and download
	if runner.calls != 3 {
		t.Errorf("yt-dlp calls = %d, want 3", runner.calls)
	}
	if len(s.deliveries) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(s.deliveries))
	}
	if got := s.deliveries[0].batch.Video; len(got) != 1 || filepath.Base(got[0].Path) != "abc.mp4" {
		t.Errorf("delivered video = %+v, want abc.mp4", got)
	}
}
