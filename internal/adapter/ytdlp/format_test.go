package ytdlp

import (
	"io"
	"log/slog"
	"strconv"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEstimateBytes(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		duration float64
		want     int64
		wantOK   bool
	}{
		{name: "reported size", format: Format{FileSize: 1234, FileSizeApprox: 99}, want: 1234, wantOK: true},
		{name: "approximate size", format: Format{FileSizeApprox: 5678}, want: 5678, wantOK: true},
		{name: "bitrate and duration", format: Format{TBR: 800}, duration: 10, want: 1_000_000, wantOK: true},
		{name: "bitrate without duration", format: Format{TBR: 800}, wantOK: false},
		{name: "nothing known", format: Format{}, duration: 10, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateBytes(tt.format, tt.duration)
			if ok != tt.wantOK {
				t.Fatalf("EstimateBytes() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("EstimateBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectCandidate(t *testing.T) {
	formats := []Format{
		{FormatID: "a-low", Ext: "m4a", VCodec: "none", ACodec: "mp4a"},
		{FormatID: "a-high", Ext: "webm", VCodec: "none", ACodec: "opus"},
		{FormatID: "v480", Ext: "mp4", Height: 480, VCodec: "avc1", ACodec: "none"},
		{FormatID: "v720", Ext: "mp4", Height: 720, VCodec: "avc1", ACodec: "none"},
		{FormatID: "v1080", Ext: "mp4", Height: 1080, VCodec: "avc1", ACodec: "none"},
		{FormatID: "sb0", Ext: "mhtml", VCodec: "none", ACodec: "none"},
	}

	tests := []struct {
		name    string
		formats []Format
		height  int
		want    string
		wantOK  bool
	}{
		{name: "merge best fitting video with best audio", formats: formats, height: 720, want: "v720+a-high", wantOK: true},
		{name: "top rung", formats: formats, height: 1080, want: "v1080+a-high", wantOK: true},
		{
			name: "combined format",
			formats: []Format{
				{FormatID: "c360", Height: 360, Ext: "mp4"},
				{FormatID: "c720", Height: 720, Ext: "mp4"},
				{FormatID: "c1080", Height: 1080, Ext: "mp4"},
			},
			height: 720, want: "c720", wantOK: true,
		},
		{
			name:    "audio site prefers mp3",
			formats: []Format{{FormatID: "hls-opus", Ext: "opus", VCodec: "none"}, {FormatID: "mp3-128", Ext: "mp3", VCodec: "none"}},
			height:  1080, want: "mp3-128", wantOK: true,
		},
		{
			name:    "bestaudio fallback",
			formats: []Format{{FormatID: "opus", Ext: "opus", VCodec: "none", ACodec: "opus"}},
			height:  1080, want: "opus", wantOK: true,
		},
		{
			name:    "nothing usable",
			formats: []Format{{FormatID: "sb0", Ext: "mhtml", VCodec: "none", ACodec: "none"}},
			height:  1080, wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectCandidate(tt.formats, tt.height)
			if ok != tt.wantOK {
				t.Fatalf("selectCandidate() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.id() != tt.want {
				t.Errorf("selectCandidate() = %s, want %s", got.id(), tt.want)
			}
		})
	}
}

func ladderInfo(sizes map[int]float64) *Info {
	info := &Info{Duration: 60}
	info.Formats = append(info.Formats, Format{FormatID: "audio", Ext: "m4a", VCodec: "none", ACodec: "mp4a", FileSize: 1_000_000})
	for _, h := range []int{480, 540, 720, 1080} {
		size, ok := sizes[h]
		if !ok {
			continue
		}
		info.Formats = append(info.Formats, Format{
			FormatID: "v" + strconv.Itoa(h),
			Ext:      "mp4",
			Height:   h,
			VCodec:   "avc1",
			ACodec:   "none",
			FileSize: size,
		})
	}
	return info
}

func TestChooseFormat(t *testing.T) {
	const limit = 50_000_000

	tests := []struct {
		name      string
		info      *Info
		maxHeight int
		want      string
		wantOK    bool
	}{
		{
			name:      "top rung fits",
			info:      ladderInfo(map[int]float64{1080: 20_000_000, 720: 10_000_000}),
			maxHeight: 1080,
			want:      FormatSelector(1080),
			wantOK:    true,
		},
		{
			name:      "degrades to first fitting rung",
			info:      ladderInfo(map[int]float64{1080: 90_000_000, 720: 60_000_000, 540: 30_000_000, 480: 20_000_000}),
			maxHeight: 1080,
			want:      FormatSelector(540),
			wantOK:    true,
		},
		{
			name:      "all rungs too big skips download",
			info:      ladderInfo(map[int]float64{1080: 90_000_000, 720: 80_000_000, 540: 70_000_000, 480: 60_000_000}),
			maxHeight: 1080,
			wantOK:    false,
		},
		{
			name:      "max height caps the ladder",
			info:      ladderInfo(map[int]float64{1080: 10_000_000, 720: 10_000_000}),
			maxHeight: 720,
			want:      FormatSelector(720),
			wantOK:    true,
		},
		{
			name:      "max height below ladder",
			info:      ladderInfo(map[int]float64{480: 10_000_000}),
			maxHeight: 360,
			want:      FormatSelector(360),
			wantOK:    true,
		},
		{
			name: "unknown sizes fall back to highest remaining rung",
			info: &Info{Formats: []Format{
				{FormatID: "c", Ext: "mp4", Height: 1080},
			}},
			maxHeight: 1080,
			want:      FormatSelector(1080),
			wantOK:    true,
		},
		{
			name: "too big rungs are dropped before the fallback",
			info: &Info{Duration: 10, Formats: []Format{
				{FormatID: "c480", Ext: "mp4", Height: 480},
				{FormatID: "c1080", Ext: "mp4", Height: 1080, FileSize: 90_000_000},
			}},
			maxHeight: 1080,
			want:      FormatSelector(720),
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ChooseFormat(tt.info, tt.maxHeight, limit, discard)
			if ok != tt.wantOK {
				t.Fatalf("ChooseFormat() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ChooseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}
