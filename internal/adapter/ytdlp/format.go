package ytdlp

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"
)

// Resolution ladder tried from the top, highest first.
var heightLadder = []int{1080, 720, 540, 480}

const formatTemplate = "bestvideo[height<=%d]+bestaudio/best[height<=%d]/mp3/m4a/bestaudio"

// FormatSelector returns the yt-dlp format selector for a maximum height.
func FormatSelector(height int) string {
	return fmt.Sprintf(formatTemplate, height, height)
}

// EstimateBytes estimates the download size of a format. It uses the reported
// size when present, otherwise duration times bitrate. ok is false when
// neither is known.
func EstimateBytes(f Format, duration float64) (size int64, ok bool) {
	if f.FileSize > 0 {
		return int64(f.FileSize), true
	}
	if f.FileSizeApprox > 0 {
		return int64(f.FileSizeApprox), true
	}
	if f.TBR > 0 && duration > 0 {
		// tbr is in kbit/s.
		return int64(duration * f.TBR * 1000 / 8), true
	}
	return 0, false
}

// candidate is the set of formats a selector resolves to; more than one
// means they are merged.
type candidate []Format

func (c candidate) id() string {
	id := ""
	for i, f := range c {
		if i > 0 {
			id += "+"
		}
		id += f.FormatID
	}
	return id
}

func (c candidate) estimate(duration float64) (int64, bool) {
	var total int64
	for _, f := range c {
		size, ok := EstimateBytes(f, duration)
		if !ok {
			return 0, false
		}
		total += size
	}
	return total, true
}

// selectCandidate resolves FormatSelector(height) against the format list the
// way yt-dlp does: formats are listed worst to best, so the last match is
// the best one, and alternatives separated by "/" are tried in order.
func selectCandidate(formats []Format, height int) (candidate, bool) {
	fitsHeight := func(f Format) bool { return f.Height > 0 && f.Height <= height }

	video := last(formats, func(f Format) bool { return f.hasVideo() && !f.hasAudio() && fitsHeight(f) })
	audio := last(formats, func(f Format) bool { return f.hasAudio() && !f.hasVideo() })
	if video != nil && audio != nil {
		return candidate{*video, *audio}, true
	}
	if f := last(formats, func(f Format) bool { return f.hasVideo() && f.hasAudio() && fitsHeight(f) }); f != nil {
		return candidate{*f}, true
	}
	for _, ext := range []string{"mp3", "m4a"} {
		if f := last(formats, func(f Format) bool { return f.Ext == ext }); f != nil {
			return candidate{*f}, true
		}
	}
	if audio != nil {
		return candidate{*audio}, true
	}
	return nil, false
}

func last(formats []Format, match func(Format) bool) *Format {
	for i := len(formats) - 1; i >= 0; i-- {
		if match(formats[i]) {
			return &formats[i]
		}
	}
	return nil
}

// ChooseFormat picks the highest rung of the resolution ladder whose
// estimated size is under maxBytes. Rungs whose size cannot be estimated are
// skipped but remain eligible: if no rung fits, the highest of those is
// returned regardless. ok is false when every rung is known to be too big,
// in which case only sidecar files should be fetched.
func ChooseFormat(info *Info, maxHeight int, maxBytes int64, logger *slog.Logger) (format string, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}

	var heights []int
	for _, h := range heightLadder {
		if h <= maxHeight {
			heights = append(heights, h)
		}
	}
	if len(heights) == 0 {
		heights = []int{maxHeight}
	}
	remaining := slices.Clone(heights)

	for _, height := range heights {
		sel := FormatSelector(height)
		cand, found := selectCandidate(info.Formats, height)
		if !found {
			logger.Info("no format candidate", slog.Int("target_height", height))
			continue
		}
		logger.Info("checking candidate", slog.Int("target_height", height), slog.String("format_id", cand.id()))

		size, known := cand.estimate(info.Duration)
		if !known {
			logger.Error("failed to estimate filesize",
				slog.String("format_id", cand.id()),
				slog.Float64("duration", info.Duration),
			)
			continue
		}

		logger.Info("estimated size",
			slog.String("format_id", cand.id()),
			slog.Int64("estimated_bytes", size),
			slog.String("estimated", humanize.Bytes(uint64(size))),
		)
		if size < maxBytes {
			return sel, true
		}
		remaining = slices.DeleteFunc(remaining, func(h int) bool { return h == height })
	}

	if len(remaining) > 0 {
		return FormatSelector(remaining[0]), true
	}
	return "", false
}
