package ytdlp

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Format is one downloadable rendition reported by yt-dlp.
type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	FileSize       float64 `json:"filesize"`
	FileSizeApprox float64 `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
}

// An absent codec means unknown, which yt-dlp treats as present.
func (f Format) hasVideo() bool { return f.VCodec != "none" }
func (f Format) hasAudio() bool { return f.ACodec != "none" }

// Info is the metadata yt-dlp reports for a URL.
type Info struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Ext      string   `json:"ext"`
	Duration float64  `json:"duration"`
	Formats  []Format `json:"formats"`
}

// ParseInfo decodes the output of yt-dlp --dump-single-json.
func ParseInfo(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode yt-dlp info: %w", err)
	}
	return &info, nil
}

// Extensions returns the distinct file extensions across all formats,
// falling back to the top-level extension for single-format media.
func (i *Info) Extensions() []string {
	var exts []string
	for _, f := range i.Formats {
		if f.Ext != "" {
			exts = append(exts, f.Ext)
		}
	}
	if len(exts) == 0 && i.Ext != "" {
		exts = append(exts, i.Ext)
	}
	slices.Sort(exts)
	return slices.Compact(exts)
}
