// Package mediatype maps file extensions to MIME types and media families.
// A built-in table covers the formats download tools produce, so results do
// not depend on which mime.types files the host happens to have installed.
package mediatype

import (
	"mime"
	"path/filepath"
	"strings"
)

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".wav":  "audio/x-wav",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".json": "application/json",
	".html": "text/html",
}

// ByExtension returns the MIME type for ext (with or without the leading
// dot), or "" if unknown.
func ByExtension(ext string) string {
	if ext == "" {
		return ""
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return ""
}

// ByFilename returns the MIME type guessed from name's extension.
func ByFilename(name string) string {
	return ByExtension(filepath.Ext(name))
}

// Family returns the top-level type of a MIME type, e.g. "video".
func Family(mimeType string) string {
	family, _, _ := strings.Cut(mimeType, "/")
	return family
}
