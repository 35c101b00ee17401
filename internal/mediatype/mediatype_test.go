package mediatype

import "testing"

func TestByExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"mp4", "video/mp4"},
		{".MP4", "video/mp4"},
		{"m4a", "audio/mp4"},
		{"mp3", "audio/mpeg"},
		{"webm", "video/webm"},
		{"jpg", "image/jpeg"},
		{".txt", "text/plain"},
		{"", ""},
		{"definitely-not-an-extension", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := ByExtension(tt.ext); got != tt.want {
				t.Errorf("ByExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestByFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"/tmp/x/abc123.mkv", "video/x-matroska"},
		{"thumb.PNG", "image/png"},
		{"abc123.description", ""},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByFilename(tt.name); got != tt.want {
				t.Errorf("ByFilename(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFamily(t *testing.T) {
	if got := Family("video/mp4"); got != "video" {
		t.Errorf("Family() = %q, want video", got)
	}
	if got := Family(""); got != "" {
		t.Errorf("Family(\"\") = %q, want empty", got)
	}
}
