package dispatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern names.
const (
	TikTok     = "tiktok"
	X          = "x"
	Bluesky    = "bluesky"
	Insta      = "insta"
	VReddit    = "vreddit"
	Reddit     = "reddit"
	YouTube    = "youtube"
	Vimeo      = "vimeo"
	SoundCloud = "soundcloud"
	Bandcamp   = "bandcamp"
)

// DefaultPatterns are the URL families we know how to handle.
var DefaultPatterns = map[string]string{
	TikTok: `https://(www\.tiktok\.com/` +
		`(t/[^/ ]+|@[^/]+/video/\d+|@[^\?]+[^/]+)` +
		`|vm\.tiktok\.com/[^/]+)`,
	X:       `(https://x\.com/[^/]+/status/\d+|https://t.co/[^/]+)`,
	Bluesky: `https://bsky\.app/profile/[^/]+/post/[^/]+`,
	Insta:   `https://www\.instagram\.com/([^/]+/)?(p|reel)/(?P<shortcode>[^/]+).*`,
	VReddit: `https://v\.redd\.it/[^/]+`,
	Reddit:  `https://www\.reddit\.com/(r|user)/[^/]+/(comments|s)/[a-zA-Z0-9_/]+`,
	YouTube: `https://(youtu\.be/[^/]+` +
		`|(www\.)?youtube\.com/shorts/[^/]+` +
		`|(www|m)\.youtube\.com/watch\?v=[^/]+)`,
	Vimeo: `https://(player\.vimeo\.com/video/[^/]+` +
		`|vimeo\.com/[0-9]+[^/]*)`,
	SoundCloud: `https://soundcloud\.com/[^/]+/[^/]+`,
	Bandcamp:   `https://[^\.]+\.bandcamp\.com/track/.*`,
}

// Pattern is a named URL matcher. Matching is case-insensitive and anchored
// at the start of the URL only.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// CompilePattern builds a Pattern from a regular expression.
func CompilePattern(name, expr string) (*Pattern, error) {
	re, err := regexp.Compile(`(?i)^(?:` + expr + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s %q: %w", name, expr, err)
	}
	return &Pattern{Name: name, re: re}, nil
}

// Match returns true if url belongs to this family.
func (p *Pattern) Match(url string) bool {
	return p.re.MatchString(url)
}

// Group returns the named capture group of the first match, or "".
func (p *Pattern) Group(url, group string) string {
	m := p.re.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	if i := p.re.SubexpIndex(group); i >= 0 {
		return m[i]
	}
	return ""
}

// Patterns holds named URL patterns.
type Patterns struct {
	byName map[string]*Pattern
}

// NewPatterns compiles a set of named patterns.
func NewPatterns(exprs map[string]string) (*Patterns, error) {
	p := &Patterns{byName: make(map[string]*Pattern, len(exprs))}
	for name, expr := range exprs {
		if err := p.Register(name, expr); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MustDefaultPatterns compiles DefaultPatterns, panicking on error.
func MustDefaultPatterns() *Patterns {
	p, err := NewPatterns(DefaultPatterns)
	if err != nil {
		panic(err)
	}
	return p
}

// Register adds or replaces a named pattern.
func (p *Patterns) Register(name, expr string) error {
	pat, err := CompilePattern(name, expr)
	if err != nil {
		return err
	}
	p.byName[strings.ToLower(name)] = pat
	return nil
}

// Get returns the pattern called name, or nil.
func (p *Patterns) Get(name string) *Pattern {
	return p.byName[strings.ToLower(name)]
}

// MatchesAny returns true if url matches any of the named patterns.
// Unknown names never match.
func (p *Patterns) MatchesAny(url string, names ...string) bool {
	for _, name := range names {
		if pat := p.Get(name); pat != nil && pat.Match(url) {
			return true
		}
	}
	return false
}
