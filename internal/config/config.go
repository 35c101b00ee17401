// Package config loads lootdrop settings from a TOML or YAML file with
// LOOTDROP_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const appName = "lootdrop"

// Config holds application configuration.
type Config struct {
	Telegram  TelegramConfig  `toml:"telegram" yaml:"telegram"`
	Webhook   WebhookConfig   `toml:"webhook" yaml:"webhook"`
	Limits    LimitsConfig    `toml:"limits" yaml:"limits"`
	Instagram InstagramConfig `toml:"instagram" yaml:"instagram"`
	Cookies   CookiesConfig   `toml:"cookies" yaml:"cookies"`
	Retry     RetryConfig     `toml:"retry" yaml:"retry"`
	Tools     ToolsConfig     `toml:"tools" yaml:"tools"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	TempDir   string          `toml:"temp_dir" yaml:"temp_dir" env:"LOOTDROP_TEMP_DIR"`
}

type TelegramConfig struct {
	Token       string        `toml:"token" yaml:"token" env:"LOOTDROP_TOKEN"`
	Endpoint    string        `toml:"api_endpoint" yaml:"api_endpoint" env:"LOOTDROP_API_ENDPOINT"`
	Timeout     time.Duration `toml:"timeout" yaml:"timeout" env:"LOOTDROP_TIMEOUT" validate:"gt=0"`
	PollTimeout time.Duration `toml:"poll_timeout" yaml:"poll_timeout" env:"LOOTDROP_POLL_TIMEOUT" validate:"gt=0"`
}

// WebhookConfig switches `run` from long polling to a webhook server when
// URL is set.
type WebhookConfig struct {
	URL    string `toml:"url" yaml:"url" env:"LOOTDROP_WEBHOOK_URL" validate:"omitempty,url"`
	Addr   string `toml:"addr" yaml:"addr" env:"LOOTDROP_WEBHOOK_ADDR" validate:"required_with=URL"`
	Secret string `toml:"secret" yaml:"secret" env:"LOOTDROP_WEBHOOK_SECRET"`
}

type LimitsConfig struct {
	MaxUploadMB     int `toml:"max_upload_mb" yaml:"max_upload_mb" env:"LOOTDROP_MAX_UPLOAD_MB" validate:"gt=0"`
	MaxGroupSize    int `toml:"max_group_size" yaml:"max_group_size" env:"LOOTDROP_MAX_GROUP_SIZE" validate:"gte=2,lte=10"`
	MaxCaptionChars int `toml:"max_caption_chars" yaml:"max_caption_chars" env:"LOOTDROP_MAX_CAPTION_CHARS" validate:"gt=0"`
	CollapseAtChars int `toml:"collapse_at_chars" yaml:"collapse_at_chars" env:"LOOTDROP_COLLAPSE_AT_CHARS" validate:"gt=0"`
	MaxHeight       int `toml:"max_height" yaml:"max_height" env:"LOOTDROP_MAX_HEIGHT" validate:"gt=0"`
}

// MaxUploadBytes is the upload ceiling in bytes.
func (l LimitsConfig) MaxUploadBytes() int64 {
	return int64(l.MaxUploadMB) * 1_000_000
}

type InstagramConfig struct {
	SessionID string `toml:"session_id" yaml:"session_id" env:"LOOTDROP_INSTAGRAM_SESSION_ID"`
}

// CookiesConfig points at a Netscape cookie file, or carries its content
// inline. Content wins when both are set.
type CookiesConfig struct {
	Content string `toml:"content" yaml:"content" env:"LOOTDROP_COOKIES"`
	File    string `toml:"file" yaml:"file" env:"LOOTDROP_COOKIES_FILE"`
}

type RetryConfig struct {
	MaxAttempts     int           `toml:"max_attempts" yaml:"max_attempts" env:"LOOTDROP_RETRY_MAX_ATTEMPTS" validate:"gte=1"`
	InitialInterval time.Duration `toml:"initial_interval" yaml:"initial_interval" env:"LOOTDROP_RETRY_INITIAL_INTERVAL" validate:"gt=0"`
	MaxInterval     time.Duration `toml:"max_interval" yaml:"max_interval" env:"LOOTDROP_RETRY_MAX_INTERVAL" validate:"gtefield=InitialInterval"`
	MaxElapsed      time.Duration `toml:"max_elapsed" yaml:"max_elapsed" env:"LOOTDROP_RETRY_MAX_ELAPSED" validate:"gt=0"`
}

type ToolsConfig struct {
	YtDlp       string `toml:"yt_dlp" yaml:"yt_dlp" env:"LOOTDROP_YT_DLP" validate:"required"`
	GalleryDl   string `toml:"gallery_dl" yaml:"gallery_dl" env:"LOOTDROP_GALLERY_DL" validate:"required"`
	Impersonate bool   `toml:"impersonate" yaml:"impersonate" env:"LOOTDROP_IMPERSONATE"`
}

type LogConfig struct {
	Format string `toml:"format" yaml:"format" env:"LOOTDROP_LOG_FORMAT" validate:"oneof=console json"`
	Level  string `toml:"level" yaml:"level" env:"LOOTDROP_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Timeout:     120 * time.Second,
			PollTimeout: 60 * time.Second,
		},
		Webhook: WebhookConfig{
			Addr: ":8080",
		},
		Limits: LimitsConfig{
			MaxUploadMB:     50,
			MaxGroupSize:    10,
			MaxCaptionChars: 1024,
			CollapseAtChars: 300,
			MaxHeight:       1080,
		},
		Retry: RetryConfig{
			MaxAttempts:     10,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			MaxElapsed:      45 * time.Second,
		},
		Tools: ToolsConfig{
			YtDlp:     "yt-dlp",
			GalleryDl: "gallery-dl",
		},
		Log: LogConfig{
			Format: "console",
			Level:  "info",
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}

// ConfigPath returns the path to the default config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path, or the default path when empty,
// merges it over the defaults and applies environment overrides. A missing
// default file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks config values are within acceptable bounds. The bot
// token is checked separately by RequireToken since only `run` needs it.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// RequireToken fails when no bot token is configured.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram token is required (set telegram.token or LOOTDROP_TOKEN)")
	}
	return nil
}

// CookieFile returns the path of the Netscape cookie file to hand to the
// extraction tools, writing inline cookie content under the cache dir
// first. It returns "" when no cookies are configured.
func (c *Config) CookieFile() (string, error) {
	if c.Cookies.Content == "" {
		return expandHome(c.Cookies.File), nil
	}

	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(dir, "cookies.txt")
	if err := os.WriteFile(path, []byte(c.Cookies.Content), 0o600); err != nil {
		return "", fmt.Errorf("writing cookie file: %w", err)
	}
	return path, nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
