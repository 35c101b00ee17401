package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the XDG dirs at a scratch location and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "LOOTDROP_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return root
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() error = %v", err)
		}
		if path != "/custom/config/lootdrop/config.toml" {
			t.Errorf("ConfigPath() = %q", path)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() error = %v", err)
		}
		if !strings.HasSuffix(path, filepath.Join(".config", "lootdrop", "config.toml")) {
			t.Errorf("ConfigPath() = %q, want suffix .config/lootdrop/config.toml", path)
		}
	})
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error = %v", err)
	}
	if dir != "/custom/cache/lootdrop" {
		t.Errorf("CacheDir() = %q", dir)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Telegram.Timeout != 120*time.Second {
		t.Errorf("Telegram.Timeout = %v, want 120s", cfg.Telegram.Timeout)
	}
	if cfg.Limits.MaxUploadBytes() != 50_000_000 {
		t.Errorf("MaxUploadBytes() = %d, want 50000000", cfg.Limits.MaxUploadBytes())
	}
	if cfg.Limits.MaxGroupSize != 10 || cfg.Limits.MaxCaptionChars != 1024 || cfg.Limits.CollapseAtChars != 300 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Retry.MaxAttempts != 10 || cfg.Retry.MaxElapsed != 45*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tools.YtDlp != "yt-dlp" {
		t.Errorf("Tools.YtDlp = %q, want default", cfg.Tools.YtDlp)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	root := isolate(t)

	if _, err := Load(filepath.Join(root, "nope.toml")); err == nil {
		t.Error("Load() error = nil, want error for missing explicit file")
	}
}

func TestLoad_TOML(t *testing.T) {
	root := isolate(t)
	path := writeFile(t, root, "config.toml", `
temp_dir = "/var/tmp/loot"

[telegram]
token = "123:abc"
timeout = "30s"

[limits]
max_upload_mb = 20
max_height = 720

[retry]
max_attempts = 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Telegram.Timeout)
	}
	if cfg.Limits.MaxUploadMB != 20 || cfg.Limits.MaxHeight != 720 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	// Unset keys keep their defaults.
	if cfg.Limits.MaxGroupSize != 10 {
		t.Errorf("MaxGroupSize = %d, want default 10", cfg.Limits.MaxGroupSize)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.MaxInterval != 5*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.TempDir != "/var/tmp/loot" {
		t.Errorf("TempDir = %q", cfg.TempDir)
	}
}

func TestLoad_YAML(t *testing.T) {
	root := isolate(t)
	path := writeFile(t, root, "config.yaml", `
telegram:
  token: "123:abc"
webhook:
  url: https://bot.example.com/webhook
  secret: s3cret
log:
  format: json
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Webhook.URL != "https://bot.example.com/webhook" || cfg.Webhook.Secret != "s3cret" {
		t.Errorf("Webhook = %+v", cfg.Webhook)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	root := isolate(t)
	path := writeFile(t, root, "config.toml", `
[telegram]
token = "from-file"
`)
	t.Setenv("LOOTDROP_TOKEN", "from-env")
	t.Setenv("LOOTDROP_MAX_GROUP_SIZE", "4")
	t.Setenv("LOOTDROP_RETRY_MAX_ELAPSED", "2m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", cfg.Telegram.Token)
	}
	if cfg.Limits.MaxGroupSize != 4 {
		t.Errorf("MaxGroupSize = %d, want 4", cfg.Limits.MaxGroupSize)
	}
	if cfg.Retry.MaxElapsed != 2*time.Minute {
		t.Errorf("MaxElapsed = %v, want 2m", cfg.Retry.MaxElapsed)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unknown extension", file: "config.ini", content: "token=x"},
		{name: "malformed toml", file: "config.toml", content: "[telegram\ntoken="},
		{name: "malformed yaml", file: "config.yml", content: "telegram: [unclosed"},
		{name: "group too large", file: "config.toml", content: "[limits]\nmax_group_size = 11"},
		{name: "collapse threshold zero", file: "config.toml", content: "[limits]\ncollapse_at_chars = 0"},
		{name: "bad log format", file: "config.toml", content: "[log]\nformat = \"xml\""},
		{name: "bad webhook url", file: "config.toml", content: "[webhook]\nurl = \"not a url\""},
		{name: "max interval below initial", file: "config.toml", content: "[retry]\ninitial_interval = \"10s\"\nmax_interval = \"1s\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := isolate(t)
			path := writeFile(t, root, tt.file, tt.content)

			if _, err := Load(path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireToken(); err == nil {
		t.Error("RequireToken() error = nil, want error without token")
	}

	cfg.Telegram.Token = "123:abc"
	if err := cfg.RequireToken(); err != nil {
		t.Errorf("RequireToken() error = %v", err)
	}
}

func TestCookieFile(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		isolate(t)
		path, err := Default().CookieFile()
		if err != nil || path != "" {
			t.Errorf("CookieFile() = %q, %v; want empty", path, err)
		}
	})

	t.Run("file", func(t *testing.T) {
		isolate(t)
		cfg := Default()
		cfg.Cookies.File = "/etc/lootdrop/cookies.txt"

		path, err := cfg.CookieFile()
		if err != nil || path != "/etc/lootdrop/cookies.txt" {
			t.Errorf("CookieFile() = %q, %v", path, err)
		}
	})

	t.Run("content is materialized", func(t *testing.T) {
		root := isolate(t)
		cfg := Default()
		cfg.Cookies.Content = "# Netscape HTTP Cookie File\n"
		cfg.Cookies.File = "/ignored"

		path, err := cfg.CookieFile()
		if err != nil {
			t.Fatalf("CookieFile() error = %v", err)
		}
		if want := filepath.Join(root, "cache", "lootdrop", "cookies.txt"); path != want {
			t.Errorf("CookieFile() = %q, want %q", path, want)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != cfg.Cookies.Content {
			t.Errorf("cookie file = %q", data)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("cookie file mode = %v, want 0600", info.Mode().Perm())
		}
	})
}
