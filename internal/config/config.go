package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// PlaceholderToken is the value shipped in example configs. It is rejected
// like a missing token.
const PlaceholderToken = "YOUR_BOT_TOKEN_HERE"

var (
	ErrMissingToken  = errors.New("bot token not configured")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds application configuration.
type Config struct {
	Token             string            `toml:"token"`
	WorkRoot          string            `toml:"work_root"`
	DBPath            string            `toml:"db_path"`
	HTTPPort          int               `toml:"http_port"`
	HeartbeatInterval time.Duration     `toml:"heartbeat_interval"`
	PingURL           string            `toml:"ping_url"`
	UploadTimeout     time.Duration     `toml:"upload_timeout"`
	MaxFileSize       int64             `toml:"max_file_size"`
	StatusRate        float64           `toml:"status_rate"`
	LogLevel          string            `toml:"log_level"`
	Extractors        []ExtractorConfig `toml:"extractor"`
}

// ExtractorConfig describes one yt-dlp based extractor.
type ExtractorConfig struct {
	Name        string   `toml:"name"`
	Pattern     string   `toml:"pattern"`
	Binary      string   `toml:"binary"`
	Format      string   `toml:"format"`
	MergeFormat string   `toml:"merge_format"`
	Template    string   `toml:"template"`
	ExtraArgs   []string `toml:"extra_args"`
}

const (
	DefaultPattern     = `(?i)(^|[/.@])(youtube\.com|youtu\.be)([/?#:]|$)`
	DefaultBinary      = "yt-dlp"
	DefaultFormat      = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	DefaultMergeFormat = "mp4"
	DefaultTemplate    = "%(playlist_index)s - %(title)s.%(ext)s"
)

// DefaultDBPath returns the default job history path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "playlistbot", "jobs.db")
}

// DefaultExtractor returns the built-in YouTube extractor settings.
func DefaultExtractor() ExtractorConfig {
	return ExtractorConfig{
		Name:        "youtube",
		Pattern:     DefaultPattern,
		Binary:      DefaultBinary,
		Format:      DefaultFormat,
		MergeFormat: DefaultMergeFormat,
		Template:    DefaultTemplate,
	}
}

// Default returns a Config with defaults for everything but the token.
func Default() *Config {
	return &Config{
		WorkRoot:          os.TempDir(),
		DBPath:            DefaultDBPath(),
		HTTPPort:          8080,
		HeartbeatInterval: 10 * time.Minute,
		UploadTimeout:     15 * time.Minute,
		MaxFileSize:       2 << 30,
		StatusRate:        20,
		LogLevel:          "info",
	}
}

// LoadFile merges a TOML file over cfg. A missing file is not an error.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// Normalize fills extractor defaults. With no extractors configured the
// built-in YouTube extractor is used.
func (c *Config) Normalize() {
	c.Token = strings.TrimSpace(c.Token)
	if len(c.Extractors) == 0 {
		c.Extractors = []ExtractorConfig{DefaultExtractor()}
	}
	def := DefaultExtractor()
	for i := range c.Extractors {
		e := &c.Extractors[i]
		if e.Pattern == "" {
			e.Pattern = def.Pattern
		}
		if e.Binary == "" {
			e.Binary = def.Binary
		}
		if e.Format == "" {
			e.Format = def.Format
		}
		if e.MergeFormat == "" {
			e.MergeFormat = def.MergeFormat
		}
		if e.Template == "" {
			e.Template = def.Template
		}
	}
}

// Validate reports configuration the process cannot start with.
func (c *Config) Validate() error {
	if c.Token == "" || c.Token == PlaceholderToken {
		return ErrMissingToken
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max_file_size must be positive", ErrInvalidConfig)
	}
	if c.StatusRate <= 0 {
		return fmt.Errorf("%w: status_rate must be positive", ErrInvalidConfig)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: heartbeat_interval must be positive", ErrInvalidConfig)
	}
	if c.UploadTimeout < time.Minute {
		return fmt.Errorf("%w: upload_timeout must be at least 1m", ErrInvalidConfig)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%w: http_port out of range", ErrInvalidConfig)
	}
	for _, e := range c.Extractors {
		if e.Name == "" {
			return fmt.Errorf("%w: extractor without name", ErrInvalidConfig)
		}
	}
	return nil
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
