// Package config loads tool settings from an optional YAML file plus
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default values applied when neither config file nor environment set them.
const (
	DefaultMaxWorkers = 3
	MaxWorkersLimit   = 8
	DefaultModel      = "small"
	DefaultWhisperBin = "whisper"
)

// Config holds every tunable of the tool.
type Config struct {
	// OutputRoot is the directory transcripts are written under, laid out
	// as <root>/<platform>/<uploader>/.
	OutputRoot string `mapstructure:"output_dir"`

	// MaxWorkers is the default worker-count bound for batch export.
	MaxWorkers int `mapstructure:"max_workers"`

	// WhisperBin is the speech-to-text executable invoked for videos
	// without official subtitles.
	WhisperBin string `mapstructure:"whisper_bin"`

	// Model is the default Whisper model tier.
	Model string `mapstructure:"model"`

	// BilibiliCookieFile and YouTubeCookieFile point to exported browser
	// cookies, used when a platform rejects anonymous catalog listing.
	BilibiliCookieFile string `mapstructure:"bilibili_cookie_file"`
	YouTubeCookieFile  string `mapstructure:"youtube_cookie_file"`
}

// Load reads vidscribe.yaml from the working directory or
// ~/.config/vidscribe, then applies TRANSCRIBE_* environment overrides.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("vidscribe")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "vidscribe"))
	}

	v.SetEnvPrefix("TRANSCRIBE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("bilibili_cookie_file", "BILIBILI_COOKIE_FILE")
	_ = v.BindEnv("youtube_cookie_file", "YOUTUBE_COOKIE_FILE")

	v.SetDefault("output_dir", "")
	v.SetDefault("max_workers", DefaultMaxWorkers)
	v.SetDefault("whisper_bin", DefaultWhisperBin)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("bilibili_cookie_file", "bilibili_cookie.txt")
	v.SetDefault("youtube_cookie_file", "youtube_cookie.txt")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.OutputRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.OutputRoot = filepath.Join(home, "VideoTranscripts")
	}
	cfg.MaxWorkers = ClampWorkers(cfg.MaxWorkers)

	return &cfg, nil
}

// ClampWorkers bounds a worker count to the supported 1..8 range.
func ClampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkersLimit {
		return MaxWorkersLimit
	}
	return n
}
