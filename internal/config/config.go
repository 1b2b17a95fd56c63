// Package config loads tool settings from an optional YAML file with
// environment-variable overrides. Flags handled by the CLI win over both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// CascadePath points at the pigo facefinder cascade; empty disables
	// thumbnail generation.
	CascadePath string `yaml:"cascade_path"`

	OutDir   string `yaml:"out_dir"`
	CacheDir string `yaml:"cache_dir"`

	// Workers bounds parallel segment tasks; 0 means one per CPU core.
	Workers int `yaml:"workers"`

	DefaultAspect string `yaml:"default_aspect"`
	DefaultBucket string `yaml:"default_bucket"`

	// TranscodeTimeoutSec bounds a single transcoder invocation.
	TranscodeTimeoutSec int `yaml:"transcode_timeout_sec"`
}

func Default() Config {
	return Config{
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		OutDir:              "out",
		CacheDir:            ".cache",
		DefaultAspect:       "16:9",
		DefaultBucket:       "3m-5m",
		TranscodeTimeoutSec: 600,
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error; a malformed one
// is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent(&c.FFmpegPath, "CLIPMOMENT_FFMPEG")
	setIfPresent(&c.FFprobePath, "CLIPMOMENT_FFPROBE")
	setIfPresent(&c.CascadePath, "CLIPMOMENT_CASCADE")
	setIfPresent(&c.OutDir, "CLIPMOMENT_OUT_DIR")
	setIfPresent(&c.CacheDir, "CLIPMOMENT_CACHE_DIR")
	if v := os.Getenv("CLIPMOMENT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.FFmpegPath == "" {
		return errors.New("ffmpeg path is empty")
	}
	if c.FFprobePath == "" {
		return errors.New("ffprobe path is empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.TranscodeTimeoutSec <= 0 {
		return fmt.Errorf("transcode timeout must be > 0, got %d", c.TranscodeTimeoutSec)
	}
	return nil
}
