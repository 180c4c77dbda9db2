// Package config loads the service configuration from a single YAML file
// and applies defaults for anything the file leaves out.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Redis struct {
		Addr string `yaml:"addr"` // empty means in-process store and queue
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Uploads struct {
		Dir                     string  `yaml:"dir"`
		MaxFileSizeBytes        int64   `yaml:"max_file_size_bytes"`
		MaxAudioDurationSeconds float64 `yaml:"max_audio_duration_seconds"`
	} `yaml:"uploads"`

	Pipeline struct {
		SampleRate         int     `yaml:"sample_rate"`
		ClipPaddingSeconds float64 `yaml:"clip_padding_seconds"`
		MergeGapSeconds    float64 `yaml:"merge_gap_seconds"`
		Workers            int     `yaml:"workers"`
	} `yaml:"pipeline"`

	Diarization struct {
		Mode           string `yaml:"mode"` // "real" or "stub"
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"diarization"`

	Transcription struct {
		Mode           string `yaml:"mode"` // "real" or "stub"
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"transcription"`

	Ollama struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`

	Archive struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"archive"`
}

// Load reads the YAML file at path and fills in defaults. A missing file is
// an error; an empty file yields the default configuration.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.MaxFileSizeBytes == 0 {
		c.Uploads.MaxFileSizeBytes = 500 * 1024 * 1024
	}
	if c.Uploads.MaxAudioDurationSeconds == 0 {
		c.Uploads.MaxAudioDurationSeconds = 2 * 60 * 60
	}
	if c.Pipeline.SampleRate == 0 {
		c.Pipeline.SampleRate = 16000
	}
	if c.Pipeline.ClipPaddingSeconds == 0 {
		c.Pipeline.ClipPaddingSeconds = 0.15
	}
	if c.Pipeline.MergeGapSeconds == 0 {
		c.Pipeline.MergeGapSeconds = 2.0
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = 2
	}
	if c.Diarization.Mode == "" {
		c.Diarization.Mode = "stub"
	}
	if c.Diarization.TimeoutSeconds == 0 {
		c.Diarization.TimeoutSeconds = 600
	}
	if c.Transcription.Mode == "" {
		c.Transcription.Mode = "stub"
	}
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = 120
	}
	if c.Ollama.Host == "" {
		c.Ollama.Host = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.1:8b"
	}
	if c.Archive.Path == "" {
		c.Archive.Path = "transcripts.db"
	}
}

func (c *Config) validate() error {
	for name, mode := range map[string]string{
		"diarization":   c.Diarization.Mode,
		"transcription": c.Transcription.Mode,
	} {
		if mode != "real" && mode != "stub" {
			return fmt.Errorf("config: %s.mode must be real or stub, got %q", name, mode)
		}
	}
	if c.Diarization.Mode == "real" && c.Diarization.URL == "" {
		return fmt.Errorf("config: diarization.url required when diarization.mode is real")
	}
	if c.Transcription.Mode == "real" && c.Transcription.URL == "" {
		return fmt.Errorf("config: transcription.url required when transcription.mode is real")
	}
	return nil
}
