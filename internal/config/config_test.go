package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port: got %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host default: got %q", cfg.Server.Host)
	}
	if cfg.Pipeline.SampleRate != 16000 {
		t.Errorf("SampleRate default: got %d", cfg.Pipeline.SampleRate)
	}
	if cfg.Pipeline.ClipPaddingSeconds != 0.15 {
		t.Errorf("ClipPaddingSeconds default: got %v", cfg.Pipeline.ClipPaddingSeconds)
	}
	if cfg.Pipeline.MergeGapSeconds != 2.0 {
		t.Errorf("MergeGapSeconds default: got %v", cfg.Pipeline.MergeGapSeconds)
	}
	if cfg.Diarization.Mode != "stub" || cfg.Transcription.Mode != "stub" {
		t.Errorf("Mode defaults: diarization=%q transcription=%q",
			cfg.Diarization.Mode, cfg.Transcription.Mode)
	}
	if cfg.Uploads.MaxAudioDurationSeconds != 7200 {
		t.Errorf("MaxAudioDurationSeconds default: got %v", cfg.Uploads.MaxAudioDurationSeconds)
	}
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  host: 127.0.0.1
  port: 8080
redis:
  addr: localhost:6379
  db: 2
uploads:
  dir: /var/uploads
  max_file_size_bytes: 1048576
pipeline:
  workers: 4
diarization:
  mode: real
  url: http://diarizer:9090
transcription:
  mode: real
  url: ws://vosk:2700
ollama:
  enabled: true
  model: mistral
archive:
  enabled: true
  path: /data/transcripts.db
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis: %+v", cfg.Redis)
	}
	if cfg.Uploads.MaxFileSizeBytes != 1048576 {
		t.Errorf("MaxFileSizeBytes: got %d", cfg.Uploads.MaxFileSizeBytes)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Workers: got %d", cfg.Pipeline.Workers)
	}
	if !cfg.Ollama.Enabled || cfg.Ollama.Model != "mistral" {
		t.Errorf("Ollama: %+v", cfg.Ollama)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Path != "/data/transcripts.db" {
		t.Errorf("Archive: %+v", cfg.Archive)
	}
}

func TestLoadRejectsBadMode(t *testing.T) {
	_, err := Load(writeConfig(t, "diarization:\n  mode: mock\n"))
	if err == nil {
		t.Fatal("Expected error for unknown mode")
	}
}

func TestLoadRequiresURLForRealMode(t *testing.T) {
	_, err := Load(writeConfig(t, "transcription:\n  mode: real\n"))
	if err == nil {
		t.Fatal("Expected error for real mode without url")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8000 || cfg.Pipeline.Workers != 2 {
		t.Errorf("Default: %+v", cfg)
	}
}
