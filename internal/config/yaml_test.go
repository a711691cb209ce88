// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Render.WaveformBuckets != DefaultWaveformBuckets {
		t.Errorf("WaveformBuckets = %d, want %d", cfg.Render.WaveformBuckets, DefaultWaveformBuckets)
	}
	if got := cfg.BackendModel("cnn"); got != "cnn_stft" {
		t.Errorf("BackendModel(cnn) = %q, want cnn_stft", got)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeTempConfig(t, `
api:
  base_url: http://inference.local:9000
  timeout: 5s
render:
  waveform_buckets: 60
  spectrogram_source: synthetic
  spectrogram_steps: 50
  window: hamming
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://inference.local:9000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Render.WaveformBuckets != 60 {
		t.Errorf("WaveformBuckets = %d, want 60", cfg.Render.WaveformBuckets)
	}
	if cfg.Render.SpectrogramSource != SourceSynthetic {
		t.Errorf("SpectrogramSource = %q, want synthetic", cfg.Render.SpectrogramSource)
	}
	if cfg.Render.SpectrogramSteps != 50 || cfg.Render.SpectrogramBands != DefaultSpectrogramBands {
		t.Errorf("spectrogram frame = %dx%d, want 50x%d",
			cfg.Render.SpectrogramSteps, cfg.Render.SpectrogramBands, DefaultSpectrogramBands)
	}
	if cfg.Render.Window != "hamming" {
		t.Errorf("Window = %q, want hamming", cfg.Render.Window)
	}
	// Unspecified sections keep their defaults.
	if cfg.Capture.SampleRate != DefaultCaptureRate {
		t.Errorf("Capture.SampleRate = %v, want default", cfg.Capture.SampleRate)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ENV_API_BASE_URL", "http://10.0.0.2:8000/")
	t.Setenv("ENV_CACHE_ENABLED", "false")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.2:8000" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be overridden to false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Defaults", func(*Config) {}, ""},
		{"Relative URL", func(c *Config) { c.API.BaseURL = "localhost" }, "api.base_url"},
		{"Zero buckets", func(c *Config) { c.Render.WaveformBuckets = 0 }, "waveform_buckets"},
		{"Unknown source", func(c *Config) { c.Render.SpectrogramSource = "cqt" }, "spectrogram_source"},
		{"Zero frame steps", func(c *Config) { c.Render.SpectrogramSteps = 0 }, "spectrogram_steps"},
		{"Three channels", func(c *Config) { c.Capture.Channels = 3 }, "capture.channels"},
		{"Low rate", func(c *Config) { c.Capture.SampleRate = 100 }, "capture.sample_rate"},
		{"WS without port", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketAddr = "localhost"
		}, "websocket_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
