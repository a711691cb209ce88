// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Language  string          `yaml:"language"`  // UI language tag ("id" or "en").
	API       APIConfig       `yaml:"api"`       // Inference backend settings.
	Render    RenderConfig    `yaml:"render"`    // Waveform and spectrogram rendering.
	Playback  PlaybackConfig  `yaml:"playback"`  // Playback clock and output device.
	Capture   CaptureConfig   `yaml:"capture"`   // Microphone capture.
	Cache     CacheConfig     `yaml:"cache"`     // Read-through cache for backend payloads.
	Transport TransportConfig `yaml:"transport"` // Cursor frame publishing.
}

// APIConfig holds settings for the remote inference service.
type APIConfig struct {
	BaseURL string            `yaml:"base_url"` // Root of the backend, e.g. "http://localhost:8000".
	Timeout time.Duration     `yaml:"timeout"`  // Per-request timeout.
	Model   string            `yaml:"model"`    // Default dashboard model id.
	Models  map[string]string `yaml:"models"`   // Dashboard model id -> backend model name.
}

// RenderConfig holds visualization settings.
type RenderConfig struct {
	WaveformBuckets   int    `yaml:"waveform_buckets"`   // Fixed number of waveform bars.
	SpectrogramWidth  int    `yaml:"spectrogram_width"`  // Raster width in pixels.
	SpectrogramHeight int    `yaml:"spectrogram_height"` // Raster height in pixels.
	SpectrogramSource string `yaml:"spectrogram_source"` // Local fallback: "stft" or "synthetic".
	FFTSize           int    `yaml:"fft_size"`           // STFT window length (rounded up to a power of 2).
	SpectrogramSteps  int    `yaml:"spectrogram_steps"`  // Frame columns; the raster is scaled from these.
	SpectrogramBands  int    `yaml:"spectrogram_bands"`  // Frame rows.
	Window            string `yaml:"window"`             // STFT taper, e.g. "hann", "hamming", "blackman".
	OutputDir         string `yaml:"output_dir"`         // Directory for PNG renders.
}

// PlaybackConfig holds settings for the playback clock.
type PlaybackConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"` // Cursor refresh period while playing.
	OutputDevice  int           `yaml:"output_device"`  // PortAudio device index (-1 for default).
}

// CaptureConfig holds settings related to microphone recording.
type CaptureConfig struct {
	InputDevice     int           `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64       `yaml:"sample_rate"`       // Sample rate in Hz.
	Channels        int           `yaml:"channels"`          // 1 for mono, 2 for stereo.
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool          `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	MaxDuration     time.Duration `yaml:"max_duration"`      // Recording stops automatically after this long.
}

// CacheConfig holds settings for the read-through cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"` // Persist fetched payloads between runs.
	Dir     string `yaml:"dir"`     // Badger directory.
}

// TransportConfig holds settings related to publishing cursor frames.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"` // Broadcast playback frames on /ws.
	WebSocketAddr    string `yaml:"websocket_addr"`    // Listen address for the broadcaster.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Language: DefaultLanguage,
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: DefaultAPITimeout,
			Model:   DefaultModelID,
			Models:  DefaultModels(),
		},
		Render: RenderConfig{
			WaveformBuckets:   DefaultWaveformBuckets,
			SpectrogramWidth:  DefaultSpectrogramWidth,
			SpectrogramHeight: DefaultSpectrogramHeight,
			SpectrogramSource: DefaultSpectrogramSource,
			FFTSize:           DefaultSpectrogramFFTSize,
			SpectrogramSteps:  DefaultSpectrogramSteps,
			SpectrogramBands:  DefaultSpectrogramBands,
			Window:            DefaultSpectrogramWindow,
			OutputDir:         DefaultOutputDir,
		},
		Playback: PlaybackConfig{
			FrameInterval: DefaultFrameInterval,
			OutputDevice:  DefaultOutputDevice,
		},
		Capture: CaptureConfig{
			InputDevice:     DefaultInputDevice,
			SampleRate:      DefaultCaptureRate,
			Channels:        DefaultCaptureChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			MaxDuration:     DefaultMaxCaptureLength,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     DefaultCacheDir,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    DefaultWebSocketAddr,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml", "pelohub.yaml"). If no file is found,
// it uses built-in defaults. A .env file in the working directory is loaded into the
// process environment first; after loading defaults or from file, environment variable
// overrides are applied and the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"config.yaml", "pelohub.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if cfg.API.Models == nil {
			cfg.API.Models = DefaultModels()
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Render.WaveformBuckets < MinWaveformBuckets || c.Render.WaveformBuckets > MaxWaveformBuckets {
		return fmt.Errorf("render.waveform_buckets must be within [%d, %d], got %d",
			MinWaveformBuckets, MaxWaveformBuckets, c.Render.WaveformBuckets)
	}
	if c.Render.SpectrogramWidth <= 0 || c.Render.SpectrogramHeight <= 0 {
		return fmt.Errorf("render spectrogram dimensions must be positive")
	}
	if c.Render.SpectrogramSteps <= 0 || c.Render.SpectrogramBands <= 0 {
		return fmt.Errorf("render.spectrogram_steps and render.spectrogram_bands must be positive")
	}
	switch c.Render.SpectrogramSource {
	case SourceSTFT, SourceSynthetic:
	default:
		return fmt.Errorf("render.spectrogram_source must be %q or %q, got %q",
			SourceSTFT, SourceSynthetic, c.Render.SpectrogramSource)
	}
	if c.Playback.FrameInterval <= 0 {
		return fmt.Errorf("playback.frame_interval must be positive")
	}
	if c.Capture.SampleRate < MinSampleRate || c.Capture.SampleRate > MaxSampleRate {
		return fmt.Errorf("capture.sample_rate must be within [%d, %d]", MinSampleRate, MaxSampleRate)
	}
	if c.Capture.Channels != 1 && c.Capture.Channels != 2 {
		return fmt.Errorf("capture.channels must be 1 or 2, got %d", c.Capture.Channels)
	}
	if c.Capture.FramesPerBuffer <= 0 || c.Capture.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("capture.frames_per_buffer must be within (0, %d]", MaxBufferFrames)
	}
	if c.Transport.WebSocketEnabled && !strings.Contains(c.Transport.WebSocketAddr, ":") {
		return fmt.Errorf("transport.websocket_addr %q appears invalid (missing port?)", c.Transport.WebSocketAddr)
	}
	return nil
}

// BackendModel maps a dashboard model id to the backend name. Unknown ids pass through.
func (c *Config) BackendModel(id string) string {
	if name, ok := c.API.Models[id]; ok {
		return name
	}
	return id
}

// applyEnvOverrides applies ENV_* variables on top of file or default values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	// ENV_LANGUAGE
	if val, ok := os.LookupEnv("ENV_LANGUAGE"); ok {
		cfg.Language = val
	}

	// ENV_API_{...}
	// These are specific to the inference backend.

	// ENV_API_BASE_URL
	if val, ok := os.LookupEnv("ENV_API_BASE_URL"); ok {
		cfg.API.BaseURL = strings.TrimRight(val, "/")
	}
	// ENV_API_TIMEOUT
	if val, ok := os.LookupEnv("ENV_API_TIMEOUT"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.API.Timeout = dur
		}
	}

	// ENV_CACHE_{...}

	// ENV_CACHE_ENABLED
	if val, ok := os.LookupEnv("ENV_CACHE_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Enabled = bVal
		}
	}
	// ENV_CACHE_DIR
	if val, ok := os.LookupEnv("ENV_CACHE_DIR"); ok {
		cfg.Cache.Dir = val
	}

	// ENV_WS_{...}
	// These are specific to the transport layer.

	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
		}
	}
	// ENV_WS_ADDR
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
	}
}
