package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the signal workbench.
const (
	// Backend API
	DefaultAPIBaseURL = "http://localhost:8000" // Local FastAPI dev server
	DefaultAPITimeout = 60 * time.Second        // Inference on CPU can be slow
	DefaultModelID    = "cnn"                   // CNN-STFT v2

	// Rendering
	DefaultWaveformBuckets    = 100     // Bars in the live-prediction waveform
	MinWaveformBuckets        = 1       //
	MaxWaveformBuckets        = 4096    //
	DefaultSpectrogramWidth   = 600     // Raster width in pixels
	DefaultSpectrogramHeight  = 200     // Raster height in pixels
	DefaultSpectrogramSource  = "stft"  // Local transform when no backend frame exists
	DefaultSpectrogramFFTSize = 512     // Points per STFT column
	DefaultSpectrogramSteps   = 300     // Time columns before scaling
	DefaultSpectrogramBands   = 128     // Frequency rows before scaling
	DefaultSpectrogramWindow  = "hann"  // STFT taper
	DefaultOutputDir          = "./out" // Where PNG renders land
	DefaultLanguage           = "id"    // Dashboard default language
	DefaultLogLevel           = "info"  //
	DefaultCacheDir           = "./.pelohub-cache"

	// Playback
	DefaultFrameInterval = 16 * time.Millisecond // ~60 frames per second
	DefaultOutputDevice  = MinDeviceID

	// Capture
	DefaultInputDevice      = MinDeviceID // Default to system default device
	DefaultCaptureChannels  = 1           // Mono audio
	DefaultCaptureRate      = 16000       // What the models were trained on
	DefaultFramesPerBuffer  = 512         // Balanced latency/performance
	DefaultCaptureBitDepth  = 16          //
	DefaultMaxCaptureLength = 30 * time.Second

	// Transport
	DefaultWebSocketAddr = "127.0.0.1:8090"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
)

// Spectrogram sources selectable in render.spectrogram_source.
const (
	SourceSTFT      = "stft"
	SourceSynthetic = "synthetic"
)

// DefaultModels maps dashboard model ids to the names the backend expects.
func DefaultModels() map[string]string {
	return map[string]string{
		"cnn":       "cnn_stft",
		"mobilenet": "mobilenet",
		"resnet":    "resnet",
		"vgg":       "vgg",
	}
}
