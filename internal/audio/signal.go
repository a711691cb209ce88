package audio

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies the container an audio buffer arrived in.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
	FormatWEBM
	FormatOGG
	FormatFLAC
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "WAV"
	case FormatMP3:
		return "MP3"
	case FormatWEBM:
		return "WEBM"
	case FormatOGG:
		return "OGG"
	case FormatFLAC:
		return "FLAC"
	default:
		return "UNKNOWN"
	}
}

// Signal is a decoded PCM buffer. Samples are float32 in [-1, 1], one slice
// per channel. A Signal is never modified after Decode returns it.
type Signal struct {
	Channels      [][]float32
	SampleRate    int
	Duration      time.Duration
	Format        Format
	BitDepthLabel string
}

// ChannelCount returns the number of decoded channels.
func (s *Signal) ChannelCount() int {
	return len(s.Channels)
}

// Primary returns the first channel, the one every renderer reads.
func (s *Signal) Primary() []float32 {
	if len(s.Channels) == 0 {
		return nil
	}
	return s.Channels[0]
}

// Frames returns the number of samples per channel.
func (s *Signal) Frames() int {
	return len(s.Primary())
}

// DurationSeconds returns the duration as fractional seconds.
func (s *Signal) DurationSeconds() float64 {
	return s.Duration.Seconds()
}

// ChannelLabel renders the channel layout the way the analysis log shows it.
func (s *Signal) ChannelLabel() string {
	switch s.ChannelCount() {
	case 0:
		return "--"
	case 1:
		return "Mono"
	default:
		return "Stereo"
	}
}

// FormatClock renders d as m:ss.
func FormatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func durationOf(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// formatFromExt maps a file extension (with or without the dot) to a Format.
func formatFromExt(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav", "wave":
		return FormatWAV
	case "mp3":
		return FormatMP3
	case "webm":
		return FormatWEBM
	case "ogg", "oga", "opus":
		return FormatOGG
	case "flac":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

// formatFromMIME maps a MIME type such as "audio/webm;codecs=opus" to a Format.
func formatFromMIME(mime string) Format {
	mime = strings.ToLower(mime)
	switch {
	case strings.Contains(mime, "wav"):
		return FormatWAV
	case strings.Contains(mime, "mpeg"), strings.Contains(mime, "mp3"):
		return FormatMP3
	case strings.Contains(mime, "webm"):
		return FormatWEBM
	case strings.Contains(mime, "ogg"):
		return FormatOGG
	case strings.Contains(mime, "flac"):
		return FormatFLAC
	default:
		return FormatUnknown
	}
}
