// SPDX-License-Identifier: MIT
/*
Package audio turns raw uploads and microphone captures into decoded signals,
and wraps the PortAudio devices used for capture and playback.

The display format prefers the filename extension, then a MIME type, then the
container magic. The codec is always chosen from the container magic, so a
misnamed file still decodes; the label only decides when the bytes are not
recognized. WAV bit depth is read from the canonical header field at
byte offset 34 once the RIFF magic has been verified; this is decoration only
and never fails a decode.
*/
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"pelohub/internal/apperr"
	"pelohub/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const (
	wavBitDepthOffset = 34
	chunkFrames       = 4096 // Frames decoded per PCMBuffer call.

	BitDepthUnknown    = "Unknown"
	BitDepthCompressed = "Compressed"
	BitDepthFloat      = "32-bit Float"
)

var (
	errUnsupported = errors.New("unsupported container or codec")
	errNoSamples   = errors.New("no samples")
)

// processingContext holds scratch buffers reused across decodes.
type processingContext struct {
	pcm goaudio.IntBuffer
	raw []byte
}

// Decoder converts byte buffers into Signals. The zero value is not usable;
// call NewDecoder. A Decoder is safe for concurrent use.
type Decoder struct {
	mu  sync.Mutex
	ctx *processingContext
}

// NewDecoder returns a Decoder. Its processing context is allocated lazily
// on the first Decode call.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Close releases the processing context. A later Decode allocates a new one.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = nil
	return nil
}

// Decode turns data into a Signal. hint is either a filename or a MIME type
// and may be empty. Decoding is pure: the same bytes always produce an equal
// Signal.
func (d *Decoder) Decode(data []byte, hint string) (*Signal, error) {
	format := DetectFormat(data, hint)
	bitDepth := BitDepthLabel(data, format)
	codec := sniffFormat(data)
	if codec == FormatUnknown {
		codec = format
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		d.ctx = &processingContext{}
		log.Debugf("Audio: allocated decoder processing context")
	}

	var (
		sig *Signal
		err error
	)
	switch codec {
	case FormatWAV:
		sig, err = d.decodeWAV(data)
	case FormatMP3:
		sig, err = d.decodeMP3(data)
	default:
		err = errUnsupported
	}
	if err != nil {
		return nil, &apperr.DecodeError{Format: codec.String(), Err: err}
	}
	if codec != format {
		log.Debugf("Audio: %q is labelled %s but contains %s", hint, format, codec)
	}

	sig.Format = format
	sig.BitDepthLabel = bitDepth
	log.Debugf("Audio: decoded %s (%s, %d Hz, %d ch, %s)",
		format, bitDepth, sig.SampleRate, sig.ChannelCount(), sig.Duration)
	return sig, nil
}

// DetectFormat applies the labelling policy: filename extension, then MIME
// type, then container magic. A URL query or fragment in hint is ignored, as
// is an extension that names no audio format.
func DetectFormat(data []byte, hint string) Format {
	hint = StripURLSuffix(hint)
	if hint != "" {
		if strings.Contains(hint, "/") && !strings.Contains(filepath.Base(hint), ".") {
			if f := formatFromMIME(hint); f != FormatUnknown {
				return f
			}
		} else if f := formatFromExt(filepath.Ext(hint)); f != FormatUnknown {
			return f
		}
	}
	return sniffFormat(data)
}

// StripURLSuffix drops a "?query" or "#fragment" from name.
func StripURLSuffix(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		return name[:i]
	}
	return name
}

func sniffFormat(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return FormatOGG
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWEBM
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

// BitDepthLabel returns the display label for the sample depth of data.
func BitDepthLabel(data []byte, format Format) string {
	switch format {
	case FormatWAV:
		if len(data) < wavBitDepthOffset+2 || string(data[0:4]) != "RIFF" {
			return BitDepthUnknown
		}
		bits := binary.LittleEndian.Uint16(data[wavBitDepthOffset : wavBitDepthOffset+2])
		if bits == 0 {
			return BitDepthUnknown
		}
		return fmt.Sprintf("%d-bit", bits)
	case FormatMP3, FormatWEBM:
		return BitDepthCompressed
	default:
		return BitDepthFloat
	}
}

func (d *Decoder) decodeWAV(data []byte) (*Signal, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, err
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("missing fmt chunk")
	}
	bitDepth := int(dec.SampleBitDepth())
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	channels := format.NumChannels
	pcm := &d.ctx.pcm
	pcm.Format = format
	pcm.SourceBitDepth = bitDepth
	if cap(pcm.Data) < chunkFrames*channels {
		pcm.Data = make([]int, chunkFrames*channels)
	}
	pcm.Data = pcm.Data[:chunkFrames*channels]

	scale := float32(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128 // 8-bit WAV is unsigned
	}

	out := make([][]float32, channels)
	for {
		n, err := dec.PCMBuffer(pcm)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		for i := 0; i+channels <= n; i += channels {
			for c := 0; c < channels; c++ {
				out[c] = append(out[c], float32(pcm.Data[i+c]-offset)/scale)
			}
		}
		if n == 0 || err != nil {
			break
		}
	}
	if len(out[0]) == 0 {
		return nil, errNoSamples
	}

	return &Signal{
		Channels:   out,
		SampleRate: format.SampleRate,
		Duration:   durationOf(len(out[0]), format.SampleRate),
	}, nil
}

func (d *Decoder) decodeMP3(data []byte) (*Signal, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	// go-mp3 always yields interleaved 16-bit little-endian stereo.
	const frameBytes = 4
	if cap(d.ctx.raw) < chunkFrames*frameBytes {
		d.ctx.raw = make([]byte, chunkFrames*frameBytes)
	}
	raw := d.ctx.raw[:chunkFrames*frameBytes]

	capHint := 0
	if l := dec.Length(); l > 0 {
		capHint = int(l / frameBytes)
	}
	left := make([]float32, 0, capHint)
	right := make([]float32, 0, capHint)

	var pending int
	for {
		n, err := dec.Read(raw[pending:])
		n += pending
		whole := n - n%frameBytes
		for i := 0; i < whole; i += frameBytes {
			l := int16(binary.LittleEndian.Uint16(raw[i:]))
			r := int16(binary.LittleEndian.Uint16(raw[i+2:]))
			left = append(left, float32(l)/32768)
			right = append(right, float32(r)/32768)
		}
		pending = copy(raw, raw[whole:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(left) == 0 {
		return nil, errNoSamples
	}

	return &Signal{
		Channels:   [][]float32{left, right},
		SampleRate: dec.SampleRate(),
		Duration:   durationOf(len(left), dec.SampleRate()),
	}, nil
}
