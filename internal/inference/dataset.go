package inference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pelohub/internal/apperr"
	"pelohub/internal/spectrogram"

	"github.com/bytedance/sonic"
)

// Class names used by the dataset payloads.
const (
	ClassDysarthric = "dysarthric"
	ClassControl    = "control"
)

// Text decodes a JSON string, number or null into a string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	switch firstByte(b) {
	case 'n', 0:
		*t = ""
	case '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(strings.TrimSpace(string(b)))
	}
	return nil
}

// Seconds decodes a duration given as a number of seconds or as text like
// "1.2s".
type Seconds float64

func (s *Seconds) UnmarshalJSON(b []byte) error {
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	v := strings.TrimSuffix(strings.TrimSpace(string(t)), "s")
	if v == "" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q", string(t))
	}
	*s = Seconds(f)
	return nil
}

// Sample is one curated recording with its precomputed visuals.
type Sample struct {
	ID          Text        `json:"id"`
	Name        string      `json:"name"`
	FileName    string      `json:"filename"`
	Duration    Seconds     `json:"duration"`
	DurationSec Seconds     `json:"durationSec"`
	SampleRate  int         `json:"sampleRate"`
	Type        string      `json:"type"`
	Label       string      `json:"label"`
	Severity    string      `json:"severity"`
	Text        string      `json:"text"`
	Waveform    []float64   `json:"waveform"`
	Spectrogram [][]float64 `json:"spectrogram"`
	URL         string      `json:"url"`
}

// Seconds returns the sample length, preferring the numeric field.
func (s Sample) Seconds() float64 {
	if s.DurationSec > 0 {
		return float64(s.DurationSec)
	}
	return float64(s.Duration)
}

// AudioURL returns the sample's audio route. Samples without one derive it
// from their file name.
func (s Sample) AudioURL() string {
	if s.URL != "" {
		return s.URL
	}
	if s.FileName != "" {
		return SampleURL(s.FileName)
	}
	return ""
}

// Frame wraps the backend spectrogram.
func (s Sample) Frame() spectrogram.Frame {
	return spectrogram.FromBackend(s.Spectrogram)
}

// DisplayName returns the best label available for lists.
func (s Sample) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.FileName != "":
		return s.FileName
	default:
		return string(s.ID)
	}
}

// WordPair is a dysarthric and control recording of the same word.
type WordPair struct {
	ID         Text   `json:"id"`
	Word       string `json:"word"`
	Control    Sample `json:"control"`
	Dysarthric Sample `json:"dysarthric"`
}

// Dataset holds one dataset's samples in either of the two shapes the
// backend serves: paired words or flat per-class lists.
type Dataset struct {
	Pairs      []WordPair
	Dysarthric []Sample
	Control    []Sample
}

// Paired reports whether the dataset arrived in word-pair shape.
func (d Dataset) Paired() bool {
	return d.Pairs != nil
}

// Class returns the flat sample list for a class. Paired datasets are
// flattened in pair order.
func (d Dataset) Class(class string) []Sample {
	if d.Paired() {
		out := make([]Sample, 0, len(d.Pairs))
		for _, p := range d.Pairs {
			if class == ClassControl {
				out = append(out, p.Control)
			} else {
				out = append(out, p.Dysarthric)
			}
		}
		return out
	}
	if class == ClassControl {
		return d.Control
	}
	return d.Dysarthric
}

// Len returns the number of samples across both classes.
func (d Dataset) Len() int {
	if d.Paired() {
		return 2 * len(d.Pairs)
	}
	return len(d.Dysarthric) + len(d.Control)
}

func (d *Dataset) UnmarshalJSON(b []byte) error {
	switch firstByte(b) {
	case '[':
		var pairs []WordPair
		if err := sonic.Unmarshal(b, &pairs); err != nil {
			return err
		}
		if pairs == nil {
			pairs = []WordPair{}
		}
		*d = Dataset{Pairs: pairs}
	case '{':
		var flat struct {
			Dysarthric []Sample `json:"dysarthric"`
			Control    []Sample `json:"control"`
		}
		if err := sonic.Unmarshal(b, &flat); err != nil {
			return err
		}
		*d = Dataset{Dysarthric: flat.Dysarthric, Control: flat.Control}
	case 'n':
		*d = Dataset{}
	default:
		return errors.New("dataset must be an object or an array")
	}
	return nil
}

// DatasetSamples maps dataset names to their samples.
type DatasetSamples map[string]Dataset

// Names returns the dataset names in sorted order.
func (s DatasetSamples) Names() []string {
	return sortedKeys(s)
}

// DecodeDatasetSamples parses the exploratory-analysis payload.
func DecodeDatasetSamples(raw []byte) (DatasetSamples, error) {
	var s DatasetSamples
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return nil, &apperr.MalformedDataError{Field: "dataset samples", Err: err}
	}
	if s == nil {
		return nil, &apperr.MalformedDataError{Field: "dataset samples", Err: errors.New("empty payload")}
	}
	return s, nil
}
