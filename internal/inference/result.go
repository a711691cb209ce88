package inference

import (
	"fmt"
	"strconv"
	"strings"

	"pelohub/internal/apperr"
)

// Label is the binary classification outcome.
type Label int

const (
	LabelDysarthric Label = iota
	LabelNonDysarthric
)

func (l Label) String() string {
	if l == LabelNonDysarthric {
		return "Non-Dysarthric"
	}
	return "Dysarthric"
}

func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Dysarthric":
		*l = LabelDysarthric
	case "Non-Dysarthric":
		*l = LabelNonDysarthric
	default:
		return fmt.Errorf("unknown label %q", b)
	}
	return nil
}

// Severity grades a dysarthric prediction by confidence.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMid
	SeverityHigh
)

// Confidence must exceed these to reach Mid and High.
const (
	SeverityMidThreshold  = 0.70
	SeverityHighThreshold = 0.90
)

var severityNames = [...]string{"None", "Low", "Mid", "High"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "None"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	for i, name := range severityNames {
		if name == string(b) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// NoFeature is shown for acoustic features the backend does not report.
const NoFeature = "--"

// Features are the acoustic measures shown beside a result.
type Features struct {
	Jitter  string `json:"jitter"`
	Shimmer string `json:"shimmer"`
	HNR     string `json:"hnr"`
}

// Result is a classification shown to the user.
type Result struct {
	Label      Label    `json:"label"`
	Confidence float64  `json:"confidence"` // 0..1
	Severity   Severity `json:"severity"`
	Features   Features `json:"features"`
}

// SeverityFor grades a result. Non-dysarthric results have no severity.
func SeverityFor(label Label, confidence float64) Severity {
	if label != LabelDysarthric {
		return SeverityNone
	}
	switch {
	case confidence > SeverityHighThreshold:
		return SeverityHigh
	case confidence > SeverityMidThreshold:
		return SeverityMid
	default:
		return SeverityLow
	}
}

func (r predictResponse) toResult() (Result, error) {
	if r.Prediksi == "" {
		return Result{}, &apperr.MalformedDataError{Field: "prediksi"}
	}
	label := LabelDysarthric
	if r.Prediksi == "Control" {
		label = LabelNonDysarthric
	}

	var confidence float64
	switch {
	case len(r.Detail) > 0:
		first := true
		for _, p := range r.Detail {
			if first || p > confidence {
				confidence = p
				first = false
			}
		}
	case r.Confidence != "":
		v, err := parsePercent(r.Confidence)
		if err != nil {
			return Result{}, &apperr.MalformedDataError{Field: "confidence", Err: err}
		}
		confidence = v
	default:
		return Result{}, &apperr.MalformedDataError{Field: "confidence"}
	}
	confidence = min(max(confidence, 0), 1)

	return Result{
		Label:      label,
		Confidence: confidence,
		Severity:   SeverityFor(label, confidence),
		Features:   Features{Jitter: NoFeature, Shimmer: NoFeature, HNR: NoFeature},
	}, nil
}

// parsePercent reads "95.2%" as 0.952.
func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}
