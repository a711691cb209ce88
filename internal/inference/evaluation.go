package inference

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"pelohub/internal/apperr"
	"pelohub/internal/curve"

	"github.com/bytedance/sonic"
)

// NotAvailable is shown for metrics the backend omitted.
const NotAvailable = "N/A"

// Evaluation is the model comparison payload.
type Evaluation struct {
	Summary    []ModelSummary         `json:"summary"`
	Efficiency map[string]Efficiency  `json:"efficiency"`
	Details    map[string]ModelDetail `json:"details"`
}

// ModelSummary is one row of the comparison table.
type ModelSummary struct {
	Model           string   `json:"model"`
	Dataset         string   `json:"dataset"`
	Accuracy        *float64 `json:"accuracy"`
	InferenceTimeMs *float64 `json:"inference_time_ms"`
	TrainingTimeSec *float64 `json:"training_time_sec"`
	RunName         string   `json:"run_name"`
}

// AccuracyText renders accuracy as a percentage, or N/A.
func (s ModelSummary) AccuracyText() string {
	if s.Accuracy == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *s.Accuracy*100)
}

// InferenceText renders the mean inference time, or N/A.
func (s ModelSummary) InferenceText() string {
	if s.InferenceTimeMs == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f ms", *s.InferenceTimeMs)
}

// TrainingText renders the training time, or N/A.
func (s ModelSummary) TrainingText() string {
	if s.TrainingTimeSec == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.0f s", *s.TrainingTimeSec)
}

// Efficiency holds the model's size figures as the backend formats them.
type Efficiency struct {
	Params     string `json:"params"`
	Flops      string `json:"flops"`
	Size       string `json:"size"`
	Activation string `json:"activation"`
}

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   float64 `json:"support"`
}

// ClassificationReport mirrors scikit-learn's dict report: one entry per
// class plus the averages, with accuracy as a bare number.
type ClassificationReport struct {
	Classes     map[string]ClassMetrics
	Accuracy    *float64
	MacroAvg    *ClassMetrics
	WeightedAvg *ClassMetrics
}

// ClassNames returns the per-class keys in sorted order.
func (r ClassificationReport) ClassNames() []string {
	names := make([]string, 0, len(r.Classes))
	for name := range r.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ClassificationReport) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := sonic.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Classes = make(map[string]ClassMetrics, len(raw))
	for key, v := range raw {
		switch val := v.(type) {
		case float64:
			if key == "accuracy" {
				acc := val
				r.Accuracy = &acc
			}
		case map[string]any:
			m := ClassMetrics{
				Precision: number(val["precision"]),
				Recall:    number(val["recall"]),
				F1:        number(val["f1-score"]),
				Support:   number(val["support"]),
			}
			switch key {
			case "macro avg":
				r.MacroAvg = &m
			case "weighted avg":
				r.WeightedAvg = &m
			default:
				r.Classes[key] = m
			}
		}
	}
	return nil
}

// Epoch is one training history entry.
type Epoch struct {
	Epoch       int     `json:"epoch"`
	Accuracy    float64 `json:"accuracy"`
	ValAccuracy float64 `json:"val_accuracy"`
	Loss        float64 `json:"loss"`
	ValLoss     float64 `json:"val_loss"`
}

// History accepts either a list of epochs or Keras' column form
// {"accuracy": [...], "loss": [...]}.
type History []Epoch

func (h *History) UnmarshalJSON(b []byte) error {
	if first := firstByte(b); first == '[' {
		var epochs []Epoch
		if err := sonic.Unmarshal(b, &epochs); err != nil {
			return err
		}
		for i := range epochs {
			if epochs[i].Epoch == 0 {
				epochs[i].Epoch = i + 1
			}
		}
		*h = epochs
		return nil
	} else if first != '{' {
		*h = nil
		return nil
	}

	var cols map[string][]float64
	if err := sonic.Unmarshal(b, &cols); err != nil {
		return err
	}
	n := 0
	for _, c := range cols {
		n = max(n, len(c))
	}
	epochs := make([]Epoch, n)
	at := func(key string, i int) float64 {
		if c := cols[key]; i < len(c) {
			return c[i]
		}
		return 0
	}
	for i := range epochs {
		epochs[i] = Epoch{
			Epoch:       i + 1,
			Accuracy:    at("accuracy", i),
			ValAccuracy: at("val_accuracy", i),
			Loss:        at("loss", i),
			ValLoss:     at("val_loss", i),
		}
	}
	*h = epochs
	return nil
}

// ModelDetail holds the charts for one model/dataset run.
type ModelDetail struct {
	ClassificationReport ClassificationReport `json:"classification_report"`
	ConfusionMatrix      [][]int              `json:"confusion_matrix"`
	ROC                  []curve.Point        `json:"roc"`
	PR                   []curve.Point        `json:"pr"`
	AUROC                *float64             `json:"auroc"`
	History              History              `json:"history"`
}

func (d *ModelDetail) UnmarshalJSON(b []byte) error {
	type plain ModelDetail
	var aux struct {
		plain
		CM [][]int `json:"cm"`
	}
	if err := sonic.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = ModelDetail(aux.plain)
	if d.ConfusionMatrix == nil {
		d.ConfusionMatrix = aux.CM
	}
	return nil
}

// AUROCValue returns the reported AUROC, or the trapezoidal area under the
// ROC points when the backend left it out.
func (d ModelDetail) AUROCValue() (float64, bool) {
	if d.AUROC != nil {
		return *d.AUROC, true
	}
	if len(d.ROC) < 2 {
		return 0, false
	}
	return curve.AUC(d.ROC), true
}

// DetailKey builds the details map key for a model and dataset.
func DetailKey(model, dataset string) string {
	return model + "_" + dataset
}

// Detail looks up the charts for a model and dataset.
func (e *Evaluation) Detail(model, dataset string) (ModelDetail, bool) {
	d, ok := e.Details[DetailKey(model, dataset)]
	return d, ok
}

// Datasets returns the distinct dataset names in summary order.
func (e *Evaluation) Datasets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range e.Summary {
		if s.Dataset != "" && !seen[s.Dataset] {
			seen[s.Dataset] = true
			out = append(out, s.Dataset)
		}
	}
	return out
}

// DecodeEvaluation parses an evaluation payload.
func DecodeEvaluation(raw []byte) (*Evaluation, error) {
	var e Evaluation
	if err := sonic.Unmarshal(raw, &e); err != nil {
		return nil, &apperr.MalformedDataError{Field: "evaluation details", Err: err}
	}
	if e.Summary == nil && e.Details == nil {
		return nil, &apperr.MalformedDataError{Field: "evaluation details", Err: errors.New("missing summary and details")}
	}
	return &e, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func firstByte(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}
