package inference

import (
	"sort"

	"pelohub/internal/apperr"

	"github.com/bytedance/sonic"
)

// Overview is the landing dashboard summary.
type Overview struct {
	ProjectStatus    string         `json:"project_status"`
	Metrics          MetricsSummary `json:"metrics_summary"`
	TopModel         TopModel       `json:"top_model"`
	RecentActivities []Activity     `json:"recent_activities"`
}

// MetricsSummary holds preformatted headline figures.
type MetricsSummary struct {
	Samples   Text `json:"samples"`
	Accuracy  Text `json:"accuracy"`
	Inference Text `json:"inference"`
	ErrorRate Text `json:"error_rate"`
}

// TopModel is the best performing model.
type TopModel struct {
	Name     string  `json:"name"`
	Accuracy float64 `json:"accuracy"`
}

// Activity is one entry of the recent activity feed. Type is "success",
// "error" or "info".
type Activity struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Time  string `json:"time"`
}

// Status is the backend health report.
type Status struct {
	Status string `json:"status"`
	GPU    bool   `json:"gpu_tersedia"`
}

// Healthy reports whether the backend declared itself healthy.
func (s Status) Healthy() bool {
	return s.Status == "sehat" || s.Status == "healthy" || s.Status == "ok"
}

// DecodeOverview parses the overview payload.
func DecodeOverview(raw []byte) (*Overview, error) {
	var o Overview
	if err := sonic.Unmarshal(raw, &o); err != nil {
		return nil, &apperr.MalformedDataError{Field: "engine overview", Err: err}
	}
	return &o, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
