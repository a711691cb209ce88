package tui

import (
	"fmt"
	"strings"

	"pelohub/internal/analysislog"
	"pelohub/internal/i18n"
	"pelohub/internal/inference"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// RenderLogs renders the analysis log table, newest first, or the empty
// state.
func RenderLogs(entries []analysislog.Entry, tr *i18n.Translator) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(tr.T("logs.title")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(tr.T("logs.subtitle")))
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString(infoStyle.Render(tr.T("logs.empty")))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(tr.T("logs.empty_sub")))
		b.WriteString("\n")
		return b.String()
	}

	t := newTable(
		tr.T("logs.col.time"),
		tr.T("logs.col.engine"),
		tr.T("logs.col.source"),
		tr.T("logs.col.signal"),
		tr.T("logs.col.metrics"),
		tr.T("logs.col.pred"),
	)
	for _, e := range entries {
		source := tr.T("live.upload")
		if e.Source == analysislog.SourceRecord {
			source = tr.T("live.mic")
		}
		t.Row(
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.ModelName,
			fmt.Sprintf("%s\n%s • %s", e.FileName, source, e.Duration),
			fmt.Sprintf("%s %s\n%d Hz • %s", e.Signal.Format, e.Signal.BitDepth, e.Signal.SampleRate, e.Signal.Channels),
			fmt.Sprintf("Jitter %s\nShimmer %s\nHNR %s", e.Result.Features.Jitter, e.Result.Features.Shimmer, e.Result.Features.HNR),
			fmt.Sprintf("%s\n%.1f%% • %s",
				analysislog.LabelText(tr, e.Result.Label),
				e.Result.Confidence*100,
				analysislog.SeverityText(tr, e.Result.Severity)),
		)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderResult renders a single prediction.
func RenderResult(r inference.Result, modelName string, tr *i18n.Translator) string {
	label := analysislog.LabelText(tr, r.Label)
	style := highlightStyle
	if r.Label == inference.LabelDysarthric {
		style = alertStyle
	}
	return fmt.Sprintf("%s %s %s\n\n%s: %s\n%s: %.1f%%\n%s: %s\n",
		titleStyle.Render(tr.T("live.results")), tr.T("live.via"), modelName,
		tr.T("live.model_class"), style.Render(label),
		tr.T("live.conf"), r.Confidence*100,
		tr.T("live.severity"), analysislog.SeverityText(tr, r.Severity),
	)
}

// RenderEvaluation renders the model comparison table. Missing metrics show
// as N/A.
func RenderEvaluation(eval *inference.Evaluation, tr *i18n.Translator) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(tr.T("eval.title")))
	b.WriteString("\n\n")

	t := newTable(
		tr.T("eval.col.model"),
		tr.T("eval.col.dataset"),
		tr.T("eval.col.accuracy"),
		tr.T("eval.col.inference"),
		tr.T("eval.col.training"),
		tr.T("eval.col.params"),
		tr.T("eval.col.size"),
		"AUROC",
	)
	for _, s := range eval.Summary {
		eff, ok := eval.Efficiency[s.Model]
		params, size := inference.NotAvailable, inference.NotAvailable
		if ok {
			params, size = orNA(eff.Params), orNA(eff.Size)
		}
		auroc := inference.NotAvailable
		if d, ok := eval.Detail(s.Model, s.Dataset); ok {
			if v, ok := d.AUROCValue(); ok {
				auroc = fmt.Sprintf("%.3f", v)
			}
		}
		t.Row(orNA(s.Model), orNA(s.Dataset), s.AccuracyText(), s.InferenceText(), s.TrainingText(), params, size, auroc)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderConfusion renders a confusion matrix with its class labels.
func RenderConfusion(d inference.ModelDetail) string {
	if len(d.ConfusionMatrix) == 0 {
		return inference.NotAvailable + "\n"
	}
	names := d.ClassificationReport.ClassNames()
	label := func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return fmt.Sprintf("class %d", i)
	}
	headers := []string{""}
	for i := range d.ConfusionMatrix[0] {
		headers = append(headers, label(i))
	}
	t := newTable(headers...)
	for i, row := range d.ConfusionMatrix {
		cells := []string{label(i)}
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		t.Row(cells...)
	}
	return t.Render() + "\n"
}

// RenderOverview renders the landing summary.
func RenderOverview(o *inference.Overview, tr *i18n.Translator) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(tr.T("dash.title")))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n\n", tr.T("dash.status"), orDash(o.ProjectStatus))

	t := newTable(tr.T("dash.stat.samples"), tr.T("dash.stat.accuracy"), tr.T("dash.stat.inference"), tr.T("dash.stat.error"))
	t.Row(orDash(string(o.Metrics.Samples)), orDash(string(o.Metrics.Accuracy)), orDash(string(o.Metrics.Inference)), orDash(string(o.Metrics.ErrorRate)))
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if o.TopModel.Name != "" {
		fmt.Fprintf(&b, "%s: %s (%.1f%%)\n\n", tr.T("dash.top_model"), highlightStyle.Render(o.TopModel.Name), o.TopModel.Accuracy)
	}
	if len(o.RecentActivities) > 0 {
		b.WriteString(headerStyle.Render(tr.T("dash.activity")))
		b.WriteString("\n")
		for _, a := range o.RecentActivities {
			marker := highlightStyle.Render("●")
			if a.Type == "error" {
				marker = alertStyle.Render("●")
			}
			fmt.Fprintf(&b, "%s %s  %s  %s\n", marker, a.Title, dimStyle.Render(a.Desc), dimStyle.Render(a.Time))
		}
	}
	return b.String()
}

// RenderDataset lists a dataset's samples per class.
func RenderDataset(name string, ds inference.Dataset, tr *i18n.Translator) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s • %s", tr.T("eda.title"), name)))
	b.WriteString("\n\n")
	for _, class := range []string{inference.ClassDysarthric, inference.ClassControl} {
		b.WriteString(headerStyle.Render(tr.T("eda." + class)))
		b.WriteString("\n")
		for _, s := range ds.Class(class) {
			fmt.Fprintf(&b, "  %-28s %5.2fs  %s\n", s.DisplayName(), s.Seconds(), dimStyle.Render(s.AudioURL()))
		}
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return inference.NotAvailable
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}
