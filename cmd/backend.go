package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pelohub/internal/cache"
	"pelohub/internal/curve"
	"pelohub/internal/inference"
	"pelohub/internal/log"
	"pelohub/internal/tui"

	"github.com/spf13/cobra"
)

var errOffline = errors.New("offline: no refresh attempted")

// loadView reads a backend payload through the cache. When the refresh fails
// and a cached copy exists, the copy is returned and a stale notice printed.
func (a *app) loadView(cmd *cobra.Command, key, route string, offline bool) ([]byte, error) {
	store, err := a.openCache()
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context) ([]byte, error) {
		if offline {
			return nil, errOffline
		}
		return a.client.Raw(ctx, route)
	}

	entry, err := store.Load(cmd.Context(), key, fetch)
	if err != nil {
		if entry.Data == nil {
			return nil, err
		}
		if !errors.Is(err, errOffline) {
			log.Warnf("Cache: serving stale %s: %v", key, err)
			fmt.Fprintln(cmd.ErrOrStderr(), tui.Alert(a.tr.T("eval.stale")))
		}
	}
	return entry.Data, nil
}

func newEvaluationCommand(a *app) *cobra.Command {
	var (
		offline bool
		model   string
		dataset string
		rocAt   float64
		prAt    float64
		px      float64
		width   float64
		sweep   int
	)

	cmd := &cobra.Command{
		Use:     "evaluation",
		Aliases: []string{"eval"},
		Short:   "Compare the trained models and inspect their evaluation charts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			raw, err := a.loadView(cmd, cache.KeyEvalDetails, inference.PathEvaluation, offline)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			eval, err := inference.DecodeEvaluation(raw)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}

			fmt.Fprint(out, tui.RenderEvaluation(eval, a.tr))

			if dataset == "" {
				if ds := eval.Datasets(); len(ds) > 0 {
					dataset = ds[0]
				}
			}
			if model != "" {
				printDetail(out, eval, model, dataset)
			}

			flags := cmd.Flags()
			queryROC := flags.Changed("roc-at")
			if flags.Changed("px") {
				plot := curve.Plot{Width: width, Height: width * 0.7, Padding: chartPadding}
				rocAt = plot.ToData(px)
				queryROC = true
			}
			if queryROC {
				printHits(out, "ROC", rocAt, curveSeries(eval, dataset, func(d inference.ModelDetail) []curve.Point { return d.ROC }))
			}
			if flags.Changed("pr-at") {
				printHits(out, "PR", prAt, curveSeries(eval, dataset, func(d inference.ModelDetail) []curve.Point { return d.PR }))
			}
			if sweep > 0 {
				printSweep(out, sweep, curveSeries(eval, dataset, func(d inference.ModelDetail) []curve.Point { return d.ROC }))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Show the cached payload without contacting the backend")
	cmd.Flags().StringVar(&model, "model", "", "Show the confusion matrix and report of this model")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset of the detail and curve queries (default: first in summary)")
	cmd.Flags().Float64Var(&rocAt, "roc-at", 0, "Report every model's ROC point nearest this false positive rate")
	cmd.Flags().Float64Var(&prAt, "pr-at", 0, "Report every model's precision-recall point nearest this recall")
	cmd.Flags().Float64Var(&px, "px", 0, "Pointer column on the ROC chart, in pixels; implies --roc-at")
	cmd.Flags().Float64Var(&width, "chart-width", defaultChartWidth, "Width of the ROC chart --px refers to")
	cmd.Flags().IntVar(&sweep, "sweep", 0, "Trace every model's ROC curve at this many evenly spaced false positive rates")

	return cmd
}

const (
	defaultChartWidth = 340
	chartPadding      = 20
)

func printDetail(w io.Writer, eval *inference.Evaluation, model, dataset string) {
	d, ok := eval.Detail(model, dataset)
	if !ok {
		fmt.Fprintf(w, "\n%s: %s\n", inference.DetailKey(model, dataset), inference.NotAvailable)
		return
	}
	fmt.Fprintf(w, "\n%s\n", tui.Title(inference.DetailKey(model, dataset)))
	fmt.Fprint(w, tui.RenderConfusion(d))

	report := d.ClassificationReport
	for _, name := range report.ClassNames() {
		m := report.Classes[name]
		fmt.Fprintf(w, "  %-16s precision %.3f  recall %.3f  f1 %.3f  support %.0f\n",
			name, m.Precision, m.Recall, m.F1, m.Support)
	}
	if report.Accuracy != nil {
		fmt.Fprintf(w, "  %-16s %.3f\n", "accuracy", *report.Accuracy)
	}
	if auroc, ok := d.AUROCValue(); ok {
		fmt.Fprintf(w, "  %-16s %.3f\n", "auroc", auroc)
	}
	if n := len(d.History); n > 0 {
		last := d.History[n-1]
		fmt.Fprintf(w, "  epoch %d: acc %.3f val_acc %.3f loss %.3f val_loss %.3f\n",
			last.Epoch, last.Accuracy, last.ValAccuracy, last.Loss, last.ValLoss)
	}
}

// curveSeries collects one curve per summarized model for dataset.
func curveSeries(eval *inference.Evaluation, dataset string, pick func(inference.ModelDetail) []curve.Point) []curve.Series {
	var series []curve.Series
	for _, s := range eval.Summary {
		if s.Dataset != dataset {
			continue
		}
		if d, ok := eval.Detail(s.Model, s.Dataset); ok {
			series = append(series, curve.Series{Name: s.Model, Points: pick(d)})
		}
	}
	return series
}

func printHits(w io.Writer, name string, x float64, series []curve.Series) {
	fmt.Fprintf(w, "\n%s @ %.3f\n", name, x)
	hits := curve.NearestEach(series, x)
	if len(hits) == 0 {
		fmt.Fprintf(w, "  %s\n", inference.NotAvailable)
		return
	}
	for _, h := range hits {
		fmt.Fprintf(w, "  %-12s x=%.3f y=%.3f\n", h.Series, h.Point.X, h.Point.Y)
	}
}

// printSweep tabulates the nearest ROC point of every series at n false
// positive rates spanning [0, 1].
func printSweep(w io.Writer, n int, series []curve.Series) {
	fmt.Fprintf(w, "\nROC sweep\n  %7s", "fpr")
	indexes := make([]*curve.Index, len(series))
	for i, s := range series {
		indexes[i] = curve.NewIndex(s.Points)
		fmt.Fprintf(w, " %7s", s.Name)
	}
	fmt.Fprintln(w)

	for k := 0; k < n; k++ {
		x := 0.0
		if n > 1 {
			x = float64(k) / float64(n-1)
		}
		fmt.Fprintf(w, "  %7.3f", x)
		for _, ix := range indexes {
			if p, ok := ix.Nearest(x); ok {
				fmt.Fprintf(w, " %7.3f", p.Y)
			} else {
				fmt.Fprintf(w, " %7s", inference.NotAvailable)
			}
		}
		fmt.Fprintln(w)
	}
}

func newEDACommand(a *app) *cobra.Command {
	var (
		offline bool
		dataset string
	)

	cmd := &cobra.Command{
		Use:   "eda",
		Short: "Browse the curated dataset samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			raw, err := a.loadView(cmd, cache.KeyEDASamples, inference.PathDatasetSamples, offline)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			samples, err := inference.DecodeDatasetSamples(raw)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}

			names := samples.Names()
			if dataset != "" {
				names = []string{dataset}
			}
			for _, name := range names {
				ds, ok := samples[name]
				if !ok {
					fmt.Fprintf(out, "%s: %s\n", name, inference.NotAvailable)
					continue
				}
				fmt.Fprintln(out, tui.RenderDataset(name, ds, a.tr))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Show the cached payload without contacting the backend")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Only list this dataset")

	return cmd
}

func newOverviewCommand(a *app) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the research dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.loadView(cmd, cache.KeyEngineOverview, inference.PathOverview, offline)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			o, err := inference.DecodeOverview(raw)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderOverview(o, a.tr))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Show the cached payload without contacting the backend")
	return cmd
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the inference backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Status(cmd.Context())
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			gpu := "cpu"
			if st.GPU {
				gpu = "gpu"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n", a.client.BaseURL(), st.Status, gpu, healthWord(st.Healthy()))
			return nil
		},
	}
}

func healthWord(ok bool) string {
	if ok {
		return "healthy"
	}
	return "degraded"
}
