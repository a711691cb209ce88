package cmd

import (
	"fmt"
	"io"
	"strings"

	"pelohub/internal/inference"
	"pelohub/internal/log"
	"pelohub/internal/session"
	"pelohub/internal/tui"

	"github.com/spf13/cobra"
)

func newPredictCommand(a *app) *cobra.Command {
	var (
		model      string
		listModels bool
	)

	cmd := &cobra.Command{
		Use:   "predict <file|url>",
		Short: "Classify a recording with one of the backend models",
		Args: func(cmd *cobra.Command, args []string) error {
			if listModels {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if listModels {
				printModels(cmd.OutOrStdout())
				return nil
			}
			if !cmd.Flags().Changed("model") {
				model = a.cfg.API.Model
			}

			data, name, err := a.readSource(cmd.Context(), args[0])
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			return a.predict(cmd, data, name, model, session.ModeUpload)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model id: "+modelIDs())
	cmd.Flags().BoolVar(&listModels, "list-models", false, "List the available models and exit")

	return cmd
}

// predict runs one analysis through a session and records it in the
// persisted analysis log.
func (a *app) predict(cmd *cobra.Command, data []byte, name, model string, mode session.Mode) error {
	out := cmd.OutOrStdout()
	if _, ok := inference.LookupModel(model); !ok {
		log.Warnf("Predict: unknown model %q, sending it to the backend as is", model)
	}

	history, err := a.loadLog()
	if err != nil {
		return a.notify(cmd.ErrOrStderr(), err)
	}

	sess := session.New(session.Deps{
		Predictor:          a.client,
		OnAnalysisComplete: history.Append,
		Render:             a.renderOptions(),
		Model:              model,
	})
	defer sess.Close()
	if err := sess.SetMode(mode); err != nil {
		return a.notify(cmd.ErrOrStderr(), err)
	}

	ctx := cmd.Context()
	if err := sess.LoadSource(ctx, data, name); err != nil {
		return a.notify(cmd.ErrOrStderr(), err)
	}

	fmt.Fprintf(out, "%s %s %s\n", tui.Dim(a.tr.T("live.processing")), a.tr.T("live.via"), inference.ModelName(model))
	result, err := sess.Analyze(ctx)
	if err != nil {
		return a.notify(cmd.ErrOrStderr(), err)
	}
	fmt.Fprint(out, tui.RenderResult(result, inference.ModelName(model), a.tr))

	if err := a.saveLog(history); err != nil {
		log.Warnf("Logs: could not persist history: %v", err)
	}
	return nil
}

func printModels(w io.Writer) {
	for _, m := range inference.Catalog() {
		fmt.Fprintf(w, "%-10s %-18s %-34s ~%s\n", m.ID, m.Name, m.Description, m.Latency)
	}
}

func modelIDs() string {
	ids := make([]string, 0, 4)
	for _, m := range inference.Catalog() {
		ids = append(ids, m.ID)
	}
	return strings.Join(ids, ", ")
}
