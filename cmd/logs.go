package cmd

import (
	"fmt"

	"pelohub/internal/audio"
	"pelohub/internal/tui"

	"github.com/spf13/cobra"
)

func newLogsCommand(a *app) *cobra.Command {
	var (
		clearAll bool
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the history of analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			history, err := a.loadLog()
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}

			if clearAll {
				history.Clear()
				if err := a.saveLog(history); err != nil {
					return a.notify(cmd.ErrOrStderr(), err)
				}
				fmt.Fprintln(out, a.tr.T("logs.cleared"))
				return nil
			}

			if plain {
				fmt.Fprint(out, history.Render(a.tr))
				return nil
			}
			fmt.Fprint(out, tui.RenderLogs(history.Entries(), a.tr))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every entry")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one line per entry instead of a table")
	return cmd
}

func newDevicesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"list"},
		Short:   "List available audio devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Initialize PortAudio subsystem
			if err := audio.Initialize(); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			defer audio.Terminate()

			if err := audio.ListDevices(cmd.OutOrStdout()); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			return nil
		},
	}
}

func newCacheCommand(a *app) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached backend payloads",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached payload and the analysis history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCache()
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			if err := store.Clear(); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s)\n", a.cfg.Cache.Dir)
			return nil
		},
	})

	return cacheCmd
}
