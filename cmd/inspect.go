package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"pelohub/internal/audio"
	"pelohub/internal/config"
	"pelohub/internal/session"
	"pelohub/internal/spectrogram"
	"pelohub/internal/tui"

	"github.com/spf13/cobra"
)

func newInspectCommand(a *app) *cobra.Command {
	var (
		pngPath string
		save    bool
		cursor  float64
		source  string
		window  string
		buckets int
		width   int
		height  int
	)

	cmd := &cobra.Command{
		Use:   "inspect <file|url>",
		Short: "Decode a recording and show its signal info, waveform and spectrogram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			opts := a.renderOptions()
			if cmd.Flags().Changed("source") {
				opts.SpectrogramSource = source
			}
			if cmd.Flags().Changed("window") {
				opts.Window = window
			}
			if cmd.Flags().Changed("width") {
				opts.Width = width
			}
			if cmd.Flags().Changed("height") {
				opts.Height = height
			}
			if opts.Width <= 0 || opts.Height <= 0 {
				return a.notify(cmd.ErrOrStderr(), fmt.Errorf("spectrogram size must be positive, got %dx%d", opts.Width, opts.Height))
			}
			if cmd.Flags().Changed("buckets") {
				opts.Buckets = min(max(buckets, config.MinWaveformBuckets), config.MaxWaveformBuckets)
			}

			data, name, err := a.readSource(ctx, args[0])
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}

			sess := session.New(session.Deps{Render: opts})
			defer sess.Close()
			if err := sess.LoadSource(ctx, data, name); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			src := sess.Source()
			sig := src.Signal

			fmt.Fprintf(out, "%s\n", tui.Title(name))
			fmt.Fprintf(out, "  Format:      %s (%s)\n", sig.Format, sig.BitDepthLabel)
			fmt.Fprintf(out, "  Sample rate: %d Hz\n", sig.SampleRate)
			fmt.Fprintf(out, "  Channels:    %s\n", sig.ChannelLabel())
			fmt.Fprintf(out, "  Duration:    %s (%.2fs)\n", audio.FormatClock(sig.Duration), sig.DurationSeconds())
			fmt.Fprintf(out, "  Peak level:  %.2f\n\n", src.Waveform.Peak())
			fmt.Fprintln(out, tui.WaveformLine(src.Waveform, cursor, cmd.Flags().Changed("cursor")))

			bands, err := spectrogram.BandEnergies(sig.Primary(), sig.SampleRate, opts.FFTSize, spectrogram.SpeechBands())
			if err == nil {
				fmt.Fprintln(out)
				for _, b := range bands {
					fmt.Fprintf(out, "  %-10s %5.0f-%-5.0f Hz %s %.2f\n",
						b.Name, b.LowHz, b.HighHz, strings.Repeat("█", int(b.Energy*20)), b.Energy)
				}
			}

			if save && pngPath == "" {
				pngPath = filepath.Join(a.cfg.Render.OutputDir,
					strings.TrimSuffix(name, filepath.Ext(name))+".png")
			}
			if pngPath == "" {
				return nil
			}
			if src.Raster == nil {
				return a.notify(cmd.ErrOrStderr(), fmt.Errorf("no spectrogram to render for %s", name))
			}
			// The session raster is shared; draw the cursor on a fresh render.
			img := spectrogram.Render(src.Frame, opts.Width, opts.Height)
			if cmd.Flags().Changed("cursor") {
				spectrogram.DrawCursor(img, cursor)
			}
			if err := spectrogram.SavePNG(pngPath, img); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(out, "\n%s spectrogram written to %s\n", src.Frame.Origin, pngPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&pngPath, "png", "", "Write the spectrogram to this PNG file")
	cmd.Flags().BoolVar(&save, "save", false, "Write the spectrogram PNG into render.output_dir")
	cmd.Flags().Float64Var(&cursor, "cursor", 0, "Draw the playhead at this fraction of the track (0-1)")
	cmd.Flags().StringVar(&source, "source", config.DefaultSpectrogramSource,
		"Spectrogram source when the backend provides none (stft or synthetic)")
	cmd.Flags().StringVar(&window, "window", config.DefaultSpectrogramWindow,
		"STFT window (hann, hamming, blackman, blackmannuttall, bartletthann, lanczos, nuttall)")
	cmd.Flags().IntVarP(&buckets, "buckets", "n", config.DefaultWaveformBuckets, "Number of waveform bars")
	cmd.Flags().IntVar(&width, "width", config.DefaultSpectrogramWidth, "Spectrogram PNG width in pixels")
	cmd.Flags().IntVar(&height, "height", config.DefaultSpectrogramHeight, "Spectrogram PNG height in pixels")

	return cmd
}
