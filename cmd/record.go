// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pelohub/internal/audio"
	"pelohub/internal/capture"
	"pelohub/internal/config"
	"pelohub/internal/session"
	"pelohub/internal/tui"

	"github.com/spf13/cobra"
)

const meterWidth = 20

func newRecordCommand(a *app) *cobra.Command {
	var (
		output      string
		deviceID    int
		sampleRate  float64
		channels    int
		frames      int
		lowLatency  bool
		maxDuration time.Duration
		pick        bool
		analyze     bool
		model       string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone into a 16-bit WAV file, optionally classifying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			capCfg := a.cfg.Capture
			flags := cmd.Flags()
			if flags.Changed("device") {
				capCfg.InputDevice = deviceID
			}
			if flags.Changed("sample-rate") {
				capCfg.SampleRate = sampleRate
			}
			if flags.Changed("channels") {
				capCfg.Channels = channels
			}
			if flags.Changed("frames-per-buffer") {
				capCfg.FramesPerBuffer = frames
			}
			if flags.Changed("low-latency") {
				capCfg.LowLatency = lowLatency
			}
			if flags.Changed("max-duration") {
				capCfg.MaxDuration = maxDuration
			}
			if !flags.Changed("model") {
				model = a.cfg.API.Model
			}

			if pick {
				sel, err := tui.StartDeviceListUI()
				if err != nil {
					return a.notify(cmd.ErrOrStderr(), err)
				}
				if !sel.Confirmed {
					return nil
				}
				capCfg.InputDevice = sel.Device.ID
				capCfg.SampleRate = sel.SampleRate
				capCfg.Channels = sel.Channels
			}

			if output == "" {
				output = "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return a.notify(cmd.ErrOrStderr(), err)
				}
			}

			// Initialize PortAudio subsystem
			if err := audio.Initialize(); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			defer audio.Terminate()

			rec := capture.NewRecorder(capCfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n", tui.Title(a.tr.T("live.recording")), tui.Dim(a.tr.T("live.rec_hint")))

			meterCtx, stopMeter := context.WithCancel(cmd.Context())
			meterDone := make(chan struct{})
			go func() {
				defer close(meterDone)
				showMeter(meterCtx, rec, out)
			}()

			path, err := rec.Record(cmd.Context(), output, capCfg.MaxDuration)
			stopMeter()
			<-meterDone
			fmt.Fprintln(out)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(out, "Recording saved to: %s\n", path)

			if !analyze {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			// The interrupt that ended the recording must not cancel the upload.
			cmd.SetContext(context.WithoutCancel(cmd.Context()))
			return a.predict(cmd, data, filepath.Base(path), model, session.ModeRecord)
		},
	}

	// Audio Device Configuration
	cmd.Flags().IntVarP(&deviceID, "device", "d", config.DefaultInputDevice,
		"Input device ID. Use the 'devices' command to see available devices")
	cmd.Flags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultCaptureRate, "Sample rate, measured in Hertz (Hz)")
	cmd.Flags().IntVarP(&channels, "channels", "c", config.DefaultCaptureChannels, "Number of channels to record (1=mono, 2=stereo)")
	cmd.Flags().IntVarP(&frames, "frames-per-buffer", "b", config.DefaultFramesPerBuffer, "The number of frames per buffer (affects latency)")
	cmd.Flags().BoolVarP(&lowLatency, "low-latency", "l", false, "Use low latency mode")
	cmd.Flags().DurationVar(&maxDuration, "max-duration", config.DefaultMaxCaptureLength, "Stop automatically after this long (0 waits for Ctrl+C)")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose the input device and sample rate interactively")

	// Recording Configuration
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")
	cmd.Flags().BoolVarP(&analyze, "predict", "p", false, "Classify the recording once it is saved")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model id used with --predict: "+modelIDs())

	return cmd
}

// showMeter redraws a one-line elapsed time and level meter until ctx ends.
func showMeter(ctx context.Context, rec *capture.Recorder, w io.Writer) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			level := rec.Level()
			bar := strings.Repeat("▮", int(level*meterWidth))
			if capture.Silent(level, 0.02) {
				bar = tui.Dim("·")
			}
			fmt.Fprintf(w, "\r● %s %-*s", audio.FormatClock(rec.Elapsed()), meterWidth, bar)
		}
	}
}
