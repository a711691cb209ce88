package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pelohub/internal/audio"
	"pelohub/internal/config"
	"pelohub/internal/log"
	"pelohub/internal/playback"
	"pelohub/internal/session"
	"pelohub/internal/transport"
	"pelohub/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newPlayCommand(a *app) *cobra.Command {
	var (
		deviceID    int
		silent      bool
		autoplay    bool
		wsEnabled   bool
		wsAddr      string
		traceFrames bool
	)

	cmd := &cobra.Command{
		Use:   "play <file|url>",
		Short: "Play a recording with a live waveform cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("device") {
				deviceID = a.cfg.Playback.OutputDevice
			}
			if !flags.Changed("ws") {
				wsEnabled = a.cfg.Transport.WebSocketEnabled
			}
			if !flags.Changed("ws-addr") {
				wsAddr = a.cfg.Transport.WebSocketAddr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			data, name, err := a.readSource(ctx, args[0])
			if err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}

			if !silent {
				// Initialize PortAudio subsystem
				if err := audio.Initialize(); err != nil {
					return a.notify(cmd.ErrOrStderr(), err)
				}
				defer audio.Terminate()
			}

			sess := session.New(session.Deps{
				Render: a.renderOptions(),
				NewClock: func(sig *audio.Signal) (*playback.Clock, error) {
					if silent {
						return playback.NewClock(sig.Duration), nil
					}
					sink, err := audio.NewDeviceSink(sig, deviceID)
					if err != nil {
						return nil, err
					}
					return playback.NewClock(sig.Duration, playback.WithSink(sink)), nil
				},
			})
			defer sess.Close()
			if err := sess.LoadSource(ctx, data, name); err != nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			src, clock := sess.Source(), sess.Clock()

			var sinks transport.Multi
			if traceFrames {
				sinks = append(sinks, transport.NewLoggingTransport())
			}
			if wsEnabled {
				ws := transport.NewWebSocketTransport(wsAddr)
				if err := ws.ListenAndServe(); err != nil {
					_ = ws.Close()
					return a.notify(cmd.ErrOrStderr(), fmt.Errorf("failed to start cursor stream on %s: %w", wsAddr, err))
				}
				sinks = append(sinks, ws)
			}
			defer func() {
				if err := sinks.Close(); err != nil {
					log.Warnf("Transport: close failed: %v", err)
				}
			}()
			publish := transport.FrameSink(sinks)

			program := tea.NewProgram(
				tui.NewPlayerModel(name, src.Signal, src.Waveform, clock, a.tr),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)

			go func() {
				err := clock.Run(ctx, a.cfg.Playback.FrameInterval, func(pos playback.Position) {
					program.Send(tui.FrameMsg(pos))
					publish(pos)
				})
				if err != nil && ctx.Err() == nil {
					log.Warnf("Playback: frame loop ended: %v", err)
				}
			}()

			if autoplay {
				if err := clock.Play(); err != nil {
					return a.notify(cmd.ErrOrStderr(), err)
				}
			}

			// The player owns the terminal; keep log lines off it.
			if f, err := os.OpenFile(filepath.Join(os.TempDir(), "pelohub-play.log"),
				os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				restore := log.Redirect(f)
				defer func() {
					restore()
					f.Close()
				}()
			}

			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return a.notify(cmd.ErrOrStderr(), err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&deviceID, "device", "d", config.DefaultOutputDevice, "Output device ID. Use the 'devices' command to see available devices")
	cmd.Flags().BoolVar(&silent, "silent", false, "Drive the cursor without opening an output device")
	cmd.Flags().BoolVar(&autoplay, "autoplay", true, "Start playing immediately")
	cmd.Flags().BoolVar(&wsEnabled, "ws", false, "Broadcast cursor frames on ws://<ws-addr>/ws")
	cmd.Flags().StringVar(&wsAddr, "ws-addr", config.DefaultWebSocketAddr, "Listen address of the cursor stream")
	cmd.Flags().BoolVar(&traceFrames, "trace-frames", false, "Log every cursor frame at debug level")

	return cmd
}
