// Package cmd is the pelohub command line. Each subcommand is a thin shell
// over the internal packages: it resolves configuration, wires collaborators
// and prints one notice per failure.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pelohub/internal/apperr"
	"pelohub/internal/cache"
	"pelohub/internal/config"
	"pelohub/internal/i18n"
	"pelohub/internal/inference"
	"pelohub/internal/log"
	"pelohub/internal/session"
	"pelohub/internal/spectrogram"
	"pelohub/pkg/build"

	"github.com/spf13/cobra"
)

// app carries what every subcommand shares. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	configPath string
	logLevel   string
	language   string
	apiURL     string
	cacheDir   string
	noCache    bool

	cfg    *config.Config
	tr     *i18n.Translator
	client *inference.Client
	store  *cache.Store
}

// Execute runs the command line against os.Args and returns the exit code.
func Execute() int {
	a := &app{}
	root := newRootCommand(a)
	root.SetArgs(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	if cerr := a.teardown(); cerr != nil {
		log.Warnf("Cache: close failed: %v", cerr)
	}
	if err != nil {
		if !IsReported(err) {
			fmt.Fprintln(root.ErrOrStderr(), a.notice(err))
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.VersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Global configuration
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "f", "",
		"Path to a YAML config file. Defaults to ./config.yaml or ./pelohub.yaml when present")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.language, "lang", config.DefaultLanguage,
		"Interface language (id or en)")
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", config.DefaultAPIBaseURL,
		"Base URL of the inference backend")
	rootCmd.PersistentFlags().StringVar(&a.cacheDir, "cache-dir", config.DefaultCacheDir,
		"Directory of the persistent cache")
	rootCmd.PersistentFlags().BoolVar(&a.noCache, "no-cache", false,
		"Keep cached payloads and the analysis log in memory only")

	rootCmd.AddCommand(
		newInspectCommand(a),
		newPredictCommand(a),
		newRecordCommand(a),
		newPlayCommand(a),
		newEvaluationCommand(a),
		newEDACommand(a),
		newOverviewCommand(a),
		newStatusCommand(a),
		newLogsCommand(a),
		newDevicesCommand(a),
		newCacheCommand(a),
	)

	return rootCmd
}

// setup loads the configuration and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("lang") {
		cfg.Language = a.language
	}
	if flags.Changed("api") {
		cfg.API.BaseURL = strings.TrimRight(a.apiURL, "/")
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = a.cacheDir
	}
	if a.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := spectrogram.ParseWindowFunc(cfg.Render.Window); err != nil {
		return fmt.Errorf("invalid configuration: render.window: %w", err)
	}

	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warnf("Config: unknown log level %q, keeping %s", cfg.LogLevel, log.GetLevel())
	} else {
		log.SetLevel(level)
	}

	a.cfg = cfg
	a.tr = i18n.New(cfg.Language)
	a.client = inference.NewClient(cfg.API.BaseURL,
		inference.WithTimeout(cfg.API.Timeout),
		inference.WithModels(cfg.API.Models),
	)
	return nil
}

// teardown closes the cache. It is safe to call more than once.
func (a *app) teardown() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	_ = log.Sync()
	return err
}

// openCache opens the store on first use. A disabled cache is kept in memory
// for the lifetime of the command.
func (a *app) openCache() (*cache.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	opts := cache.Options{Dir: a.cfg.Cache.Dir}
	if !a.cfg.Cache.Enabled {
		opts = cache.Options{InMemory: true}
	}
	store, err := cache.Open(opts)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) renderOptions() session.RenderOptions {
	r := a.cfg.Render
	return session.RenderOptions{
		Buckets:           r.WaveformBuckets,
		Width:             r.SpectrogramWidth,
		Height:            r.SpectrogramHeight,
		Steps:             r.SpectrogramSteps,
		Bands:             r.SpectrogramBands,
		SpectrogramSource: r.SpectrogramSource,
		FFTSize:           r.FFTSize,
		Window:            r.Window,
	}
}

// notice renders err in the configured language. Errors raised before setup
// finished fall back to English.
func (a *app) notice(err error) string {
	if a.tr == nil {
		return apperr.Notice(err)
	}
	return apperr.NoticeIn(a.tr, err)
}

// notify prints the user-facing line for err and returns it wrapped so the
// process exits non-zero without Execute printing it a second time.
func (a *app) notify(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintln(w, a.notice(err))
	return errReported{err}
}

// errReported marks an error whose notice has already been printed.
type errReported struct{ error }

func (e errReported) Unwrap() error { return e.error }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r errReported
	return errors.As(err, &r)
}
