package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/credentials"
	"github.com/tartampluch/birthday-liberator/internal/engine"
	"github.com/tartampluch/birthday-liberator/internal/inspect"
	"github.com/tartampluch/birthday-liberator/internal/locale"
	"github.com/tartampluch/birthday-liberator/internal/server"
	"github.com/tartampluch/birthday-liberator/internal/worker"
)

// app carries the process streams and the state shared by all commands.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	debug      bool
	logCloser  io.Closer

	// Replaced in tests.
	prompter *credentials.Prompter
	now      func() time.Time
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:       in,
		out:      out,
		errOut:   errOut,
		prompter: credentials.NewPrompter(),
		now:      time.Now,
	}
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close() // Best effort close
		a.logCloser = nil
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           config.CmdRoot,
		Short:         config.ShortRoot,
		Long:          config.LongRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, config.FlagConfig, "", config.FlagDescConfig)
	root.PersistentFlags().BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)

	cfgCmd := &cobra.Command{Use: config.CmdConfig, Short: config.ShortConfig}
	cfgCmd.AddCommand(a.configInitCmd())

	root.AddCommand(
		a.convertCmd(),
		a.serveCmd(),
		a.inspectCmd(),
		a.loginCmd(),
		cfgCmd,
		a.versionCmd(),
	)
	return root
}

// prepare loads the layered settings for cmd and starts logging at level,
// or at debug level when settings ask for it.
func (a *app) prepare(cmd *cobra.Command, level slog.Level) (*config.Settings, error) {
	s, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		a.startLogging(level, a.debug)
		return nil, err
	}
	a.startLogging(level, s.Debug)
	logStartupInfo(cmd.Name())
	return s, nil
}

func (a *app) startLogging(level slog.Level, debug bool) {
	a.close()
	a.logCloser = setupLogging(a.errOut, level, debug)
}

// generator wires the conversion pipeline for s.
func (a *app) generator(s *config.Settings) (*engine.Generator, error) {
	catalog, err := locale.Load()
	if err != nil {
		return nil, err
	}

	if s.Language != "" && !catalog.Supports(s.Language) {
		slog.Warn(config.MsgLangFallback,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyLang, s.Language,
		)
	}

	gen := &engine.Generator{
		Clock:     engine.RealClock{},
		IDs:       engine.RandomIDs{},
		Collector: engine.SlogCollector{},
		Fetcher:   engine.NewHTTPFetcher(),
		Texts:     catalog.Texts(s.Language),
		Strict:    s.Strict,
	}
	if s.StableUIDs {
		gen.IDs = engine.StableIDs{}
	}
	return gen, nil
}

// source turns the settings into a sync configuration. The password of a web
// source comes from the keyring.
func source(s *config.Settings) (engine.SyncConfig, error) {
	switch s.SourceMode() {
	case config.SourceModeWeb:
		cfg := engine.SyncConfig{
			Mode:    config.SourceModeWeb,
			WebURL:  s.Source.URL,
			WebUser: s.Source.User,
		}
		if cfg.WebUser != "" {
			cfg.WebPass = credentials.Lookup(cfg.WebUser)
		}
		return cfg, nil
	case config.SourceModeLocal:
		return engine.SyncConfig{Mode: config.SourceModeLocal, LocalPath: s.Input}, nil
	default:
		return engine.SyncConfig{}, errors.New(config.ErrNoSource)
	}
}

// -----------------------------------------------------------------------------
// convert
// -----------------------------------------------------------------------------

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdConvert,
		Short: config.ShortConv,
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runConvert,
	}
	f := cmd.Flags()
	f.StringP(config.FlagOutput, "o", config.DefaultOutput, config.FlagDescOutput)
	f.String(config.FlagURL, "", config.FlagDescURL)
	f.String(config.FlagUser, "", config.FlagDescUser)
	f.Bool(config.FlagStrict, false, config.FlagDescStrict)
	f.Bool(config.FlagStableUIDs, false, config.FlagDescStableUIDs)
	f.String(config.FlagLang, config.DefaultLanguage, config.FlagDescLang)
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	s, err := a.prepare(cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		s.Input = args[0]
	}

	gen, err := a.generator(s)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var report engine.Report
	if s.SourceMode() == config.SourceModeLocal && s.Input == config.StdioPath {
		report, err = gen.Convert(ctx, a.in)
	} else {
		var src engine.SyncConfig
		if src, err = source(s); err != nil {
			return err
		}
		report, err = gen.RunSync(ctx, src)
	}
	if err != nil {
		return err
	}

	// Summary lines never mix with a calendar written to stdout.
	msgOut := a.out
	if s.Output == config.StdioPath {
		msgOut = a.errOut
	}

	for _, d := range report.Skipped {
		_, _ = fmt.Fprintf(msgOut, config.MsgSkippedLine, d.Name, d.Value)
	}
	if problem := report.Problem(); problem != nil {
		_, _ = fmt.Fprintln(msgOut, engine.Explain(problem))
		return nil
	}

	if err := writeCalendar(a.out, s.Output, report.Calendar); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(msgOut, config.MsgConverted, report.Processed, report.Extracted, s.Output)
	return nil
}

// writeCalendar writes data to path, or to stdout when path is "-".
func writeCalendar(stdout io.Writer, path string, data []byte) error {
	if path == config.StdioPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%s: %w", config.ErrWriteOutput, err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, config.FilePermShared); err != nil {
		return fmt.Errorf("%s: %w", config.ErrWriteOutput, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdServe,
		Short: config.ShortServe,
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	f := cmd.Flags()
	f.String(config.FlagPort, config.DefaultPort, config.FlagDescPort)
	f.String(config.FlagInput, "", config.FlagDescInput)
	f.String(config.FlagURL, "", config.FlagDescURL)
	f.String(config.FlagUser, "", config.FlagDescUser)
	f.String(config.FlagRefresh, config.DefaultRefresh, config.FlagDescRefresh)
	f.Bool(config.FlagStrict, false, config.FlagDescStrict)
	f.Bool(config.FlagStableUIDs, false, config.FlagDescStableUIDs)
	f.String(config.FlagLang, config.DefaultLanguage, config.FlagDescLang)
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	s, err := a.prepare(cmd, slog.LevelInfo)
	if err != nil {
		return err
	}

	gen, err := a.generator(s)
	if err != nil {
		return err
	}
	srv := server.NewCalendarServer(s.Server.Port, gen)

	// Without a source the server only converts uploads.
	var refresher *worker.Refresher
	if src, err := source(s); err == nil {
		if refresher, err = worker.New(gen, srv, src, s.Server.Refresh); err != nil {
			return err
		}
	} else {
		slog.Warn(config.MsgNoSourceServe, config.LogKeyComponent, config.CompMain)
	}

	// SIGHUP re-converts the source without waiting for the schedule.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	return serve(cmd.Context(), srv, refresher, reload)
}

// serve runs the server and the optional refresher until ctx is cancelled or
// the server fails. Each value received on reload triggers an immediate sync.
func serve(ctx context.Context, srv *server.CalendarServer, refresher *worker.Refresher, reload <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if refresher != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			refresher.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case sig := <-reload:
					slog.Info(config.MsgReloadSignal,
						config.LogKeyComponent, config.CompMain,
						config.LogKeySignal, sig.String(),
					)
					refresher.SyncNow(ctx)
				}
			}
		}()
	}

	err := srv.Start(ctx)
	if ctx.Err() != nil {
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
	}
	cancel()
	wg.Wait()

	if err == nil {
		slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	}
	return err
}

// -----------------------------------------------------------------------------
// inspect
// -----------------------------------------------------------------------------

func (a *app) inspectCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   config.CmdInspect,
		Short: config.ShortInsp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.prepare(cmd, slog.LevelWarn); err != nil {
				return err
			}
			return a.runInspect(args[0], format)
		},
	}
	cmd.Flags().StringVar(&format, config.FlagFormat, config.OutputTable, config.FlagDescFormat)
	return cmd
}

func (a *app) runInspect(path, format string) error {
	var r io.Reader = a.in
	if path != config.StdioPath {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrOpenCalendar, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	entries, err := inspect.Read(r, a.now())
	if err != nil {
		return err
	}
	return inspect.Write(a.out, entries, format)
}

// -----------------------------------------------------------------------------
// login
// -----------------------------------------------------------------------------

func (a *app) loginCmd() *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   config.CmdLogin,
		Short: config.ShortLogin,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.startLogging(slog.LevelWarn, a.debug)
			user := args[0]

			if forget {
				if err := credentials.Forget(user); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.out, config.MsgPassForgotten, user)
				return nil
			}

			pass, err := a.prompter.Prompt(user)
			if err != nil {
				return err
			}
			if err := credentials.Store(user, pass); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, config.MsgPassStored, user)
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, config.FlagForget, false, config.FlagDescForget)
	return cmd
}

// -----------------------------------------------------------------------------
// config init & version
// -----------------------------------------------------------------------------

func (a *app) configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdInit,
		Short: config.ShortInit,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a.startLogging(slog.LevelWarn, a.debug)

			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.DefaultSettingsPath(); err != nil {
					return err
				}
			}

			if err := config.Save(path, config.DefaultSettings()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, config.MsgConfigSaved, path)
			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.ShortVer,
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion(a.out)
		},
	}
}
