// Package daemon assembles ucid: settings, logging, the uci.Context behind
// the HTTP API, the listener serving it and the config directory watcher.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	uci "github.com/0xalexb/hjarta-uci"
	"github.com/0xalexb/hjarta-uci/api"
	"github.com/0xalexb/hjarta-uci/config"
	filefetcher "github.com/0xalexb/hjarta-uci/config/fetcher/file"
	"github.com/0xalexb/hjarta-uci/listener"
	"github.com/0xalexb/hjarta-uci/listener/middleware"
	"github.com/0xalexb/hjarta-uci/logging"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// ListenerName tags the API handler and listener config in the container.
const ListenerName = "ucid"

var errAppNotInitialized = errors.New("app not initialized")

// App is the ucid daemon.
type App struct {
	app *fx.App
}

// NewApp creates the daemon. Configuration errors surface from Start.
func NewApp(opts ...Option) *App {
	var options Options

	for _, apply := range opts {
		apply(&options)
	}

	return &App{
		app: configure(&options),
	}
}

func configure(options *Options) *fx.App {
	tag := fmt.Sprintf(`name:"%s"`, ListenerName)

	return fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		settingsModule(options),
		fx.Provide(
			func(settings *config.Settings) logging.LoggerConfig { return settings.Log },
			newLogger(options.LogOutput),
			newContext,
			newStore,
			fx.Annotate(newHandler, fx.ResultTags(tag)),
			fx.Annotate(newListenerConfig, fx.ResultTags(tag)),
		),
		listener.NewModule(ListenerName),
		fx.Invoke(registerWatcher),
		fx.Options(options.Modules...),
	)
}

// settingsModule provides *config.Settings from Options.Settings or from the
// settings file. The override decorator sits at the root so every module sees
// the final settings.
//
//nolint:ireturn // fx.Option is the standard return type for Fx modules
func settingsModule(options *Options) fx.Option {
	source := fx.Provide(
		func() config.Parser { return config.ParserFor(options.SettingsFile) },
		fx.Annotate(filefetcher.NewOptionalFetcher(options.SettingsFile), fx.As(new(config.DataFetcher))),
		config.Provider(new(config.Settings), options.SettingsPath),
	)

	if options.Settings != nil {
		source = fx.Provide(func() *config.Settings {
			settings := *options.Settings
			settings.SetDefaults()

			return &settings
		})
	}

	return fx.Options(
		fx.Module("settings", source),
		fx.Decorate(func(settings *config.Settings) (*config.Settings, error) {
			return overrideSettings(settings, options)
		}),
	)
}

// overrideSettings applies UCI_CONFDIR, UCI_SAVEDIR and the option overrides.
func overrideSettings(settings *config.Settings, options *Options) (*config.Settings, error) {
	settings.ApplyEnv(os.LookupEnv)

	if options.LogLevel != "" {
		settings.Log.Level = strings.ToLower(options.LogLevel)
	}

	if options.Listen != "" {
		settings.Listen = options.Listen
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func newLogger(output io.Writer) func(logging.LoggerConfig) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}

	return func(cfg logging.LoggerConfig) *slog.Logger {
		logger := logging.NewLogger(cfg, output)
		slog.SetDefault(logger)

		return logger
	}
}

func newContext(settings *config.Settings, logger *slog.Logger) (*uci.Context, error) {
	opts := append(settings.ContextOptions(), uci.WithLogger(logger))

	ctx, err := uci.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating uci context: %w", err)
	}

	return ctx, nil
}

// newStore closes the Context, committing pending changes, when the app stops.
func newStore(lifecycle fx.Lifecycle, ctx *uci.Context) (*api.Store, error) {
	store, err := api.NewStore(ctx)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: store.Close,
	})

	return store, nil
}

func newHandler(store *api.Store, settings *config.Settings) http.Handler {
	return middleware.Chain(api.NewHandler(store),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.MaxRequestSize(settings.MaxRequestBytes),
		middleware.Timeout(settings.RequestTimeout),
	)
}

func newListenerConfig(settings *config.Settings) listener.Config {
	return listener.Config{Address: settings.Listen}
}

func registerWatcher(lifecycle fx.Lifecycle, settings *config.Settings, store *api.Store, logger *slog.Logger) {
	if !settings.Watch {
		return
	}

	watcher := NewWatcher(settings.ConfDir, store, logger, 0)

	lifecycle.Append(fx.Hook{
		OnStart: watcher.Start,
		OnStop:  watcher.Stop,
	})
}

// Start starts the daemon.
func (app *App) Start() error {
	if app != nil && app.app != nil {
		err := app.app.Start(context.Background())
		if err != nil {
			return fmt.Errorf("failed to start app: %w", err)
		}

		return nil
	}

	return errAppNotInitialized
}

// Run starts the daemon and blocks until an OS signal is received, then shuts down gracefully.
func (app *App) Run() {
	if app == nil || app.app == nil {
		slog.Error("attempted to run an uninitialized app")

		return
	}

	app.app.Run()
}

// Stop stops the daemon, committing pending changes.
func (app *App) Stop() error {
	if app != nil && app.app != nil {
		err := app.app.Stop(context.Background())
		if err != nil {
			return fmt.Errorf("failed to stop app: %w", err)
		}

		return nil
	}

	return errAppNotInitialized
}

// Err reports a configuration error found while building the app.
func (app *App) Err() error {
	if app == nil || app.app == nil {
		return errAppNotInitialized
	}

	return app.app.Err() //nolint:wrapcheck
}
