package listener

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
)

// NewModule creates an fx module serving the http.Handler tagged name:"<name>".
// With options the module supplies its own Config under the same tag;
// without, a Config tagged name:"<name>" must be provided elsewhere. A serve
// failure shuts the application down.
//
//nolint:ireturn // fx.Option is the standard return type for Fx modules
func NewModule(name string, opts ...Option) fx.Option {
	if name == "" {
		return fx.Error(ErrEmptyName)
	}

	tag := fmt.Sprintf(`name:"%s"`, name)

	var moduleOpts []fx.Option

	if len(opts) > 0 {
		var cfg Config

		for _, apply := range opts {
			apply(&cfg)
		}

		moduleOpts = append(moduleOpts, fx.Supply(fx.Annotate(cfg, fx.ResultTags(tag))))
	}

	moduleOpts = append(moduleOpts, fx.Invoke(
		fx.Annotate(
			func(lifecycle fx.Lifecycle, shutdowner fx.Shutdowner, handler http.Handler, listenerCfg Config) error {
				srv, err := NewServer(name, handler, listenerCfg, func() {
					shutdownErr := shutdowner.Shutdown(fx.ExitCode(1))
					if shutdownErr != nil {
						slog.Error("failed to trigger shutdown", slog.String("name", name), slog.Any("error", shutdownErr))
					}
				})
				if err != nil {
					return err
				}

				lifecycle.Append(fx.Hook{
					OnStart: srv.Start,
					OnStop:  srv.Stop,
				})

				return nil
			},
			fx.ParamTags("", "", tag, tag),
		),
	))

	return fx.Module(name, moduleOpts...)
}
