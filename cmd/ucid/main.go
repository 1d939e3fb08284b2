// Command ucid serves a uci.Context over HTTP on a unix socket or TCP
// address. Pending changes are committed when it shuts down.
package main

import (
	"fmt"
	"os"

	uci "github.com/0xalexb/hjarta-uci"
	"github.com/0xalexb/hjarta-uci/daemon"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(daemonRunner).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ucid: %v\n", err)
		os.Exit(1)
	}
}

// runner starts the daemon with opts and blocks until it stops.
type runner func(opts ...daemon.Option) error

func daemonRunner(opts ...daemon.Option) error {
	app := daemon.NewApp(opts...)
	if err := app.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	app.Run()

	return nil
}

func newRootCmd(run runner) *cobra.Command {
	var settingsFile, section, listen, logLevel string

	cmd := &cobra.Command{
		Use:   "ucid",
		Short: "Serve UCI configuration over HTTP",
		Long: `ucid keeps one UCI context in memory and serves it as JSON over HTTP,
on a unix socket by default. Every operation is a POST to /uci/<op>.
Staged changes are committed when ucid shuts down.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", uci.Version, uci.Commit, uci.CompiledAt),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(
				daemon.WithSettingsFile(settingsFile, section),
				daemon.WithListen(listen),
				daemon.WithLogLevel(logLevel),
			)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&settingsFile, "settings", "", "settings file (yaml or toml); a missing file means defaults")
	flags.StringVar(&section, "section", "", `section of the settings file to read, e.g. "services:ucid"`)
	flags.StringVar(&listen, "listen", "", `listen address, "host:port" or "unix:<path>"`)
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.CompletionOptions.DisableDefaultCmd = true

	return cmd
}
