package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	uci "github.com/0xalexb/hjarta-uci"
	"github.com/0xalexb/hjarta-uci/config"
	"github.com/0xalexb/hjarta-uci/logging"

	"github.com/spf13/cobra"
)

var errUsage = errors.New("usage")

// cli carries the state shared by every command of one invocation.
type cli struct {
	confDir      string
	saveDir      string
	settingsFile string
	logLevel     string
	lookupEnv    func(string) (string, bool)

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	ctx *uci.Context
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	app := &cli{stdin: stdin, stdout: stdout, stderr: stderr, lookupEnv: os.LookupEnv}

	root := &cobra.Command{
		Use:   "uci",
		Short: "Read and edit UCI configuration",
		Long: `uci manipulates UCI config files.

Paths have the form <config>[.<section>[.<option>]]. A section may be named,
or addressed as @<type>[<index>], @[<index>] or by a bare index counting
anonymous sections only; negative indexes count from the end.

Changes are kept in the save directory until they are committed:
  uci set network.lan.proto=static
  uci changes
  uci commit network`,
		Version:           uci.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.open,
	}

	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&app.confDir, "confdir", "c", "", "config directory (default "+uci.DefaultConfDir+", env "+config.EnvConfDir+")")
	flags.StringVarP(&app.saveDir, "savedir", "P", "", "save directory for staged changes (default "+uci.DefaultSaveDir+", env "+config.EnvSaveDir+")")
	flags.StringVar(&app.settingsFile, "settings", "", "settings file (yaml or toml)")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")

	root.CompletionOptions.DisableDefaultCmd = true

	for _, c := range commands {
		root.AddCommand(app.cobraCommand(c))
	}

	root.AddCommand(app.exportCmd(), app.batchCmd())

	return root
}

// open resolves the settings and creates the Context. Flags win over the
// environment, which wins over the settings file.
func (c *cli) open(_ *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(c.settingsFile)
	if err != nil {
		return err
	}

	settings.ApplyEnv(c.lookupEnv)

	if c.confDir != "" {
		settings.ConfDir = c.confDir
	}

	if c.saveDir != "" {
		settings.SaveDir = c.saveDir
	}

	logCfg := logging.LoggerConfig{Level: "warn", Format: logging.FormatText}
	if c.settingsFile != "" {
		logCfg = settings.Log
	}

	if c.logLevel != "" {
		logCfg.Level = c.logLevel
	}

	logger := logging.NewLogger(logCfg, c.stderr)

	ctx, err := uci.New(append(settings.ContextOptions(), uci.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("opening %s: %w", settings.ConfDir, err)
	}

	logger.Debug("context ready", slog.String("confdir", ctx.ConfDir()), slog.String("savedir", ctx.SaveDir()))

	c.ctx = ctx

	return nil
}
