package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	uci "github.com/0xalexb/hjarta-uci"

	"github.com/spf13/cobra"
)

// command is one uci verb. The same table drives cobra and batch mode.
type command struct {
	name    string
	args    string
	short   string
	minArgs int
	maxArgs int
	run     func(c *cli, args []string) error
}

//nolint:gochecknoglobals // fixed command table.
var commands = []command{
	{name: "get", args: "<config>.<section>[.<option>]", short: "Print an option value or a section type", minArgs: 1, maxArgs: 1, run: (*cli).get},
	{name: "set", args: "<config>.<section>[.<option>]=<value>", short: "Set an option value or create a section", minArgs: 1, maxArgs: 1, run: (*cli).set},
	{name: "add_list", args: "<config>.<section>.<option>=<value>", short: "Append a value to a list option", minArgs: 1, maxArgs: 1, run: (*cli).addList},
	{name: "del_list", args: "<config>.<section>.<option>=<value>", short: "Remove a value from a list option", minArgs: 1, maxArgs: 1, run: (*cli).delList},
	{name: "delete", args: "<config>[.<section>[.<option>]][=<value>]", short: "Delete a section or option, or one list value", minArgs: 1, maxArgs: 1, run: (*cli).delete},
	{name: "rename", args: "<config>.<section>[.<option>]=<name>", short: "Rename a section or option", minArgs: 1, maxArgs: 1, run: (*cli).rename},
	{name: "reorder", args: "<config>.<section>=<position>", short: "Move a section", minArgs: 1, maxArgs: 1, run: (*cli).reorder},
	{name: "add", args: "<config> <section-type>", short: "Add an anonymous section and print its name", minArgs: 2, maxArgs: 2, run: (*cli).add},
	{name: "show", args: "[<config>[.<section>[.<option>]]]", short: "Show configuration in path=value form", minArgs: 0, maxArgs: 1, run: (*cli).show},
	{name: "changes", args: "[<config>]", short: "List staged changes", minArgs: 0, maxArgs: 1, run: (*cli).changes},
	{name: "commit", args: "[<config>]", short: "Write staged changes to the config directory", minArgs: 0, maxArgs: 1, run: (*cli).commit},
	{name: "revert", args: "<config>[.<section>[.<option>]]", short: "Discard staged changes", minArgs: 1, maxArgs: 1, run: (*cli).revert},
	{name: "configs", args: "", short: "List available configs", minArgs: 0, maxArgs: 0, run: (*cli).configs},
}

func lookupCommand(name string) (command, bool) {
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if i < 0 {
		return command{}, false
	}

	return commands[i], true
}

func (c *cli) cobraCommand(cmd command) *cobra.Command {
	return &cobra.Command{
		Use:   strings.TrimSpace(cmd.name + " " + cmd.args),
		Short: cmd.short,
		Args:  cobra.RangeArgs(cmd.minArgs, cmd.maxArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.run(c, args)
		},
	}
}

// invoke runs cmd with the argument checks cobra does for the command line.
func (c *cli) invoke(cmd command, args []string) error {
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return fmt.Errorf("%w: uci %s %s", errUsage, cmd.name, cmd.args)
	}

	return cmd.run(c, args)
}

// splitAssign splits "path=value". The value may itself contain '='.
func splitAssign(arg string) (string, string, error) {
	path, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: expected <path>=<value>, got %q", errUsage, arg)
	}

	return path, value, nil
}

func packageOf(path string) string {
	pkg, _, _ := strings.Cut(path, ".")

	return pkg
}

// save stages the changes of path's package in the save directory.
func (c *cli) save(path string) error {
	return c.ctx.Save(packageOf(path))
}

func (c *cli) get(args []string) error {
	value, err := c.ctx.Get(args[0])
	if err != nil {
		return err
	}

	switch typed := value.(type) {
	case uci.Value:
		fmt.Fprintln(c.stdout, strings.Join(typed.Strings(), " "))
	case string:
		fmt.Fprintln(c.stdout, typed)
	default:
		return fmt.Errorf("%w: %q names a config, use show", errUsage, args[0])
	}

	return nil
}

func (c *cli) set(args []string) error {
	path, value, err := splitAssign(args[0])
	if err != nil {
		return err
	}

	if err := c.ctx.Set(path, value); err != nil {
		return err
	}

	return c.save(path)
}

func (c *cli) addList(args []string) error {
	path, value, err := splitAssign(args[0])
	if err != nil {
		return err
	}

	if err := c.ctx.AddList(path, value); err != nil {
		return err
	}

	return c.save(path)
}

func (c *cli) delList(args []string) error {
	path, value, err := splitAssign(args[0])
	if err != nil {
		return err
	}

	if err := c.ctx.DelList(path, value); err != nil {
		return err
	}

	return c.save(path)
}

func (c *cli) delete(args []string) error {
	if strings.Contains(args[0], "=") {
		return c.delList(args)
	}

	if err := c.ctx.Delete(args[0]); err != nil {
		return err
	}

	return c.save(args[0])
}

func (c *cli) rename(args []string) error {
	path, name, err := splitAssign(args[0])
	if err != nil {
		return err
	}

	if err := c.ctx.Rename(path, name); err != nil {
		return err
	}

	return c.save(path)
}

func (c *cli) reorder(args []string) error {
	path, value, err := splitAssign(args[0])
	if err != nil {
		return err
	}

	pos, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: position %q is not a number", errUsage, value)
	}

	if err := c.ctx.Reorder(path, pos); err != nil {
		return err
	}

	return c.save(path)
}

func (c *cli) add(args []string) error {
	pkgName, typ := args[0], args[1]

	pos, err := c.ctx.Add(pkgName, typ)
	if err != nil {
		return err
	}

	pkg, err := c.ctx.Package(pkgName)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, pkg.Sections()[pos].Name())

	return c.save(pkgName)
}

func (c *cli) show(args []string) error {
	targets := args
	if len(targets) == 0 {
		names, err := c.allPackages()
		if err != nil {
			return err
		}

		targets = names
	}

	for _, target := range targets {
		lines, err := c.ctx.Show(target)
		if err != nil {
			return err
		}

		for _, line := range lines {
			fmt.Fprintln(c.stdout, line)
		}
	}

	return nil
}

func (c *cli) changes(args []string) error {
	if len(args) == 0 {
		if err := c.loadStaged(); err != nil {
			return err
		}
	}

	changes, err := c.ctx.Changes(args...)
	if err != nil {
		return err
	}

	for _, change := range changes {
		fmt.Fprintln(c.stdout, change.String())
	}

	return nil
}

func (c *cli) commit(args []string) error {
	if len(args) == 0 {
		if err := c.loadStaged(); err != nil {
			return err
		}
	}

	return c.ctx.Commit(args...)
}

func (c *cli) revert(args []string) error {
	return c.ctx.Revert(args[0])
}

func (c *cli) configs(_ []string) error {
	names, err := c.ctx.ListConfigs()
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Fprintln(c.stdout, name)
	}

	return nil
}

// stagedPackages returns the packages with a saved delta.
func (c *cli) stagedPackages() ([]string, error) {
	entries, err := os.ReadDir(c.ctx.SaveDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("listing %s: %w", c.ctx.SaveDir(), err)
	}

	var names []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.Contains(name, ".") {
			continue
		}

		if _, err := uci.ParsePath(name); err != nil {
			continue
		}

		names = append(names, name)
	}

	return names, nil
}

// loadStaged loads every package with a saved delta so that commands acting
// on "all loaded packages" see them.
func (c *cli) loadStaged() error {
	names, err := c.stagedPackages()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := c.ctx.Load(name); err != nil {
			return err
		}
	}

	return nil
}

// allPackages is the sorted union of the config files and the staged packages.
func (c *cli) allPackages() ([]string, error) {
	names, err := c.ctx.ListConfigs()
	if err != nil {
		return nil, err
	}

	staged, err := c.stagedPackages()
	if err != nil {
		return nil, err
	}

	names = append(names, staged...)
	slices.Sort(names)

	return slices.Compact(names), nil
}
