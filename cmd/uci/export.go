package main

import (
	"encoding/json"
	"fmt"

	uci "github.com/0xalexb/hjarta-uci"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// Export formats.
const (
	formatUCI  = "uci"
	formatYAML = "yaml"
	formatJSON = "json"
)

// exportedSection is a section in the yaml and json exports.
type exportedSection struct {
	Name      string        `json:"name"                yaml:"name"`
	Type      string        `json:"type"                yaml:"type"`
	Anonymous bool          `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
	Options   yaml.MapSlice `json:"-"                   yaml:"options,omitempty"`
	// OptionMap mirrors Options for json, which has no ordered map.
	OptionMap map[string]any `json:"options,omitempty" yaml:"-"`
}

func (c *cli) exportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [<config>...]",
		Short: "Export configs in config file, yaml or json form",
		RunE: func(_ *cobra.Command, args []string) error {
			return c.export(format, args)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatUCI, "output format: uci, yaml or json")

	return cmd
}

func (c *cli) export(format string, names []string) error {
	if len(names) == 0 {
		all, err := c.allPackages()
		if err != nil {
			return err
		}

		names = all
	}

	switch format {
	case formatUCI:
		return c.ctx.Export(c.stdout, names...)
	case formatYAML, formatJSON:
	default:
		return fmt.Errorf("%w: unknown export format %q", errUsage, format)
	}

	doc := yaml.MapSlice{}
	byName := make(map[string][]exportedSection, len(names))

	for _, name := range names {
		pkg, err := c.ctx.Package(name)
		if err != nil {
			return err
		}

		sections := exportSections(pkg)
		doc = append(doc, yaml.MapItem{Key: name, Value: sections})
		byName[name] = sections
	}

	if format == formatJSON {
		encoder := json.NewEncoder(c.stdout)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(byName); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}

		return nil
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}

	_, err = c.stdout.Write(data)

	return err //nolint:wrapcheck
}

func exportSections(pkg *uci.Package) []exportedSection {
	sections := make([]exportedSection, 0, len(pkg.Sections()))

	for _, sec := range pkg.Sections() {
		exported := exportedSection{
			Name:      sec.Name(),
			Type:      sec.Type(),
			Anonymous: sec.Anonymous(),
			OptionMap: make(map[string]any, len(sec.Options())),
		}

		for _, opt := range sec.Options() {
			exported.Options = append(exported.Options, yaml.MapItem{Key: opt.Name(), Value: opt.Value().Plain()})
			exported.OptionMap[opt.Name()] = opt.Value().Plain()
		}

		sections = append(sections, exported)
	}

	return sections
}
