// Package yaml provides a YAML config.Parser built on goccy/go-yaml.
//
// Colon-separated paths such as "services:ucid" are turned into YAML paths
// ("$.services.ucid") and read with PathString, so only the selected node is
// decoded. WithStrict rejects keys the target struct does not declare.
//
// Usage:
//
//	parser := yaml.NewParser(yaml.WithStrict())
//	var settings config.Settings
//	err := parser.Parse(data, &settings, "")
package yaml
