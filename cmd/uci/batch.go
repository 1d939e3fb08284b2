package main

import (
	"bufio"
	"fmt"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Run commands read from stdin, one per line",
		Long: `batch reads uci commands from stdin, one per line, without the leading
"uci". Words are split with shell quoting rules. Empty lines and lines
starting with # are skipped. The first failing line stops the batch.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.batch()
		},
	}
}

func (c *cli) batch() error {
	scanner := bufio.NewScanner(c.stdin)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		words, err := shellquote.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w: %w", lineNo, errUsage, err)
		}

		if len(words) == 0 {
			continue
		}

		cmd, ok := lookupCommand(words[0])
		if !ok {
			return fmt.Errorf("line %d: %w: unknown command %q", lineNo, errUsage, words[0])
		}

		if err := c.invoke(cmd, words[1:]); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}

	return nil
}
