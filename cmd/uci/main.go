// Command uci reads and edits UCI config files from the shell.
//
//	uci set network.lan.proto=static
//	uci commit network
//
// Edits are saved to the save directory after every command and only reach
// the config directory on commit.
package main

import (
	"errors"
	"fmt"
	"os"

	uci "github.com/0xalexb/hjarta-uci"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "uci: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, uci.ErrInvalidArgument), errors.Is(err, uci.ErrUnsupportedType):
		return exitUsage
	default:
		return exitFailure
	}
}
