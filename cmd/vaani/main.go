// Package main is the vaani entry point. Without arguments it runs
// the tray application; subcommands talk to the backend and the
// capture hardware directly.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/vaani-app/vaani/cmd/vaani/commands"
)

func init() {
	// The tray and hotkey layers need the main OS thread on macOS
	runtime.LockOSThread()
}

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
