// Package main provides the callscribe CLI tool.
//
// Usage:
//
//	callscribe [flags] <command> [args]
//
// Commands:
//
//	analyze - Detect speech, build speaker turns, and compress silence
//	          for a stereo call recording
package main

import (
	"fmt"
	"os"

	"github.com/jorikfon/TranscribeIt-sub001/cmd/callscribe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
