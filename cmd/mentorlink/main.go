// Package main is the entry point for the mentorlink client.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (.env, environment, flags)
// 2. Create dependencies (logger, database, server)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/session, etc.).
//
// COMMANDS (github.com/spf13/cobra):
//
//	mentorlink serve            run the web client on localhost
//	mentorlink session show     print the persisted session record
//	mentorlink session clear    log out without starting the client
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
