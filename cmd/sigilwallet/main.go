// Package main is the entry point for the sigilwallet demo CLI — a
// thin cobra shell driving internal/sdk (C11) against a filesystem
// config and a file-backed user repository.
package main

import (
	"os"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// Build info variables set via ldflags during build.
//
//nolint:gochecknoglobals // required for ldflags injection at build time
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := Execute(BuildInfo{Version: version, Commit: commit, Date: buildDate}); err != nil {
		os.Exit(sigilerr.ExitCode(err))
	}
}
