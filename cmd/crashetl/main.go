// Command crashetl decodes and enriches NZTA crash exports. See
// internal/cli for the subcommands.
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/crash-data-etl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("crashetl failed", "error", err)
		os.Exit(1)
	}
}
