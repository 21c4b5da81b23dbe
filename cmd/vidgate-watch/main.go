// vidgate-watch - Terminal dashboard for a running vidgate instance.
// Shows queue health, recent source checks, and probe outcomes without
// leaving the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/iconidentify/vidgate/cmd/vidgate-watch/internal/config"
	"github.com/iconidentify/vidgate/cmd/vidgate-watch/internal/ui"
)

func main() {
	cfg := config.Load()

	app, err := ui.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing watch UI: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running watch UI: %v\n", err)
		os.Exit(1)
	}
}
