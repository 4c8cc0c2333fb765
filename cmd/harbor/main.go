// Command harbor is a terminal client for the forum and content portal.
//
// Usage:
//
//	harbor                       Interactive TUI (typeahead + notifications)
//	harbor login                 Sign in and remember the session
//	harbor register              Create an account
//	harbor logout                Forget the stored session
//	harbor whoami                Show the signed-in user
//	harbor suggest <prefix>      Typeahead suggestions
//	harbor search <query>        Full-text search
//	harbor notifications         List notifications
//	harbor read <id>             Mark a notification read
//	harbor read-all              Mark every notification read
//	harbor delete <id>           Delete a notification
//	harbor like <type> <id>      Toggle a like
//	harbor view <type> <id>      Record a view
//	harbor theme [dark|light]    Show or set the theme
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "harbor",
		Usage: "terminal client for the forum and content portal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config.yaml",
				EnvVars: []string{"HARBOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "api",
				Usage:   "portal API base URL (overrides config)",
				EnvVars: []string{"HARBOR_API_URL"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log debug output to stderr",
			},
		},
		Action:   runTUI,
		Commands: commands(),
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "harbor: %v\n", err)
		os.Exit(1)
	}
}
