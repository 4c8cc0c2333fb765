package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/harbor/internal/config"
	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/otel"
	"github.com/abelbrown/harbor/internal/portal"
	"github.com/abelbrown/harbor/internal/session"
)

// env is everything a command needs, plus the teardown for it.
type env struct {
	cfg     *config.Config
	app     *portal.App
	session *session.Store
	events  *otel.Logger
	evFile  *os.File
}

// setup loads config, opens the session store and event log, and builds
// the portal app. With bootstrap set the stored session is restored.
func setup(c *cli.Context, bootstrap bool) (*env, error) {
	path := c.String("config")
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if u := c.String("api"); u != "" {
		cfg.API.BaseURL = u
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if c.Bool("verbose") {
		logging.SetOutput(os.Stderr, log.DebugLevel)
	} else if err := logging.Init(cfg.DataDir, log.InfoLevel); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	f, err := os.OpenFile(cfg.EventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logging.Warn("Event log unavailable", "error", err)
	} else {
		e.evFile = f
		e.events = otel.NewLogger(f)
	}
	e.events.Info(otel.KindStartup, "cmd", commandName(c))

	e.session, err = session.Open(cfg.SessionPath())
	if err != nil {
		e.close()
		return nil, err
	}

	e.app, err = portal.New(cfg, portal.Deps{
		Session: e.session,
		Events:  e.events,
		AuthPrompt: func(ref model.EntityRef) {
			fmt.Fprintf(os.Stderr, "Sign in to like %s: run 'harbor login'\n", ref)
		},
	})
	if err != nil {
		e.close()
		return nil, err
	}

	if bootstrap {
		if err := e.app.Bootstrap(c.Context); err != nil {
			e.close()
			return nil, err
		}
	}
	return e, nil
}

// commandName is the running subcommand, or "tui" at the top level.
func commandName(c *cli.Context) string {
	if c.Command != nil && c.Command.Name != "" {
		return c.Command.Name
	}
	return "tui"
}

func (e *env) close() {
	if e.app != nil {
		e.app.Close()
	}
	if e.session != nil {
		e.session.Close()
	}
	e.events.Info(otel.KindShutdown, "cmd", "")
	e.events.Close()
	if e.evFile != nil {
		e.evFile.Close()
	}
	logging.Close()
}

// requireAuth fails unless a session is active.
func (e *env) requireAuth() error {
	if !e.app.IsAuthenticated() {
		return cli.Exit("not signed in; run 'harbor login'", 1)
	}
	return nil
}

// entityArgs parses "<type> <id>".
func entityArgs(c *cli.Context) (model.EntityRef, error) {
	if c.NArg() != 2 {
		return model.EntityRef{}, cli.Exit("usage: harbor "+commandName(c)+" <thread|blog|article|product> <id>", 1)
	}
	t, err := model.ParseEntityType(c.Args().Get(0))
	if err != nil {
		return model.EntityRef{}, err
	}
	id, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return model.EntityRef{}, fmt.Errorf("invalid id %q", c.Args().Get(1))
	}
	return model.Ref(t, id), nil
}

// idArg parses a single numeric id argument.
func idArg(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, cli.Exit("usage: harbor "+commandName(c)+" <id>", 1)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", c.Args().First())
	}
	return id, nil
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
