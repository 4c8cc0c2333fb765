package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/route"
	"github.com/abelbrown/harbor/internal/suggest"
)

var (
	matchStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "login",
			Usage:  "sign in and remember the session",
			Flags:  credentialFlags(),
			Action: runLogin,
		},
		{
			Name:  "register",
			Usage: "create an account and sign in",
			Flags: append(credentialFlags(), &cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Required: true,
			}),
			Action: runRegister,
		},
		{
			Name:   "logout",
			Usage:  "forget the stored session",
			Action: runLogout,
		},
		{
			Name:   "whoami",
			Usage:  "show the signed-in user",
			Action: runWhoami,
		},
		{
			Name:      "suggest",
			Usage:     "typeahead suggestions for a prefix",
			ArgsUsage: "<prefix>",
			Action:    runSuggest,
		},
		{
			Name:      "search",
			Usage:     "full-text search",
			ArgsUsage: "<query>",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "filter", Aliases: []string{"f"}, Usage: "key=value filter (repeatable)"},
				&cli.IntFlag{Name: "page", Value: 1},
				&cli.IntFlag{Name: "limit", Value: 20},
			},
			Action: runSearch,
		},
		{
			Name:    "notifications",
			Aliases: []string{"n"},
			Usage:   "list notifications",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "page", Value: 1},
				&cli.IntFlag{Name: "limit", Value: 0, Usage: "page size (default from config)"},
			},
			Action: runNotifications,
		},
		{
			Name:      "read",
			Usage:     "mark a notification read",
			ArgsUsage: "<id>",
			Action:    runRead,
		},
		{
			Name:   "read-all",
			Usage:  "mark every notification read",
			Action: runReadAll,
		},
		{
			Name:      "delete",
			Usage:     "delete a notification",
			ArgsUsage: "<id>",
			Action:    runDelete,
		},
		{
			Name:      "like",
			Usage:     "toggle a like",
			ArgsUsage: "<type> <id>",
			Action:    runLike,
		},
		{
			Name:      "view",
			Usage:     "record a view",
			ArgsUsage: "<type> <id>",
			Action:    runView,
		},
		{
			Name:      "theme",
			Usage:     "show or set the theme",
			ArgsUsage: "[dark|light]",
			Action:    runTheme,
		},
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"HARBOR_PASSWORD"}},
	}
}

func runLogin(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.close()

	u, err := e.app.Login(c.Context, api.Credentials{Email: c.String("email"), Password: c.String("password")})
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", u.Username)
	return nil
}

func runRegister(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.close()

	u, err := e.app.Register(c.Context, api.Registration{
		Username: c.String("username"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s\n", u.Username)
	return nil
}

func runLogout(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.app.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func runWhoami(c *cli.Context) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	u := e.app.User()
	if u == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s <%s>", u.Username, u.Email)
	if u.Role != "" {
		fmt.Printf(" [%s]", u.Role)
	}
	fmt.Println()
	if n := e.app.Notify.Snapshot().UnreadCount(); n > 0 {
		fmt.Printf("%d unread notifications\n", n)
	}
	return nil
}

func runSuggest(c *cli.Context) error {
	prefix := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(prefix) == "" {
		return cli.Exit("usage: harbor suggest <prefix>", 1)
	}
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	items, err := e.app.API.Suggest(c.Context, strings.TrimSpace(prefix), e.cfg.Search.SuggestLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No suggestions")
		return nil
	}
	for _, it := range items {
		var title strings.Builder
		for _, seg := range suggest.ItemSegments(it, prefix) {
			if seg.Match {
				title.WriteString(matchStyle.Render(seg.Text))
			} else {
				title.WriteString(seg.Text)
			}
		}
		path, _ := route.ForSuggestion(it)
		fmt.Printf("%-8s %s  %s\n", it.Type, title.String(), mutedStyle.Render(path))
	}
	return nil
}

func runSearch(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return cli.Exit("usage: harbor search [--filter k=v] <query>", 1)
	}
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	for _, f := range c.StringSlice("filter") {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("invalid filter %q, want key=value", f)
		}
		e.app.Search.SetFilter(k, v)
	}

	start := time.Now()
	if err := e.app.Search.Run(c.Context, query, c.Int("page"), c.Int("limit")); err != nil {
		return err
	}
	res := e.app.Search.Snapshot().Results.Data
	fmt.Printf("%d results for %q (page %d, %s)\n", res.Total, query, res.Page, time.Since(start).Round(time.Millisecond))
	for _, r := range res.Results {
		path, _ := route.Detail(r.Type, r.ID, r.Slug)
		fmt.Printf("  %-8s %s  %s\n", r.Type, truncate(r.Title, 60), mutedStyle.Render(path))
		if r.Snippet != "" {
			fmt.Printf("           %s\n", mutedStyle.Render(truncate(r.Snippet, 100)))
		}
	}
	return nil
}

func runNotifications(c *cli.Context) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.requireAuth(); err != nil {
		return err
	}

	limit := c.Int("limit")
	if limit <= 0 {
		limit = e.cfg.Notifications.PageSize
	}
	if err := e.app.Notify.FetchNotifications(c.Context, c.Int("page"), limit); err != nil {
		return err
	}
	s := e.app.Notify.Snapshot()
	fmt.Printf("%d unread, %d total\n", s.UnreadCount(), s.List.Data.Total)
	for _, n := range s.Items() {
		marker := " "
		if !n.IsRead {
			marker = "●"
		}
		fmt.Printf("%s %5d  %s  %s\n", marker, n.ID, truncate(n.Title, 40), mutedStyle.Render(truncate(n.Message, 60)))
	}
	return nil
}

func runRead(c *cli.Context) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	return withFeed(c, func(e *env) error {
		return e.app.Notify.MarkAsRead(c.Context, id)
	}, "Marked read")
}

func runReadAll(c *cli.Context) error {
	return withFeed(c, func(e *env) error {
		return e.app.Notify.MarkAllAsRead(c.Context)
	}, "All notifications read")
}

func runDelete(c *cli.Context) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	return withFeed(c, func(e *env) error {
		return e.app.Notify.Delete(c.Context, id)
	}, "Deleted")
}

// withFeed runs a signed-in notification mutation.
func withFeed(c *cli.Context, fn func(*env) error, done string) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.requireAuth(); err != nil {
		return err
	}
	if err := fn(e); err != nil {
		return err
	}
	fmt.Println(done)
	return nil
}

func runLike(c *cli.Context) error {
	ref, err := entityArgs(c)
	if err != nil {
		return err
	}
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.app.Engage.ToggleLike(c.Context, ref.Type, ref.ID); err != nil {
		return err
	}
	st, _ := e.app.Engage.LikeState(ref.Key())
	verb := "Unliked"
	if st.IsLiked {
		verb = "Liked"
	}
	fmt.Printf("%s %s (%d likes)\n", verb, ref, st.Count)
	return nil
}

func runView(c *cli.Context) error {
	ref, err := entityArgs(c)
	if err != nil {
		return err
	}
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	e.app.Engage.MarkEntityAsViewed(c.Context, ref.Type, ref.ID)
	if n, ok := e.app.Engage.Views(ref.Key()); ok {
		fmt.Printf("%s: %d views\n", ref, n)
		return nil
	}
	return errors.New("view was not recorded")
}

func runTheme(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.close()

	if c.NArg() == 0 {
		fmt.Println(e.app.Theme())
		return nil
	}
	return e.app.SetTheme(c.Args().First())
}
