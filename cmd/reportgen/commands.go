package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"reportgen/internal/account"
	"reportgen/internal/server"
	"reportgen/internal/tui"
	"reportgen/internal/watcher"
)

const overviewSentences = 3

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a report for a document and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document to read (.pdf, .txt, .md)", Required: true},
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Prompt to match sentences against", Required: true},
			&cli.BoolFlag{Name: "export", Aliases: []string{"e"}, Usage: "Also write the report to a file"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Export directory (defaults to export.dir)"},
			&cli.StringFlag{Name: "format", Usage: "Export format: pdf or txt (defaults to export.format)"},
		},
		Action: func(c *cli.Context) error {
			env := envFrom(c)
			comp, err := buildService(env, c.String("format"))
			if err != nil {
				return err
			}
			defer comp.Close()

			rep, err := comp.service.GenerateFromFile(c.Context, c.String("file"), c.String("prompt"), currentOwner(env))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, rep.Content)

			if !c.Bool("export") {
				return nil
			}
			dir := c.String("out")
			if dir == "" {
				dir = env.cfg.Export.Dir
			}
			path, err := comp.service.ExportReport(rep, dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.ErrWriter, "saved", path)
			return nil
		},
	}
}

func tuiCommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open a document in the interactive report generator",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document to load", Required: true},
		},
		Action: func(c *cli.Context) error {
			env := envFrom(c)
			comp, err := buildService(env, "")
			if err != nil {
				return err
			}
			defer comp.Close()

			doc, err := comp.service.Decode(c.Context, c.String("file"))
			if err != nil {
				return err
			}
			overview := comp.service.Overview(doc, overviewSentences)
			m := tui.New(comp.service, doc, overview, currentOwner(env), env.cfg.Export.Dir)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (defaults to server.addr)"},
		},
		Action: func(c *cli.Context) error {
			env := envFrom(c)
			comp, err := buildService(env, "pdf")
			if err != nil {
				return err
			}
			defer comp.Close()
			accounts, err := openAccounts(env)
			if err != nil {
				return err
			}
			defer accounts.Close()

			addr := c.String("addr")
			if addr == "" {
				addr = env.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(accounts, comp.service, comp.registry, env.logger).Run(ctx, addr)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Generate and export a report for every document dropped into a folder",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Folder to watch (defaults to watch.dir)"},
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Prompt to answer (defaults to watch.prompt)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Export directory (defaults to export.dir)"},
		},
		Action: func(c *cli.Context) error {
			env := envFrom(c)
			dir := firstNonEmpty(c.String("dir"), env.cfg.Watch.Dir)
			prompt := firstNonEmpty(c.String("prompt"), env.cfg.Watch.Prompt)
			out := firstNonEmpty(c.String("out"), env.cfg.Export.Dir)
			if prompt == "" {
				return errors.New("watch needs a prompt (--prompt or watch.prompt)")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			comp, err := buildService(env, "")
			if err != nil {
				return err
			}
			defer comp.Close()

			w, err := watcher.New(env.cfg.Watch.Extensions, 0, env.logger)
			if err != nil {
				return err
			}
			defer w.Stop()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			events, err := w.Watch(ctx, dir)
			if err != nil {
				return err
			}
			env.logger.WithField("dir", dir).Info("watching for documents")
			watcher.NewProcessor(comp.service, prompt, currentOwner(env), out, env.logger).Run(ctx, events, nil)
			return nil
		},
	}
}

func signUpCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Register an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "password", Usage: "Password", EnvVars: []string{"REPORTGEN_PASSWORD"}},
		},
		Action: withAccounts(func(c *cli.Context, store *account.Store) error {
			if _, err := store.SignUp(c.String("name"), c.String("email"), c.String("password")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Sign up successful! Please log in.")
			return nil
		}),
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and remember the account for later commands",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "password", Usage: "Password", EnvVars: []string{"REPORTGEN_PASSWORD"}},
		},
		Action: withAccounts(func(c *cli.Context, store *account.Store) error {
			user, err := store.Authenticate(c.String("email"), c.String("password"))
			if err != nil {
				return err
			}
			if err := store.SetCurrent(user.Email); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Signed in as %s\n", user.Name)
			return nil
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the signed-in account",
		Action: withAccounts(func(c *cli.Context, store *account.Store) error {
			return store.ClearCurrent()
		}),
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in account",
		Action: withAccounts(func(c *cli.Context, store *account.Store) error {
			user, err := store.Current()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s <%s>\n", user.Name, user.Email)
			return nil
		}),
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List reports generated by the signed-in account",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of reports", Value: 20},
		},
		Action: func(c *cli.Context) error {
			env := envFrom(c)
			owner := currentOwner(env)
			if owner == "" {
				return account.ErrNoCurrentUser
			}
			comp, err := buildService(env, "")
			if err != nil {
				return err
			}
			defer comp.Close()

			reports, err := comp.service.History(c.Context, owner, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, r := range reports {
				fmt.Fprintf(c.App.Writer, "%s  %s  %-20s  %d matches  %q\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Source, r.Matches, r.Prompt)
			}
			return nil
		},
	}
}

func withAccounts(fn func(c *cli.Context, store *account.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := openAccounts(envFrom(c))
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(c, store)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
