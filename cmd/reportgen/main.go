package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"reportgen/internal/config"
	"reportgen/internal/domain"
	"reportgen/internal/logging"
)

const envKey = "env"

// appEnv is the state shared by all commands, built once in Before.
type appEnv struct {
	cfg    *config.AppConfig
	logger *logrus.Entry
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", domain.UserMessage(err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "reportgen",
		Usage: "Extract the sentences of a document that best match a prompt",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults to ./config.yaml or ~/.config/reportgen/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (trace, debug, info, warn, error)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			generateCommand(),
			tuiCommand(),
			serveCommand(),
			watchCommand(),
			signUpCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			historyCommand(),
		},
	}
}

func setup(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[envKey] = &appEnv{cfg: cfg, logger: logging.New(cfg.Log.Level)}
	return nil
}

func envFrom(c *cli.Context) *appEnv {
	return c.App.Metadata[envKey].(*appEnv)
}
