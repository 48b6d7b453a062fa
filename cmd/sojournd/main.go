// Command sojournd runs a sojourn broker and offers a small CLI for issuing
// one-shot ask/ask_r requests against it, useful for smoke-testing a
// configuration file, scaled down to a single long-lived command plus two
// request subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/redpanda-data/sojourn-broker/internal/broker"
	"github.com/redpanda-data/sojourn-broker/internal/config"
	"github.com/redpanda-data/sojourn-broker/internal/log"
)

func main() {
	app := &cli.App{
		Name:  "sojournd",
		Usage: "run a sojourn broker, or issue a one-shot request against one",
		Description: `
Either run sojournd as a long-lived broker process or choose a command:

  sojournd -c ./broker.yaml
  sojournd -c ./broker.yaml ask
  sojournd -c ./broker.yaml ask-r`[1:],
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "a path to a broker configuration file",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 5 * time.Second,
				Usage: "how long a one-shot ask/ask-r command waits for a terminal outcome",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "additionally tee logs as plain text to this file, alongside the structured stderr stream",
			},
			&cli.StringFlag{
				Name:  "log-file-level",
				Value: "info",
				Usage: "minimum level written to --log-file: off, fatal, error, warn, info, debug, trace",
			},
		},
		Action: runBroker,
		Commands: []*cli.Command{
			{
				Name:   "ask",
				Usage:  "issue a single synchronous ask request and print its outcome as JSON",
				Action: oneShot(broker.SideAsk),
			},
			{
				Name:   "ask-r",
				Usage:  "issue a single synchronous ask_r request and print its outcome as JSON",
				Action: oneShot(broker.SideAskR),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadBroker(c *cli.Context) (*broker.Broker, log.Modular, error) {
	f, err := os.Open(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := config.Decode(f)
	if err != nil {
		return nil, nil, err
	}
	rt, err := config.Build(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger, err := buildLogger(c)
	if err != nil {
		return nil, nil, err
	}
	return broker.New(rt, broker.Deps{Logger: logger}), logger, nil
}

// buildLogger constructs the structured stderr logger every run uses, and
// if --log-file is set, tees it with a plain-text logger gated at
// --log-file-level, so an operator can keep a lower-noise copy on disk
// independent of what reaches stderr.
func buildLogger(c *cli.Context) (log.Modular, error) {
	primary := log.NewSlogAdapter(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	path := c.String("log-file")
	if path == "" {
		return primary, nil
	}

	level, err := logLevel(c.String("log-file-level"))
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	secondary := log.WrapAtLevel(stdlog.New(file, "", stdlog.LstdFlags), level)
	return log.TeeLogger(primary, secondary), nil
}

func logLevel(name string) (int, error) {
	switch name {
	case "off":
		return log.LogOff, nil
	case "fatal":
		return log.LogFatal, nil
	case "error":
		return log.LogError, nil
	case "warn":
		return log.LogWarn, nil
	case "info":
		return log.LogInfo, nil
	case "debug":
		return log.LogDebug, nil
	case "trace":
		return log.LogTrace, nil
	default:
		return 0, fmt.Errorf("log-file-level: unknown level %q", name)
	}
}

// runBroker is the default action: start a broker from the configured file
// and block until a termination signal arrives.
func runBroker(c *cli.Context) error {
	b, logger, err := loadBroker(c)
	if err != nil {
		return err
	}

	logger.Infoln("sojourn broker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Infoln("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return b.Shutdown(ctx)
}

// oneShot builds a cli.ActionFunc that starts a broker, issues a single
// synchronous request on side, prints the outcome as JSON, and shuts down.
func oneShot(side broker.Side) cli.ActionFunc {
	return func(c *cli.Context) error {
		b, _, err := loadBroker(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()

		var outcome broker.Outcome
		if side == broker.SideAsk {
			outcome = b.Ask(ctx)
		} else {
			outcome = b.AskR(ctx)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = b.Shutdown(shutdownCtx)

		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(outcomeView{
			Matched:   outcome.Matched,
			Ref:       outcome.Ref.String(),
			SojournMS: outcome.SojournMS,
		})
	}
}

type outcomeView struct {
	Matched   bool   `json:"matched"`
	Ref       string `json:"ref,omitempty"`
	SojournMS int64  `json:"sojourn_ms"`
}
