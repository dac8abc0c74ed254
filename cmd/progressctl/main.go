// Command progressctl inspects and maintains the stored learner progress.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/attaboy/academy/internal/app"
	"github.com/attaboy/academy/internal/catalog"
	"github.com/attaboy/academy/internal/domain"
	"github.com/attaboy/academy/internal/infra"
	"github.com/attaboy/academy/internal/progression"
	"github.com/attaboy/academy/internal/service"
)

const usage = `usage: progressctl <command> [flags]

commands:
  show            print the stored snapshot, level and module progress
  sync            award every badge the stored snapshot qualifies for
  reset -yes      replace the stored snapshot with a fresh one
  catalog-check   validate a catalog file (-path) or the built-in catalog
  events          tail progress events from Kafka`

// env carries what commands need from the process.
type env struct {
	out    io.Writer
	logger *slog.Logger
	cfg    *infra.Config
	// open builds the progress service over the configured store.
	open func(ctx context.Context) (*service.ProgressService, func(), error)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	e := env{
		out:    os.Stdout,
		logger: logger,
		cfg:    cfg,
		open: func(ctx context.Context) (*service.ProgressService, func(), error) {
			backend, err := app.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			progress, err := app.NewProgressService(cfg, backend.Store, nil, logger)
			if err != nil {
				backend.Close()
				return nil, nil, err
			}
			return progress, backend.Close, nil
		},
	}

	if err := run(ctx, os.Args[1:], e); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, e env) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "show":
		return withProgress(ctx, e, func(p *service.ProgressService, _ service.Result) error {
			return writeJSON(e.out, struct {
				Snapshot *domain.Snapshot           `json:"snapshot"`
				Level    progression.LevelInfo      `json:"level"`
				Modules  []progression.ModuleStatus `json:"modules"`
			}{p.Snapshot(), p.LevelInfo(), p.Modules()})
		})

	case "sync":
		return withProgress(ctx, e, func(p *service.ProgressService, loaded service.Result) error {
			res, err := p.SyncBadges(ctx)
			if err != nil {
				return err
			}
			awarded := append(loaded.NewBadges, res.NewBadges...)
			if len(awarded) == 0 {
				fmt.Fprintln(e.out, "no new badges")
				return nil
			}
			fmt.Fprintf(e.out, "awarded: %s\n", strings.Join(awarded, ", "))
			return nil
		})

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		yes := fs.Bool("yes", false, "confirm the reset")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if !*yes {
			return errors.New("refusing to reset without -yes")
		}
		return withProgress(ctx, e, func(p *service.ProgressService, _ service.Result) error {
			res, err := p.ResetProgress(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "progress reset; new learner id %s\n", res.Snapshot.ID)
			return nil
		})

	case "catalog-check":
		fs := flag.NewFlagSet("catalog-check", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		path := fs.String("path", e.cfg.CatalogPath, "catalog YAML file (empty for the built-in catalog)")
		dump := fs.Bool("dump", false, "print the catalog as YAML")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		c, err := catalog.LoadOrDefault(*path)
		if err != nil {
			return err
		}
		if *dump {
			data, err := catalog.Marshal(c)
			if err != nil {
				return err
			}
			_, err = e.out.Write(data)
			return err
		}
		fmt.Fprintf(e.out, "catalog ok: %d levels, %d modules, %d badges\n", len(c.Levels), len(c.Modules), len(c.Badges))
		return nil

	case "events":
		fs := flag.NewFlagSet("events", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		group := fs.String("group", "progressctl", "consumer group id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		consumer := infra.NewKafkaConsumer(e.cfg.KafkaBrokers, e.cfg.KafkaTopic, *group, e.cfg.KafkaEnabled, e.logger)
		defer consumer.Close()
		return tailEvents(ctx, consumer, e.out)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

// withProgress opens and initialises the service. Init already awards badges the
// stored snapshot qualifies for; its result is passed on.
func withProgress(ctx context.Context, e env, fn func(p *service.ProgressService, loaded service.Result) error) error {
	progress, closeFn, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	loaded, err := progress.Init(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	return fn(progress, loaded)
}

func tailEvents(ctx context.Context, consumer *infra.KafkaConsumer, out io.Writer) error {
	for {
		evt, err := consumer.ReadEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "%s %s %s %s\n", evt.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), evt.EventType, evt.LearnerID, evt.Payload)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
