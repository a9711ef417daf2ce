package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"PivotLevels/internal/annotation"
	"PivotLevels/internal/cache"
	"PivotLevels/internal/collector"
	"PivotLevels/internal/config"
	"PivotLevels/internal/logger"
	"PivotLevels/internal/notifier"
	"PivotLevels/internal/recorder"
	"PivotLevels/internal/scheduler"
)

const usage = `usage: pivotlevels <command> [-config path]

commands:
  run      derive pivot levels and write pivot and OHLC CSVs once
  history  fetch full history and append it to the cache
  ohlc     write OHLC CSVs from the cached history
  serve    run the levels batch on the configured cron schedule
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	cmd := args[0]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	cfgPath := fs.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to YAML config")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		return 2
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := build(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return 2
	}
	defer cleanup()

	var rep scheduler.Report
	switch cmd {
	case "run":
		rep = runner.RunLevels(ctx)
	case "history":
		rep = runner.RefreshHistory(ctx)
	case "ohlc":
		rep = runner.WriteCachedOHLC(ctx)
	case "serve":
		return serve(ctx, cfg, runner, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err := rep.Err(); err != nil {
		log.Error().Err(err).Str("task", rep.Task).Msg("finished with failures")
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, runner *scheduler.Runner, log zerolog.Logger) int {
	sched := scheduler.NewScheduler(ctx, runner, log)
	if err := sched.Register(cfg.Schedule.Cron, cfg.Schedule.HistoryCron); err != nil {
		log.Error().Err(err).Msg("register cron tasks")
		return 2
	}
	sched.Start()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running levels now")
		go runner.RunLevels(ctx)
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")
	sched.Stop()
	return 0
}

// build wires the fetcher, sink, cache, recorder and notifier into a Runner.
func build(cfg *config.Config, log zerolog.Logger) (*scheduler.Runner, func(), error) {
	var fetcher collector.Fetcher
	switch cfg.Provider.Name {
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.Provider.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewInsightSentryFetcher(cfg.InsightSentryOptions())
	}
	log.Info().Str("provider", fetcher.Name()).Int("instruments", len(cfg.Instruments)).Msg("starting")

	clock, err := cfg.SessionClock()
	if err != nil {
		return nil, nil, err
	}
	col := collector.NewCollector(fetcher, log)
	col.Clock = clock
	col.Variant = cfg.Variant()
	col.BarType = cfg.Provider.BarType
	col.BarInterval = cfg.Provider.BarInterval
	col.Extended = cfg.Extended()

	sink := annotation.NewSink(cfg.Output.CSVDir, cfg.Output.Archive, log)
	if len(cfg.Output.Families) > 0 {
		sink.Families = cfg.Output.Families
	}

	runner := scheduler.NewRunner(col, sink, cache.NewStore(cfg.Cache.Dir, cfg.Dedupe()), cfg.Instruments, log)
	runner.Concurrency = cfg.Concurrency
	runner.Extended = cfg.Extended()

	cleanup := func() {}
	if cfg.Database.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			runner.Recorder = rec
			cleanup = func() { rec.Close() }
		}
	}

	if cfg.Telegram.BotToken != "" {
		tn, err := notifier.NewTelegramNotifier(notifier.TelegramOptions{
			Token:  cfg.Telegram.BotToken,
			ChatID: cfg.Telegram.ChatID,
			Proxy:  cfg.Provider.Proxy,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed, summaries disabled")
		} else {
			runner.Notifier = tn
		}
	}

	return runner, cleanup, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
