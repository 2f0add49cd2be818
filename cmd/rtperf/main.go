package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/rtperf/internal/config"
	"github.com/torosent/rtperf/internal/output"
	"github.com/torosent/rtperf/internal/store"
	"github.com/torosent/rtperf/internal/threshold"
	"github.com/torosent/rtperf/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if verr, ok := config.AsValidationError(err); ok {
			for _, issue := range verr.Issues() {
				fmt.Fprintf(os.Stderr, "  - %s\n", issue)
			}
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()
	tracer := provider.Tracer()

	if cfg.Check != "" {
		results, err := checkReport(ctx, tracer, cfg.Check, thresholds)
		if err != nil {
			return err
		}
		if cfg.Outputs.Console {
			output.PrintThresholds(stdout, results)
		}
		return thresholdError(results)
	}

	dict, pairs, err := buildTags(cfg)
	if err != nil {
		return err
	}

	var session *store.Session
	if cfg.Replay != "" {
		session, err = replaySession(ctx, tracer, cfg, dict, logger)
	} else {
		session, err = recordSession(ctx, cfg, probePairs(cfg, pairs), logger, stderr)
	}
	if err != nil {
		return err
	}
	defer session.Close()

	rep := evaluateSession(ctx, tracer, session, dict, pairs, cfg.Outputs, thresholds)
	logger.Info("session evaluated",
		"session", rep.info.ID,
		"recorded", rep.info.Recorded,
		"rejected", rep.info.TotalRejected(),
		"pairs", len(rep.summaries),
	)
	if rep.info.TotalRejected() > 0 {
		logger.Warn("entries were rejected", "rejected", rep.info.TotalRejected(), "misrouted", rep.info.Misrouted)
	}

	if cfg.Outputs.Console {
		output.PrintSession(stdout, rep.info)
		fmt.Fprintln(stdout)
		output.PrintSummaries(stdout, rep.summaries)
		output.PrintThresholds(stdout, rep.results)
	}

	exportErr := output.WriteAll(buildTargets(ctx, tracer, cfg.Outputs, rep), stdout, logger)
	return errors.Join(exportErr, thresholdError(rep.results))
}

func thresholdError(results []threshold.Result) error {
	if threshold.Passed(results) {
		return nil
	}
	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}
	return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
}
