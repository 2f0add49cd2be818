package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/config"
	"github.com/torosent/rtperf/internal/evaluate"
	"github.com/torosent/rtperf/internal/output"
	"github.com/torosent/rtperf/internal/replay"
	"github.com/torosent/rtperf/internal/store"
	"github.com/torosent/rtperf/internal/tag"
	"github.com/torosent/rtperf/internal/threshold"
	"github.com/torosent/rtperf/internal/tracing"
	"github.com/torosent/rtperf/internal/workload"
)

// buildTags expands the configured tag names into START/END definitions,
// adds the explicit labels and resolves the configured pairs against them.
// Generated pairs come first, in tag order.
func buildTags(cfg *config.Config) (tag.Dictionary, []tag.Pair, error) {
	defs, pairs := tag.Enumerate(cfg.Tags...)

	ids := make([]int, 0, len(cfg.Labels))
	for id := range cfg.Labels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		defs = append(defs, tag.Define(tag.ID(id), cfg.Labels[id]))
	}

	dict := tag.NewDictionary(defs...)
	for _, p := range cfg.Pairs {
		pair, err := dict.PairByName(p.Start, p.End)
		if err != nil {
			return tag.Dictionary{}, nil, fmt.Errorf("pair %s:%s: %w", p.Start, p.End, err)
		}
		pairs = append(pairs, pair)
	}
	return dict, pairs, nil
}

// probePairs returns the pairs the synthetic workload records: one per tag
// name, or the explicit pairs when no names were given.
func probePairs(cfg *config.Config, pairs []tag.Pair) []tag.Pair {
	if len(cfg.Tags) > 0 {
		return pairs[:len(cfg.Tags)]
	}
	return pairs
}

func newSession(cfg *config.Config, capacity int) (*store.Session, error) {
	strategy, err := clock.ParseStrategy(cfg.Clock)
	if err != nil {
		return nil, err
	}
	return store.New(store.Config{
		Streams:          cfg.Streams,
		Capacity:         capacity,
		Clock:            strategy,
		CycleFrequencyHz: cfg.CycleFrequencyHz,
		Pin:              cfg.Pin,
	})
}

// recordSession runs the synthetic workload. Iteration id selects which pair
// is recorded, so every pair gets a share of the iterations.
func recordSession(ctx context.Context, cfg *config.Config, pairs []tag.Pair, logger *slog.Logger, progressOut io.Writer) (*store.Session, error) {
	session, err := newSession(cfg, cfg.Capacity)
	if err != nil {
		return nil, err
	}
	logger.Info("session reserved",
		"session", session.ID().String(),
		"clock", session.Clock(),
		"streams", session.StreamCount(),
		"capacity", session.Capacity(),
		"pinned", session.Pinned(),
	)

	probes := make([]workload.SleepProbe, len(pairs))
	for i, p := range pairs {
		probes[i] = workload.SleepProbe{Recorder: session, Pair: p, Work: cfg.Work, Spin: cfg.Spin}
	}
	probe := workload.ProbeFunc(func(ctx context.Context, stream int, id uint64) error {
		return probes[id%uint64(len(probes))].Do(ctx, stream, id)
	})

	runner := workload.New(workload.Options{
		Streams:       cfg.Streams,
		Iterations:    cfg.Iterations,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toWorkloadArrivalModel(cfg.ArrivalModel),
		Probe:         probe,
		Logger:        logger,
	})

	if cfg.Outputs.Console && isTerminal(progressOut) {
		progress := output.NewProgressReporter(func() output.ProgressSnapshot {
			completed, errs := runner.Progress()
			return output.ProgressSnapshot{Iterations: completed, Errors: errs}
		}, progressInterval, progressOut)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(progressOut)
		}()
	}

	runner.Run(ctx)
	return session, nil
}

// replaySession loads an entries export into a fresh session on stream 0.
// The session grows to fit the file when it holds more than Capacity rows.
func replaySession(ctx context.Context, tracer trace.Tracer, cfg *config.Config, dict tag.Dictionary, logger *slog.Logger) (session *store.Session, err error) {
	_, span := tracing.StartPhaseSpan(ctx, tracer, tracing.PhaseReplay, cfg.Replay)
	defer func() { tracing.EndSpan(span, err) }()

	f, err := os.Open(cfg.Replay)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()

	records, err := replay.Load(f, dict, 0)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", cfg.Replay, err)
	}

	session, err = newSession(cfg, max(cfg.Capacity, len(records)))
	if err != nil {
		return nil, err
	}
	rejected := replay.Apply(session, records)
	span.SetAttributes(
		attribute.Int("rtperf.records", len(records)),
		attribute.Int("rtperf.rejected", rejected),
	)
	logger.Info("entries replayed",
		"session", session.ID().String(),
		"path", cfg.Replay,
		"records", len(records),
		"rejected", rejected,
	)
	return session, nil
}

// checkReport evaluates thresholds against a JSON report written by an
// earlier run.
func checkReport(ctx context.Context, tracer trace.Tracer, path string, thresholds []threshold.Threshold) (results []threshold.Result, err error) {
	_, span := tracing.StartPhaseSpan(ctx, tracer, tracing.PhaseCheck, path)
	defer func() { tracing.EndSpan(span, err) }()

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	summaries, err := threshold.FromJSONReport(body)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	return threshold.NewEvaluator(thresholds).Evaluate(summaries), nil
}

// report is everything the sinks render for one session.
type report struct {
	info      output.SessionInfo
	summaries []evaluate.Summary
	diffs     []evaluate.Diff
	entries   []evaluate.Row
	results   []threshold.Result
}

// evaluateSession computes summaries and threshold results, plus the diffs
// and entries when an output needs them. Writers must have stopped.
func evaluateSession(ctx context.Context, tracer trace.Tracer, session *store.Session, dict tag.Dictionary, pairs []tag.Pair, outputs config.OutputConfig, thresholds []threshold.Threshold) report {
	_, span := tracing.StartPhaseSpan(ctx, tracer, tracing.PhaseEvaluate, "",
		attribute.Int("rtperf.pairs", len(pairs)),
		attribute.Int("rtperf.entries", session.Total()),
	)
	defer tracing.EndSpan(span, nil)

	ev := evaluate.New(session, dict)
	rep := report{
		info:      sessionInfo(session),
		summaries: ev.Summaries(pairs),
	}
	if outputs.Diff != "" || outputs.HTML != "" {
		rep.diffs = ev.Diffs(pairs)
	}
	if outputs.Entries != "" {
		rep.entries = ev.Entries(nil)
	}
	rep.results = threshold.NewEvaluator(thresholds).Evaluate(rep.summaries)
	return rep
}

func sessionInfo(session *store.Session) output.SessionInfo {
	return output.SessionInfo{
		ID:        session.ID().String(),
		Clock:     string(session.Clock()),
		Streams:   session.StreamCount(),
		Capacity:  session.Capacity(),
		Recorded:  session.Total(),
		Rejected:  session.ErrorCounts(),
		Misrouted: session.Misrouted(),
		Pinned:    session.Pinned(),
	}
}

func toWorkloadArrivalModel(model config.ArrivalModel) workload.ArrivalModel {
	switch strings.ToLower(string(model)) {
	case string(config.ArrivalModelPoisson):
		return workload.ArrivalModelPoisson
	default:
		return workload.ArrivalModelUniform
	}
}

// isTerminal reports whether w is an interactive terminal. Progress lines
// use carriage returns and would garble redirected output.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
