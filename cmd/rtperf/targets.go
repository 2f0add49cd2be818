package main

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/rtperf/internal/config"
	"github.com/torosent/rtperf/internal/output"
	"github.com/torosent/rtperf/internal/tracing"
)

// buildTargets returns one target per configured sink, in a fixed order.
// Each write runs inside its own export span.
func buildTargets(ctx context.Context, tracer trace.Tracer, outputs config.OutputConfig, rep report) []output.Target {
	var targets []output.Target
	add := func(name, pattern string, write func(io.Writer) error) {
		if pattern == "" {
			return
		}
		targets = append(targets, output.Target{
			Name:  name,
			Path:  output.ExpandPath(pattern, rep.info.ID),
			Write: traced(ctx, tracer, name, write),
		})
	}

	add("csv", outputs.CSV, func(w io.Writer) error {
		return output.WriteSummaryCSV(w, rep.summaries)
	})
	add("json", outputs.JSON, func(w io.Writer) error {
		doc := output.NewJSONReport(rep.summaries)
		info := rep.info
		doc.Session = &info
		return output.PrintJSONReport(w, doc)
	})
	add("diff", outputs.Diff, func(w io.Writer) error {
		if outputs.Diff == output.StdoutPath {
			output.PrintDiffs(w, rep.diffs)
			return nil
		}
		return output.WriteDiffCSV(w, rep.diffs)
	})
	add("entries", outputs.Entries, func(w io.Writer) error {
		return output.WriteEntriesCSV(w, rep.entries)
	})
	add("html", outputs.HTML, func(w io.Writer) error {
		return output.WriteHTMLReport(w, rep.info, rep.summaries, rep.diffs, rep.results)
	})
	return targets
}

func traced(ctx context.Context, tracer trace.Tracer, name string, write func(io.Writer) error) func(io.Writer) error {
	return func(w io.Writer) error {
		_, span := tracing.StartPhaseSpan(ctx, tracer, tracing.PhaseExport, name)
		err := write(w)
		tracing.EndSpan(span, err)
		return err
	}
}
