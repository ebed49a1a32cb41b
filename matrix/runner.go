package matrix

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ScenarioEvaluator evaluates a single scenario. *Evaluator satisfies it.
type ScenarioEvaluator interface {
	Evaluate(ctx context.Context, sc Scenario) ScenarioResult
}

// Runner executes scenarios sequentially.
type Runner struct {
	eval   ScenarioEvaluator
	out    io.Writer
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutput sets where progress lines are printed. Defaults to io.Discard.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(eval ScenarioEvaluator, opts ...RunnerOption) *Runner {
	r := &Runner{
		eval:   eval,
		out:    io.Discard,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every scenario in order and prints a PASS/FAIL line as each
// completes. A failing scenario never stops the run. Once ctx is done, the
// remaining scenarios are recorded as failed without being attempted.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) Summary {
	summary := Summary{
		RunID:     uuid.NewString(),
		Results:   make([]ScenarioResult, 0, len(scenarios)),
		StartedAt: time.Now(),
	}
	logger := r.logger.With("run_id", summary.RunID)
	logger.Info("starting run", "scenarios", len(scenarios))

	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			res := ScenarioResult{
				Name:    sc.Name,
				Message: fmt.Sprintf("not run: %v", err),
				NotRun:  true,
			}
			summary.Results = append(summary.Results, res)
			fmt.Fprintf(r.out, "%s: %s: %s\n", res.Status(), res.Name, res.Message)
			continue
		}

		fmt.Fprintln(r.out, sc.describe())
		res := r.eval.Evaluate(ctx, sc)
		summary.Results = append(summary.Results, res)
		fmt.Fprintf(r.out, "%s: %s: %s\n", res.Status(), res.Name, res.Message)

		logger.Debug("scenario finished",
			"index", i,
			"scenario", sc.Name,
			"passed", res.Passed,
			"outcome", res.Outcome.String(),
			"elapsed", res.Elapsed)
	}

	summary.Elapsed = time.Since(summary.StartedAt)
	logger.Info("run finished",
		"passed", summary.Passed(),
		"failed", summary.Failed(),
		"elapsed", summary.Elapsed)
	return summary
}
