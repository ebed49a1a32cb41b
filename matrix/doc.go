// Package matrix evaluates login scenarios against expected outcomes and runs
// an ordered scenario table.
//
// A Scenario pairs an optional TTL override with an Expectation. The
// Evaluator performs one login per scenario and decides pass or fail; the
// Runner executes scenarios strictly in order, never short-circuits, and
// aggregates a Summary whose AllPassed value alone decides the exit status.
//
// Rejection messages are matched by case-insensitive substring. The remote
// service owns its wording, so exact matching would tie the harness to one
// phrasing of the error.
//
// Example:
//
//	eval := matrix.NewEvaluator(invoker, "vault1.matrix.lan:8200", "ns1/")
//	runner := matrix.NewRunner(eval, matrix.WithOutput(os.Stdout))
//	summary := runner.Run(ctx, matrix.DefaultScenarios())
//	os.Exit(summary.ExitCode())
package matrix
