package matrix

import (
	"time"

	"github.com/smnsjas/go-krbttl/login"
)

// ScenarioResult is the verdict for one scenario.
type ScenarioResult struct {
	Name    string
	Passed  bool
	Message string
	// Outcome is the kind of login result the scenario observed.
	Outcome login.Kind
	Elapsed time.Duration
	// NotRun marks scenarios skipped because the run was cancelled.
	NotRun bool
}

// Status returns "PASS" or "FAIL".
func (r ScenarioResult) Status() string {
	if r.Passed {
		return "PASS"
	}
	return "FAIL"
}

// Summary is the ordered outcome of a run.
type Summary struct {
	RunID     string
	Results   []ScenarioResult
	StartedAt time.Time
	Elapsed   time.Duration
}

// AllPassed reports whether every scenario passed. An empty run passes.
func (s Summary) AllPassed() bool {
	for _, r := range s.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Passed returns the number of passing scenarios.
func (s Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing scenarios.
func (s Summary) Failed() int {
	return len(s.Results) - s.Passed()
}

// ExitCode is 0 when all scenarios passed and 1 otherwise.
func (s Summary) ExitCode() int {
	if s.AllPassed() {
		return 0
	}
	return 1
}
