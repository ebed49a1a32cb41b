package matrix

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Separator frames the banner and the summary.
var Separator = strings.Repeat("=", 60)

const (
	verdictPassed = "All TTL tests passed!"
	verdictFailed = "Some TTL tests failed!"
)

// PrintBanner writes the run header.
func PrintBanner(w io.Writer, host, namespace string) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, "TTL Feature Tests")
	fmt.Fprintf(w, "Host: %s\n", host)
	fmt.Fprintf(w, "Namespace: %s\n", namespace)
	fmt.Fprintln(w, Separator)
}

// PrintSummary writes the results table and the aggregate verdict.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, "Results Summary:")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Result", "Outcome", "Elapsed"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, r := range s.Results {
		outcome := r.Outcome.String()
		if r.NotRun {
			outcome = "not run"
		}
		table.Append([]string{r.Name, r.Status(), outcome, r.Elapsed.Round(time.Millisecond).String()})
	}
	table.Render()

	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, Verdict(s))
}

// Verdict returns the aggregate pass/fail line.
func Verdict(s Summary) string {
	if s.AllPassed() {
		return verdictPassed
	}
	return verdictFailed
}

type jsonScenario struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	NotRun    bool    `json:"not_run,omitempty"`
	Outcome   string  `json:"outcome"`
	Message   string  `json:"message"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

type jsonReport struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	ElapsedMS float64        `json:"elapsed_ms"`
	AllPassed bool           `json:"all_passed"`
	Passed    int            `json:"passed"`
	Failed    int            `json:"failed"`
	Scenarios []jsonScenario `json:"scenarios"`
}

// WriteJSON writes s as an indented JSON document.
func WriteJSON(w io.Writer, s Summary) error {
	report := jsonReport{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		ElapsedMS: millis(s.Elapsed),
		AllPassed: s.AllPassed(),
		Passed:    s.Passed(),
		Failed:    s.Failed(),
		Scenarios: make([]jsonScenario, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		outcome := r.Outcome.String()
		if r.NotRun {
			outcome = "not run"
		}
		report.Scenarios = append(report.Scenarios, jsonScenario{
			Name:      r.Name,
			Passed:    r.Passed,
			NotRun:    r.NotRun,
			Outcome:   outcome,
			Message:   r.Message,
			ElapsedMS: millis(r.Elapsed),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
