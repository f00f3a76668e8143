// Package progress reports campaign execution progress to stdout in
// text or json form, grounded on pkg/reporting/progress.go's
// OutputFormat-dispatched Report* methods (TUI mode dropped — see
// DESIGN.md).
package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sbancuz/fit/internal/campaign"
	"github.com/sbancuz/fit/internal/runner"
)

// OutputFormat selects how Reporter renders events.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Reporter reports campaign progress during a run.
type Reporter struct {
	format OutputFormat
}

// New returns a Reporter for format, defaulting to text for any
// unrecognized value.
func New(format OutputFormat) *Reporter {
	return &Reporter{format: format}
}

// ReportIterationStarted reports that iteration n of total is beginning.
func (r *Reporter) ReportIterationStarted(n, total int) {
	switch r.format {
	case FormatJSON:
		r.emit(map[string]any{
			"event":     "iteration_started",
			"iteration": n,
			"total":     total,
		})
	default:
		fmt.Printf("[%s] iteration %d/%d starting\n", timestamp(), n, total)
	}
}

// ReportInjection reports the sampled injection about to be applied.
func (r *Reporter) ReportInjection(inj campaign.Injection) {
	switch r.format {
	case FormatJSON:
		r.emit(map[string]any{
			"event":     "injection",
			"where":     inj.Where,
			"operation": string(inj.Operation),
			"words":     inj.Words,
		})
	default:
		fmt.Printf("[%s] injecting %s on %s (words=%v)\n", timestamp(), inj.Operation, inj.Where, inj.Words)
	}
}

// ReportIterationResult reports the outcome of a completed iteration.
func (r *Reporter) ReportIterationResult(n int, rec runner.RunRecord) {
	switch r.format {
	case FormatJSON:
		r.emit(map[string]any{
			"event":     "iteration_result",
			"iteration": n,
			"result":    rec.Result,
			"observed":  rec.Observed,
		})
	default:
		fmt.Printf("[%s] iteration %d result=%s\n", timestamp(), n, rec.Result)
	}
}

// ReportGoldenRun reports the outcome of the golden (pre-injection) run.
func (r *Reporter) ReportGoldenRun(rec runner.RunRecord) {
	switch r.format {
	case FormatJSON:
		r.emit(map[string]any{
			"event":    "golden_run",
			"result":   rec.Result,
			"observed": rec.Observed,
		})
	default:
		fmt.Printf("[%s] golden run result=%s\n", timestamp(), rec.Result)
	}
}

// ReportCampaignCompleted reports the final tally once every iteration
// has run: total iterations, how many diverged from the golden result,
// and total elapsed time.
func (r *Reporter) ReportCampaignCompleted(total, diverged int, elapsed time.Duration) {
	switch r.format {
	case FormatJSON:
		r.emit(map[string]any{
			"event":      "campaign_completed",
			"total":      total,
			"diverged":   diverged,
			"elapsed_ms": elapsed.Milliseconds(),
		})
	default:
		fmt.Printf("[%s] campaign completed: %d/%d diverged from golden, elapsed %s\n",
			timestamp(), diverged, total, elapsed.Round(time.Millisecond))
	}
}

func (r *Reporter) emit(event map[string]any) {
	event["timestamp"] = timestamp()
	data, err := json.Marshal(event)
	if err != nil {
		fmt.Printf(`{"event":"marshal_error","error":%q}`+"\n", err.Error())
		return
	}
	fmt.Println(string(data))
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}
