package grading

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gradebatch/internal/extract"
)

const (
	// DefaultBatchSize is the fan-out width per batch.
	DefaultBatchSize = 5
	// DefaultCooldown is the pause between consecutive batches, throttling
	// aggregate request rate independently of per-request backoff.
	DefaultCooldown = 2 * time.Second
)

// Options tunes the batch orchestrator.
type Options struct {
	BatchSize int           `validate:"gte=1"`
	Cooldown  time.Duration `validate:"gte=0"`
}

// Orchestrator partitions a submission set into fixed-size batches, fans
// each batch out concurrently against the grading client, waits for the
// whole batch to settle, and streams incremental outcomes to the
// collaborator.
type Orchestrator struct {
	client *Client
	opts   Options
	logger zerolog.Logger

	sleep func(context.Context, time.Duration) error

	// OnProgress, when set, receives one update per settled batch.
	OnProgress func(Progress)
}

// NewOrchestrator validates options and builds an orchestrator. Zero-value
// BatchSize selects the default of 5; Cooldown stays as given so tests and
// aggressive callers may run batches back to back.
func NewOrchestrator(client *Client, opts Options, logger zerolog.Logger) (*Orchestrator, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(opts); err != nil {
		return nil, fmt.Errorf("orchestrator options: %w", err)
	}
	return &Orchestrator{
		client: client,
		opts:   opts,
		logger: logger.With().Str("component", "orchestrator").Logger(),
		sleep:  sleepContext,
	}, nil
}

// Run grades every submission and returns the final aggregate. Context
// document extraction failure before any batch starts is fatal; a failing
// submission only degrades to a Failure entry for that filename. Every
// submission yields exactly one terminal outcome. Cancellation is honored
// cooperatively at batch boundaries: Run then returns the partial report
// alongside the context error.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*Report, error) {
	runID := uuid.NewString()
	logger := o.logger.With().Str("run_id", runID).Logger()

	assignmentText, err := extract.Text(in.Assignment.Data, in.Assignment.MediaType, in.Assignment.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: assignment spec: %s", ErrFatalRun, sanitizeError(err))
	}
	rubricText, err := extract.Text(in.Rubric.Data, in.Rubric.MediaType, in.Rubric.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: rubric: %s", ErrFatalRun, sanitizeError(err))
	}

	total := len(in.Submissions)
	report := &Report{RunID: runID}
	logger.Info().Int("submissions", total).Int("batch_size", o.opts.BatchSize).Msg("run started")

	for start := 0; start < total; start += o.opts.BatchSize {
		if start > 0 {
			if err := o.sleep(ctx, o.opts.Cooldown); err != nil {
				report.Summary = failureSummary(report.Failures)
				return report, err
			}
		}

		end := start + o.opts.BatchSize
		if end > total {
			end = total
		}
		batch := in.Submissions[start:end]

		results, failures := o.gradeBatch(ctx, batch, in.Policy, assignmentText, rubricText)
		report.Results = append(report.Results, results...)
		report.Failures = append(report.Failures, failures...)

		logger.Info().
			Int("batch_start", start).
			Int("batch_len", len(batch)).
			Int("ok", len(results)).
			Int("failed", len(failures)).
			Int("processed", end).
			Msg("batch settled")

		if o.OnProgress != nil {
			o.OnProgress(Progress{
				Results:   results,
				Failures:  failures,
				Processed: end,
				Total:     total,
			})
		}
	}

	report.Summary = failureSummary(report.Failures)
	if report.Summary != "" {
		logger.Warn().Int("failed", len(report.Failures)).Msg("run completed with failures")
	} else {
		logger.Info().Int("graded", len(report.Results)).Msg("run completed")
	}
	return report, nil
}

// gradeBatch fans the batch out concurrently and waits for every member to
// settle; a slow or retrying submission never blocks the others, but the
// batch advances only once all are done. Outcomes keep batch order.
func (o *Orchestrator) gradeBatch(ctx context.Context, batch []Submission, policy, assignmentText, rubricText string) ([]Result, []Failure) {
	type outcome struct {
		result Result
		err    error
	}

	outcomes := make([]outcome, len(batch))
	var wg sync.WaitGroup
	for i, sub := range batch {
		wg.Add(1)
		go func(i int, sub Submission) {
			defer wg.Done()
			result, err := o.client.Grade(ctx, sub, policy, assignmentText, rubricText)
			outcomes[i] = outcome{result: result, err: err}
		}(i, sub)
	}
	wg.Wait()

	results := make([]Result, 0, len(batch))
	var failures []Failure
	for i, out := range outcomes {
		if out.err != nil {
			failures = append(failures, Failure{
				FileName: batch[i].FileName,
				Message:  out.err.Error(),
			})
			continue
		}
		results = append(results, out.result)
	}
	return results, failures
}

// failureSummary renders one line per failed filename, or empty when the
// run fully succeeded.
func failureSummary(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}
	lines := make([]string, 0, len(failures)+1)
	lines = append(lines, fmt.Sprintf("%d submission(s) failed:", len(failures)))
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("%s: %s", f.FileName, f.Message))
	}
	return strings.Join(lines, "\n")
}
