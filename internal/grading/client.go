package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gradebatch/internal/extract"
	"gradebatch/internal/llm"
	"gradebatch/internal/shared/metrics"
)

// Client grades single submissions against a model provider with bounded
// retries and exponential backoff.
type Client struct {
	model      llm.Client
	maxRetries int
	logger     zerolog.Logger

	// injectable for deterministic timing tests
	sleep  func(context.Context, time.Duration) error
	jitter func() time.Duration
}

// NewClient constructs a grading client. maxRetries <= 0 selects the
// default of 5.
func NewClient(model llm.Client, maxRetries int, logger zerolog.Logger) *Client {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{
		model:      model,
		maxRetries: maxRetries,
		logger:     logger.With().Str("component", "grading_client").Logger(),
		sleep:      sleepContext,
		jitter:     defaultJitter,
	}
}

// Grade produces exactly one terminal outcome for the submission: a Result
// on success, or an error once retries are exhausted, the failure is not
// retryable, or the submission cannot be extracted. The returned error
// message cites the attempt count and the last underlying error.
func (c *Client) Grade(ctx context.Context, sub Submission, policy, assignmentText, rubricText string) (Result, error) {
	start := time.Now()

	text, err := extract.Text(sub.Data, sub.MediaType, sub.FileName)
	if err != nil {
		metrics.IncFailed()
		return Result{}, errors.New(sanitizeError(err))
	}

	input := llm.GradeInput{
		Policy:         policy,
		AssignmentText: assignmentText,
		RubricText:     rubricText,
		SubmissionText: text,
		FileName:       sub.FileName,
	}

	attempt := 0
	var lastErr error
	for attempt < c.maxRetries {
		out, err := c.gradeOnce(ctx, input)
		if err == nil {
			metrics.IncGraded()
			metrics.ObserveGradeDuration(time.Since(start))
			breakdown := make([]string, 0, len(out.Breakdown))
			for _, entry := range out.Breakdown {
				breakdown = append(breakdown, entry.Feedback)
			}
			return Result{
				FileName:   sub.FileName,
				TotalScore: out.TotalScore,
				Breakdown:  breakdown,
			}, nil
		}

		attempt++
		lastErr = err
		if !isRetryable(err) || attempt >= c.maxRetries {
			break
		}

		delay := backoffDelay(attempt, c.jitter)
		c.logger.Warn().
			Str("file", sub.FileName).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("grade attempt failed, retrying")
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	metrics.IncFailed()
	metrics.ObserveGradeDuration(time.Since(start))
	return Result{}, fmt.Errorf("grading failed after %d attempt(s): %s", attempt, sanitizeError(lastErr))
}

func (c *Client) gradeOnce(ctx context.Context, in llm.GradeInput) (llm.GradeOutput, error) {
	metrics.IncAttempt()
	raw, err := c.model.GradeSubmission(ctx, in)
	if err != nil {
		return llm.GradeOutput{}, err
	}
	out, err := llm.DecodeGradeOutput(raw)
	if err != nil {
		return llm.GradeOutput{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return out, nil
}
