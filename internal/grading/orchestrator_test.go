package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradebatch/internal/llm"
)

// countingModel succeeds for everything except the filenames in fail, and
// tracks fan-out width per batch.
type countingModel struct {
	mu            sync.Mutex
	fail          map[string]bool
	inFlight      int
	maxInFlight   int
	gradedPerCall []string
}

func (m *countingModel) GradeSubmission(_ context.Context, in llm.GradeInput) (json.RawMessage, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.gradedPerCall = append(m.gradedPerCall, in.FileName)
	failing := m.fail[in.FileName]
	m.mu.Unlock()

	// hold the slot briefly so batch members overlap
	time.Sleep(5 * time.Millisecond)

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if failing {
		return nil, fmt.Errorf("model refused %s", in.FileName)
	}
	return json.RawMessage(validOutput), nil
}

func testOrchestrator(t *testing.T, model llm.Client, opts Options) (*Orchestrator, *[]time.Duration) {
	t.Helper()
	client := NewClient(model, 1, zerolog.Nop())
	client.sleep = func(context.Context, time.Duration) error { return nil }

	orch, err := NewOrchestrator(client, opts, zerolog.Nop())
	require.NoError(t, err)

	cooldowns := &[]time.Duration{}
	orch.sleep = func(_ context.Context, d time.Duration) error {
		*cooldowns = append(*cooldowns, d)
		return nil
	}
	return orch, cooldowns
}

func submissionSet(n int) []Submission {
	subs := make([]Submission, 0, n)
	for i := 1; i <= n; i++ {
		subs = append(subs, textSubmission(fmt.Sprintf("student%02d.txt", i), "work"))
	}
	return subs
}

func runInput(subs []Submission) RunInput {
	return RunInput{
		Assignment:  textSubmission("assignment.txt", "worth 20 points"),
		Rubric:      textSubmission("rubric.txt", "criterion 1"),
		Policy:      "be kind",
		Submissions: subs,
	}
}

func TestRun_BatchesCooldownsAndOutcomes(t *testing.T) {
	model := &countingModel{fail: map[string]bool{
		"student03.txt": true,
		"student09.txt": true,
	}}
	orch, cooldowns := testOrchestrator(t, model, Options{BatchSize: 5, Cooldown: 2 * time.Second})

	var progress []Progress
	orch.OnProgress = func(p Progress) { progress = append(progress, p) }

	report, err := orch.Run(context.Background(), runInput(submissionSet(12)))
	require.NoError(t, err)

	// 12 submissions, batch size 5: batches of 5, 5, 2 with cooldown only between batches
	require.Len(t, *cooldowns, 2)
	assert.Equal(t, 2*time.Second, (*cooldowns)[0])
	assert.LessOrEqual(t, model.maxInFlight, 5, "fan-out wider than batch size")
	assert.Greater(t, model.maxInFlight, 1, "batch members must overlap")

	// exactly one terminal outcome per submission
	assert.Len(t, report.Results, 10)
	assert.Len(t, report.Failures, 2)
	assert.Len(t, model.gradedPerCall, 12)

	require.Len(t, progress, 3)
	assert.Equal(t, 5, progress[0].Processed)
	assert.Equal(t, 10, progress[1].Processed)
	assert.Equal(t, 12, progress[2].Processed)
	assert.Equal(t, 12, progress[2].Total)
	assert.Len(t, progress[2].Results, 2)

	assert.Contains(t, report.Summary, "2 submission(s) failed")
	assert.Contains(t, report.Summary, "student03.txt")
	assert.Contains(t, report.Summary, "student09.txt")
}

func TestRun_AllSucceed(t *testing.T) {
	model := &countingModel{}
	orch, cooldowns := testOrchestrator(t, model, Options{BatchSize: 5, Cooldown: time.Second})

	report, err := orch.Run(context.Background(), runInput(submissionSet(4)))
	require.NoError(t, err)

	assert.Len(t, report.Results, 4)
	assert.Empty(t, report.Failures)
	assert.Equal(t, "", report.Summary)
	assert.Empty(t, *cooldowns, "single batch must not cool down")
	assert.NotEmpty(t, report.RunID)
}

func TestRun_ResultsKeepArrivalOrder(t *testing.T) {
	model := &countingModel{}
	orch, _ := testOrchestrator(t, model, Options{BatchSize: 3})

	report, err := orch.Run(context.Background(), runInput(submissionSet(7)))
	require.NoError(t, err)

	names := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		names = append(names, r.FileName)
	}
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestRun_ContextDocumentFailureIsFatal(t *testing.T) {
	model := &countingModel{}
	orch, _ := testOrchestrator(t, model, Options{BatchSize: 5})

	in := runInput(submissionSet(3))
	in.Rubric = Submission{FileName: "rubric.pdf", MediaType: "application/pdf", Data: []byte("junk")}

	report, err := orch.Run(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatalRun)
	assert.Contains(t, err.Error(), "rubric")
	assert.Nil(t, report)
	assert.Empty(t, model.gradedPerCall, "no batch may run after a fatal context error")
}

func TestRun_AssignmentFailureIsFatal(t *testing.T) {
	model := &countingModel{}
	orch, _ := testOrchestrator(t, model, Options{BatchSize: 5})

	in := runInput(submissionSet(3))
	in.Assignment = Submission{FileName: "spec.pdf", MediaType: "application/pdf", Data: []byte("junk")}

	_, err := orch.Run(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatalRun)
	assert.Contains(t, err.Error(), "assignment spec")
}

func TestRun_CancelledAtBatchBoundary(t *testing.T) {
	model := &countingModel{}
	client := NewClient(model, 1, zerolog.Nop())
	orch, err := NewOrchestrator(client, Options{BatchSize: 2, Cooldown: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	orch.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	report, err := orch.Run(context.Background(), runInput(submissionSet(5)))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Len(t, report.Results, 2, "only the first batch settles before the boundary check")
}

func TestRun_NoSubmissions(t *testing.T) {
	model := &countingModel{}
	orch, cooldowns := testOrchestrator(t, model, Options{BatchSize: 5})

	report, err := orch.Run(context.Background(), runInput(nil))
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Failures)
	assert.Empty(t, *cooldowns)
}

func TestRun_FailureMessageNamesFile(t *testing.T) {
	model := &countingModel{fail: map[string]bool{"student01.txt": true}}
	orch, _ := testOrchestrator(t, model, Options{BatchSize: 5})

	report, err := orch.Run(context.Background(), runInput(submissionSet(2)))
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "student01.txt", report.Failures[0].FileName)
	assert.True(t, strings.Contains(report.Failures[0].Message, "attempt"))
}

func TestNewOrchestrator_InvalidOptions(t *testing.T) {
	client := NewClient(&countingModel{}, 1, zerolog.Nop())

	_, err := NewOrchestrator(client, Options{BatchSize: -1}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewOrchestrator(client, Options{BatchSize: 5, Cooldown: -time.Second}, zerolog.Nop())
	assert.Error(t, err)
}
