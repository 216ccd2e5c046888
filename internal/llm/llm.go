package llm

import (
	"context"
	"encoding/json"
)

// Client abstracts model providers capable of grading one submission.
// Implementations return the raw response payload; schema validation happens
// at the caller's boundary via DecodeGradeOutput.
type Client interface {
	GradeSubmission(ctx context.Context, input GradeInput) (json.RawMessage, error)
}

// GradeInput carries everything one grading request needs. The policy,
// assignment and rubric texts are shared read-only across a run; the
// submission text and filename vary per request.
type GradeInput struct {
	Policy         string
	AssignmentText string
	RubricText     string
	SubmissionText string
	FileName       string
}
