package grading

// Submission is one named, typed blob of student work. It is created when
// the collaborator selects files, read once during grading, never mutated.
type Submission struct {
	FileName  string
	MediaType string
	Data      []byte
}

// Result is the terminal success outcome for one submission. TotalScore is
// free-form (not necessarily numeric); Breakdown holds one feedback string
// per rubric criterion in rubric order.
type Result struct {
	FileName   string
	TotalScore string
	Breakdown  []string
}

// Failure is the terminal failure outcome for one submission, produced when
// extraction fails or all retries are exhausted.
type Failure struct {
	FileName string
	Message  string
}

// RunInput is everything one grading invocation needs: the two context
// documents, the shared policy text, and the submission set.
type RunInput struct {
	Assignment  Submission
	Rubric      Submission
	Policy      string
	Submissions []Submission
}

// Progress is one incremental update streamed to the collaborator after a
// batch settles. Results and Failures hold only that batch's outcomes;
// Processed counts submissions handled so far across the run.
type Progress struct {
	Results   []Result
	Failures  []Failure
	Processed int
	Total     int
}

// Report is the final aggregate of a completed run. Partial success is the
// normal terminal state: Summary lists one line per failed filename and is
// empty when every submission graded cleanly.
type Report struct {
	RunID    string
	Results  []Result
	Failures []Failure
	Summary  string
}
