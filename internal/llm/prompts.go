package llm

import "strings"

// SystemInstruction frames every grading request.
const SystemInstruction = "You are an experienced teaching assistant grading student submissions. " +
	"Follow the supplied grading policy exactly and respond only with JSON conforming to the requested schema."

// BuildPrompt assembles the single request payload for one submission.
// Section order is fixed: role framing, the injected policy verbatim,
// numbered grading instructions, assignment spec, rubric, the submission
// labeled with its filename, and the final directive to grade. The output is
// deterministic for identical inputs.
func BuildPrompt(in GradeInput) string {
	var b strings.Builder
	b.WriteString("You are grading one student submission for a course assignment.\n")
	b.WriteString("\n## Grading Policy\n")
	b.WriteString(in.Policy)
	b.WriteString("\n\n## Instructions\n")
	b.WriteString("1. Reference the assignment specification for the total points available.\n")
	b.WriteString("2. Apply the rubric strictly, criterion by criterion, in rubric order.\n")
	b.WriteString("3. Output only the requested structured schema: a total_score string and one breakdown entry per rubric criterion, in rubric order.\n")
	b.WriteString("4. Make feedback specific, referencing the exact errors or passages in the submission.\n")
	b.WriteString("\n## Assignment Specification\n")
	b.WriteString(in.AssignmentText)
	b.WriteString("\n\n## Rubric\n")
	b.WriteString(in.RubricText)
	b.WriteString("\n\n## Student Submission: ")
	b.WriteString(in.FileName)
	b.WriteString("\n")
	b.WriteString(in.SubmissionText)
	b.WriteString("\n\nGrade this submission now.")
	return b.String()
}
