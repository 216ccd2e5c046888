package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ResultSchema is the structured-output contract enforced on the model: a
// free-form total score string plus one feedback entry per rubric criterion,
// in rubric order. It is sent to the provider as the response schema and
// applied again locally to the untrusted payload that comes back.
const ResultSchema = `{
  "type": "object",
  "properties": {
    "total_score": {"type": "string"},
    "breakdown": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "feedback": {"type": "string"}
        },
        "required": ["feedback"],
        "additionalProperties": false
      }
    }
  },
  "required": ["total_score", "breakdown"],
  "additionalProperties": false
}`

// GradeOutput is the decoded, schema-conforming model response.
type GradeOutput struct {
	TotalScore string          `json:"total_score"`
	Breakdown  []FeedbackEntry `json:"breakdown"`
}

// FeedbackEntry holds the free-form feedback for one rubric criterion.
type FeedbackEntry struct {
	Feedback string `json:"feedback"`
}

var resultSchema = jsonschema.MustCompileString("grading_result.json", ResultSchema)

// DecodeGradeOutput validates an untrusted model payload against the result
// schema before decoding it. Validation failure is an ordinary error for the
// caller's retry path, not a crash.
func DecodeGradeOutput(raw json.RawMessage) (GradeOutput, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return GradeOutput{}, fmt.Errorf("model output parse: %w", err)
	}
	if err := resultSchema.Validate(payload); err != nil {
		return GradeOutput{}, fmt.Errorf("model output schema: %w", err)
	}

	var out GradeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return GradeOutput{}, fmt.Errorf("model output decode: %w", err)
	}
	return out, nil
}
