package extract

import (
	"encoding/json"
	"errors"
	"strings"
)

type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	Source cellSource `json:"source"`
}

// cellSource accepts both forms nbformat allows for a cell's source: an
// ordered array of text fragments or a single string.
type cellSource []string

func (s *cellSource) UnmarshalJSON(data []byte) error {
	var fragments []string
	if err := json.Unmarshal(data, &fragments); err == nil {
		*s = fragments
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return errors.New("cell source must be a string or an array of strings")
	}
	*s = cellSource{single}
	return nil
}

// extractNotebook joins each cell's source fragments with no separator and
// joins cells with a blank line, preserving cell order.
func extractNotebook(data []byte) (string, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return "", err
	}
	if nb.Cells == nil {
		return "", errors.New("notebook has no cells field")
	}

	cells := make([]string, 0, len(nb.Cells))
	for _, cell := range nb.Cells {
		cells = append(cells, strings.Join(cell.Source, ""))
	}
	return strings.Join(cells, "\n\n"), nil
}
