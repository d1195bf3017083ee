package question

import (
	"encoding/json"
	"time"
)

// Type selects which answer variant is authoritative for a question.
type Type string

const (
	TypeMultipleChoice Type = "MULTIPLE_CHOICE"
	TypeTrueFalse      Type = "TRUE_FALSE"
	TypeShortAnswer    Type = "SHORT_ANSWER"
)

// Valid reports whether t is one of the known question types.
func (t Type) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer:
		return true
	default:
		return false
	}
}

// Question is the central entity edited by the dashboard and stored upstream.
type Question struct {
	ID                  string
	Title               string
	Description         string
	Content             string
	Explanation         string
	Type                Type
	Answers             AnswerSet
	Tags                []string
	TotalPotentialMarks int
	DifficultyLevel     float64
	Hidden              bool
	CreatedAt           *time.Time

	// SubtopicIDs mirrors the links reported by upstream. It is never sent back;
	// links change only through explicit link/unlink calls.
	SubtopicIDs []string
	// Subtopics holds the linked subtopics as upstream reported them.
	Subtopics []Subtopic

	extra map[string]json.RawMessage
}

// Subtopic is a taxonomy leaf a question may be linked to.
type Subtopic struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// ListFilter holds the query accepted by GET /questions.
type ListFilter struct {
	PageNumber int
	PageSize   int
	Name       string
	SubtopicID string
	Type       Type
	Hidden     *bool
}

// Page is one page of questions plus the total amount upstream knows about.
type Page struct {
	Data   []Question `json:"data"`
	Amount int        `json:"amount"`
}
