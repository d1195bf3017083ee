package plan

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gokatarajesh/quiz-admin/internal/question"
)

// Plan is a generation template for questions under one subtopic.
type Plan struct {
	ID              string         `json:"id,omitempty"`
	SubTopicID      string         `json:"subTopicId"`
	Prompt          string         `json:"prompt"`
	BannedList      []string       `json:"bannedList"`
	CreativityLevel float64        `json:"creativityLevel"`
	DifficultyLevel float64        `json:"difficultyLevel"`
	Tags            []string       `json:"tags"`
	Quota           int            `json:"quota"`
	Created         []CreatedEntry `json:"created"`
	Locked          bool           `json:"locked"`
	Active          bool           `json:"active"`
	CreatedAt       *time.Time     `json:"createdAt,omitempty"`
}

// CreatedEntry references a question produced by the plan. Upstream sends it
// either embedded, as a bare id, or null.
type CreatedEntry struct {
	Question *question.Question
	Ref      string

	// decodeErr is set when the embedded question could not be decoded. The
	// entry is then kept as corrupted instead of failing the whole plan.
	decodeErr error
}

// DecodeError returns why the embedded question could not be read, if it
// could not.
func (e CreatedEntry) DecodeError() error {
	return e.decodeErr
}

// ID returns the referenced question id, embedded or bare.
func (e CreatedEntry) ID() string {
	if e.Question != nil {
		return e.Question.ID
	}
	return e.Ref
}

// Corrupted reports whether the entry lacks the question, its id or its title.
func (e CreatedEntry) Corrupted() bool {
	return e.Question == nil || e.Question.ID == "" || e.Question.Title == ""
}

type wireEntry struct {
	Question json.RawMessage `json:"question"`
}

func (e *CreatedEntry) UnmarshalJSON(data []byte) error {
	*e = CreatedEntry{}
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		// Not an object at all: a bare id is still usable, anything else is
		// kept as a corrupted entry.
		if json.Unmarshal(data, &e.Ref) != nil {
			e.decodeErr = err
		}
		return nil
	}
	raw := bytes.TrimSpace(w.Question)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &e.Ref); err != nil {
			e.decodeErr = err
		}
		return nil
	default:
		var q question.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			e.decodeErr = err
			e.Ref = recoverID(raw)
			return nil
		}
		e.Question = &q
		return nil
	}
}

// recoverID pulls a string id out of an object that failed to decode as a
// question, so the entry can still be addressed by id.
func recoverID(raw []byte) string {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if json.Unmarshal(raw, &head) != nil {
		return ""
	}
	var id string
	if json.Unmarshal(head.ID, &id) != nil {
		return ""
	}
	return id
}

func (e CreatedEntry) MarshalJSON() ([]byte, error) {
	switch {
	case e.Question != nil:
		return json.Marshal(struct {
			Question *question.Question `json:"question"`
		}{e.Question})
	case e.Ref != "":
		return json.Marshal(Ref{Question: e.Ref})
	default:
		return []byte(`{"question":null}`), nil
	}
}

// Ref is the only shape upstream accepts for created entries on update.
type Ref struct {
	Question string `json:"question"`
}

// CreateRequest is the body for POST /question-plans.
type CreateRequest struct {
	SubTopicID      string   `json:"subTopicId"`
	Prompt          string   `json:"prompt"`
	BannedList      []string `json:"bannedList"`
	CreativityLevel float64  `json:"creativityLevel"`
	DifficultyLevel float64  `json:"difficultyLevel"`
	Tags            []string `json:"tags"`
	Quota           int      `json:"quota"`
}

// UpdateRequest is the body for PUT /question-plans/{id}.
type UpdateRequest struct {
	SubTopicID      string   `json:"subTopicId"`
	Prompt          string   `json:"prompt"`
	BannedList      []string `json:"bannedList"`
	CreativityLevel float64  `json:"creativityLevel"`
	DifficultyLevel float64  `json:"difficultyLevel"`
	Tags            []string `json:"tags"`
	Quota           int      `json:"quota"`
	Created         []Ref    `json:"created"`
	Locked          bool     `json:"locked"`
	Active          bool     `json:"active"`
}

// GenerateRequest is the body for POST /question-plans/{id}/generate.
type GenerateRequest struct {
	Limit int `json:"limit"`
}
