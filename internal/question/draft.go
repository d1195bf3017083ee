package question

import (
	"errors"

	"github.com/google/uuid"
)

const (
	// MinOptions is the floor for multiple-choice options.
	MinOptions = 2
	// MinShortAnswers is the floor for short-answer entries.
	MinShortAnswers = 1

	defaultOptionCount = 4
	// Switching to multiple choice keeps at least this many existing choices.
	reuseOptionThreshold = 3
)

var ErrUnknownType = errors.New("unknown question type")

// DraftOptions tunes a Draft. NewID defaults to random UUIDs.
type DraftOptions struct {
	NewID func() string
}

// Draft is the editable state of one question. It is not safe for concurrent
// use; callers own it and hand it around by pointer.
//
// MULTIPLE_CHOICE and TRUE_FALSE share one choice buffer, so switching to
// TRUE_FALSE overwrites whatever choices were there. Short answers keep their
// own buffer across type switches.
type Draft struct {
	ID                  string
	Title               string
	Description         string
	Content             string
	Explanation         string
	Tags                []string
	TotalPotentialMarks int
	DifficultyLevel     float64
	Hidden              bool

	typ          Type
	choices      []Option
	shortAnswers []ShortAnswer
	newID        func() string
}

// NewDraft returns an empty multiple-choice draft with four blank options.
func NewDraft(opts DraftOptions) *Draft {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	d := &Draft{newID: newID}
	d.Reset()
	return d
}

// Reset returns the draft to its initial state.
func (d *Draft) Reset() {
	newID := d.newID
	*d = Draft{
		TotalPotentialMarks: 1,
		typ:                 TypeMultipleChoice,
		newID:               newID,
	}
	d.choices = d.blankOptions(defaultOptionCount)
}

// Load replaces the draft with the content of q.
func (d *Draft) Load(q Question) {
	d.Reset()
	d.ID = q.ID
	d.Title = q.Title
	d.Description = q.Description
	d.Content = q.Content
	d.Explanation = q.Explanation
	d.Tags = append([]string(nil), q.Tags...)
	d.TotalPotentialMarks = q.TotalPotentialMarks
	d.DifficultyLevel = q.DifficultyLevel
	d.Hidden = q.Hidden

	switch a := q.Answers.(type) {
	case MultipleChoice:
		d.typ = TypeMultipleChoice
		d.choices = append([]Option(nil), a.Options...)
	case TrueFalse:
		d.typ = TypeTrueFalse
		d.choices = []Option{a.Options[0], a.Options[1]}
	case ShortAnswers:
		d.typ = TypeShortAnswer
		d.choices = nil
		d.shortAnswers = append([]ShortAnswer(nil), a.Answers...)
	case nil:
		if q.Type.Valid() {
			_ = d.SetType(q.Type)
		}
	}
	d.assignMissingIDs()
}

// assignMissingIDs gives every choice without an id, or with one already used
// by an earlier choice, a fresh id so lookups by id stay unambiguous.
func (d *Draft) assignMissingIDs() {
	seen := make(map[string]bool, len(d.choices))
	for i := range d.choices {
		id := d.choices[i].ID
		if id == "" || seen[id] {
			id = d.nextID()
			d.choices[i].ID = id
		}
		seen[id] = true
	}
}

// Type returns the active question type.
func (d *Draft) Type() Type { return d.typ }

// SetType switches the active type and re-derives the answer payload.
func (d *Draft) SetType(t Type) error {
	switch t {
	case TypeTrueFalse:
		tf := NewTrueFalse()
		d.choices = []Option{tf.Options[0], tf.Options[1]}
	case TypeMultipleChoice:
		if len(d.choices) < reuseOptionThreshold {
			d.choices = d.blankOptions(defaultOptionCount)
		}
	case TypeShortAnswer:
		if len(d.shortAnswers) == 0 {
			d.shortAnswers = []ShortAnswer{blankShortAnswer()}
		}
	default:
		return ErrUnknownType
	}
	d.typ = t
	return nil
}

// Options returns a copy of the current choices (MC or TF).
func (d *Draft) Options() []Option {
	return append([]Option(nil), d.choices...)
}

// ShortAnswers returns a copy of the current short answers.
func (d *Draft) ShortAnswers() []ShortAnswer {
	return append([]ShortAnswer(nil), d.shortAnswers...)
}

// ToggleCorrect flips IsCorrect on the option with the given id. Other options
// are left alone, so several may end up correct at once.
func (d *Draft) ToggleCorrect(id string) bool {
	if d.typ != TypeMultipleChoice && d.typ != TypeTrueFalse {
		return false
	}
	i := d.optionIndex(id)
	if i < 0 {
		return false
	}
	d.choices[i].IsCorrect = !d.choices[i].IsCorrect
	return true
}

// SetOptionContent replaces the text of a multiple-choice option.
func (d *Draft) SetOptionContent(id, content string) bool {
	if d.typ != TypeMultipleChoice {
		return false
	}
	i := d.optionIndex(id)
	if i < 0 {
		return false
	}
	d.choices[i].Content = content
	return true
}

// AddOption appends a blank multiple-choice option and returns it.
func (d *Draft) AddOption() (Option, bool) {
	if d.typ != TypeMultipleChoice {
		return Option{}, false
	}
	opt := Option{ID: d.nextID()}
	d.choices = append(d.choices, opt)
	return opt, true
}

// RemoveOption drops a multiple-choice option. It is a no-op at MinOptions.
// When the removed option was correct, the first remaining option becomes the
// only correct one.
func (d *Draft) RemoveOption(id string) bool {
	if d.typ != TypeMultipleChoice || len(d.choices) <= MinOptions {
		return false
	}
	i := d.optionIndex(id)
	if i < 0 {
		return false
	}
	wasCorrect := d.choices[i].IsCorrect
	d.choices = append(d.choices[:i], d.choices[i+1:]...)
	if wasCorrect {
		for j := range d.choices {
			d.choices[j].IsCorrect = j == 0
		}
	}
	return true
}

// AddShortAnswer appends a blank short answer.
func (d *Draft) AddShortAnswer() bool {
	if d.typ != TypeShortAnswer {
		return false
	}
	d.shortAnswers = append(d.shortAnswers, blankShortAnswer())
	return true
}

// RemoveShortAnswer drops the entry at index. It is a no-op at MinShortAnswers.
func (d *Draft) RemoveShortAnswer(index int) bool {
	if d.typ != TypeShortAnswer || len(d.shortAnswers) <= MinShortAnswers {
		return false
	}
	if index < 0 || index >= len(d.shortAnswers) {
		return false
	}
	d.shortAnswers = append(d.shortAnswers[:index], d.shortAnswers[index+1:]...)
	return true
}

// SetShortAnswer replaces the entry at index.
func (d *Draft) SetShortAnswer(index int, sa ShortAnswer) bool {
	if d.typ != TypeShortAnswer || index < 0 || index >= len(d.shortAnswers) {
		return false
	}
	d.shortAnswers[index] = sa
	return true
}

// Answers returns the payload of the active variant.
func (d *Draft) Answers() AnswerSet {
	switch d.typ {
	case TypeTrueFalse:
		tf := NewTrueFalse()
		if len(d.choices) == 2 {
			tf.Options = [2]Option{d.choices[0], d.choices[1]}
		}
		return tf
	case TypeShortAnswer:
		return ShortAnswers{Answers: d.ShortAnswers()}
	default:
		return MultipleChoice{Options: d.Options()}
	}
}

// Question packages the draft for submission.
func (d *Draft) Question() Question {
	return Question{
		ID:                  d.ID,
		Title:               d.Title,
		Description:         d.Description,
		Content:             d.Content,
		Explanation:         d.Explanation,
		Type:                d.typ,
		Answers:             d.Answers(),
		Tags:                append([]string(nil), d.Tags...),
		TotalPotentialMarks: d.TotalPotentialMarks,
		DifficultyLevel:     d.DifficultyLevel,
		Hidden:              d.Hidden,
	}
}

func (d *Draft) optionIndex(id string) int {
	for i, opt := range d.choices {
		if opt.ID == id {
			return i
		}
	}
	return -1
}

func (d *Draft) blankOptions(n int) []Option {
	opts := make([]Option, n)
	for i := range opts {
		opts[i] = Option{ID: d.nextID()}
	}
	return opts
}

func (d *Draft) nextID() string {
	if d.newID == nil {
		return uuid.NewString()
	}
	return d.newID()
}

func blankShortAnswer() ShortAnswer {
	return ShortAnswer{Marks: 1}
}
