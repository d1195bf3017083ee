package question

import (
	"errors"
	"strings"
)

// Validation failures, in the order Validate checks them.
var (
	ErrTitleRequired            = errors.New("question title is required")
	ErrContentRequired          = errors.New("question content is required")
	ErrSubtopicRequired         = errors.New("at least one subtopic is required")
	ErrTrueFalseAmbiguous       = errors.New("true/false question must be either true or false")
	ErrTooFewOptions            = errors.New("multiple choice needs at least 2 options")
	ErrCorrectOptionRequired    = errors.New("at least one option must be marked correct")
	ErrOptionContentRequired    = errors.New("all options must have content")
	ErrShortAnswerRequired      = errors.New("at least one short answer is required")
	ErrShortAnswerContentNeeded = errors.New("all short answers must have content")
	ErrExplanationRequired      = errors.New("explanation is required")
)

// Validate reports the first problem that blocks submitting q. pendingSubtopics
// is the number of subtopics the editor intends to link.
func Validate(q Question, pendingSubtopics int) error {
	if blank(q.Title) {
		return ErrTitleRequired
	}
	if blank(q.Content) {
		return ErrContentRequired
	}
	if pendingSubtopics < 1 {
		return ErrSubtopicRequired
	}
	if err := validateAnswers(q.answersOrDefault()); err != nil {
		return err
	}
	if blank(q.Explanation) {
		return ErrExplanationRequired
	}
	return nil
}

// Validate checks the draft with the given number of pending subtopic links.
func (d *Draft) Validate(pendingSubtopics int) error {
	return Validate(d.Question(), pendingSubtopics)
}

func validateAnswers(answers AnswerSet) error {
	switch a := answers.(type) {
	case TrueFalse:
		if a.Selected() != 1 {
			return ErrTrueFalseAmbiguous
		}
	case MultipleChoice:
		if len(a.Options) < MinOptions {
			return ErrTooFewOptions
		}
		if a.CorrectCount() == 0 {
			return ErrCorrectOptionRequired
		}
		for _, opt := range a.Options {
			if blank(opt.Content) {
				return ErrOptionContentRequired
			}
		}
	case ShortAnswers:
		if len(a.Answers) == 0 {
			return ErrShortAnswerRequired
		}
		for _, sa := range a.Answers {
			if blank(sa.Content) {
				return ErrShortAnswerContentNeeded
			}
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// answersOrDefault returns the answer set, deriving an empty one from Type when
// none was attached.
func (q Question) answersOrDefault() AnswerSet {
	if q.Answers != nil {
		return q.Answers
	}
	switch q.Type {
	case TypeTrueFalse:
		return NewTrueFalse()
	case TypeShortAnswer:
		return ShortAnswers{}
	case TypeMultipleChoice:
		return MultipleChoice{}
	default:
		return nil
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
