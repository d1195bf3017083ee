package question

// Option is one selectable entry of a multiple-choice or true/false question.
type Option struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	IsCorrect bool   `json:"isCorrect"`
}

// ShortAnswer is one accepted free-text answer.
type ShortAnswer struct {
	Content     string `json:"content"`
	Marks       int    `json:"marks"`
	Explanation string `json:"explanation,omitempty"`
}

// AnswerSet is the type-specific answer payload. The set of implementations is
// closed: MultipleChoice, TrueFalse and ShortAnswers.
type AnswerSet interface {
	Type() Type
	answerSet()
}

// MultipleChoice carries an ordered list of options; ids are unique per question.
type MultipleChoice struct {
	Options []Option
}

// TrueFalse carries the fixed pair. Index 0 is always "True", index 1 "False".
type TrueFalse struct {
	Options [2]Option
}

// ShortAnswers carries the ordered list of accepted answers.
type ShortAnswers struct {
	Answers []ShortAnswer
}

func (MultipleChoice) Type() Type { return TypeMultipleChoice }
func (TrueFalse) Type() Type      { return TypeTrueFalse }
func (ShortAnswers) Type() Type   { return TypeShortAnswer }

func (MultipleChoice) answerSet() {}
func (TrueFalse) answerSet()      {}
func (ShortAnswers) answerSet()   {}

const (
	trueOptionID  = "true"
	falseOptionID = "false"
)

// NewTrueFalse returns the fixed pair with neither side selected.
func NewTrueFalse() TrueFalse {
	return TrueFalse{Options: [2]Option{
		{ID: trueOptionID, Content: "True"},
		{ID: falseOptionID, Content: "False"},
	}}
}

// TrueFalseOf returns the pair with exactly one side selected.
func TrueFalseOf(isTrue bool) TrueFalse {
	tf := NewTrueFalse()
	tf.Options[0].IsCorrect = isTrue
	tf.Options[1].IsCorrect = !isTrue
	return tf
}

// IsTrue reports whether the "True" side is the correct one.
func (tf TrueFalse) IsTrue() bool {
	return tf.Options[0].IsCorrect
}

// Selected returns how many sides are marked correct.
func (tf TrueFalse) Selected() int {
	n := 0
	for _, opt := range tf.Options {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}

// CorrectCount returns how many options are marked correct.
func (mc MultipleChoice) CorrectCount() int {
	n := 0
	for _, opt := range mc.Options {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}
