package question

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// Wire names of the variant fields. Exactly one is sent per question.
const (
	fieldMultipleChoice = "multipleChoiceOptions"
	fieldTrueFalse      = "trueFalseOptions"
	fieldIsTrue         = "isTrue"
	fieldShortAnswers   = "shortAnswers"
)

type wireQuestion struct {
	ID                    string        `json:"id"`
	Title                 string        `json:"title"`
	Description           string        `json:"description"`
	Content               string        `json:"content"`
	Explanation           string        `json:"explanation"`
	Type                  Type          `json:"type"`
	Tags                  []string      `json:"tags"`
	TotalPotentialMarks   int           `json:"totalPotentialMarks"`
	DifficultyLevel       float64       `json:"difficultyLevel"`
	Hidden                *bool         `json:"hidden"`
	CreatedAt             *time.Time    `json:"createdAt"`
	MultipleChoiceOptions []Option      `json:"multipleChoiceOptions"`
	TrueFalseOptions      []Option      `json:"trueFalseOptions"`
	IsTrue                *bool         `json:"isTrue"`
	ShortAnswers          []ShortAnswer `json:"shortAnswers"`
	SubTopics             []Subtopic    `json:"subTopics"`
}

// wireFields are the members wireQuestion decodes. Anything else upstream
// sends is kept aside and echoed by View.
var wireFields = map[string]bool{
	"id": true, "title": true, "description": true, "content": true,
	"explanation": true, "type": true, "tags": true, "totalPotentialMarks": true,
	"difficultyLevel": true, "hidden": true, "createdAt": true,
	fieldMultipleChoice: true, fieldTrueFalse: true, fieldIsTrue: true,
	fieldShortAnswers: true, "subTopics": true,
}

// Payload returns the outbound representation of q. Variant fields other than
// the active one are nulled, then every nil or empty value is stripped.
func (q Question) Payload() map[string]any {
	answers := q.answersOrDefault()
	typ := q.Type
	if answers != nil {
		typ = answers.Type()
	}

	p := map[string]any{
		"id":                  q.ID,
		"title":               q.Title,
		"description":         q.Description,
		"content":             q.Content,
		"explanation":         q.Explanation,
		"type":                string(typ),
		"tags":                q.Tags,
		"totalPotentialMarks": q.TotalPotentialMarks,
		"difficultyLevel":     q.DifficultyLevel,
		"hidden":              q.Hidden,
		"createdAt":           q.CreatedAt,
		fieldMultipleChoice:   nil,
		fieldTrueFalse:        nil,
		fieldIsTrue:           nil,
		fieldShortAnswers:     nil,
	}

	switch a := answers.(type) {
	case MultipleChoice:
		p[fieldMultipleChoice] = a.Options
	case TrueFalse:
		p[fieldTrueFalse] = a.Options[:]
		p[fieldIsTrue] = a.IsTrue()
	case ShortAnswers:
		p[fieldShortAnswers] = a.Answers
	}

	return compact(p)
}

// View is Payload plus the read-only subTopics list and any upstream members
// the model does not carry (updatedAt and the like), for responses sent back
// to the dashboard.
func (q Question) View() map[string]any {
	p := q.Payload()
	if len(q.Subtopics) > 0 {
		p["subTopics"] = q.Subtopics
	}
	for k, v := range q.extra {
		if _, ok := p[k]; !ok {
			p[k] = v
		}
	}
	return p
}

// MarshalJSON encodes the outbound payload.
func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Payload())
}

// UnmarshalJSON decodes an upstream question. Missing hidden means false.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	*q = Question{
		ID:                  w.ID,
		Title:               w.Title,
		Description:         w.Description,
		Content:             w.Content,
		Explanation:         w.Explanation,
		Type:                w.Type,
		Tags:                w.Tags,
		TotalPotentialMarks: w.TotalPotentialMarks,
		DifficultyLevel:     w.DifficultyLevel,
		Hidden:              w.Hidden != nil && *w.Hidden,
		CreatedAt:           w.CreatedAt,
	}
	for k, v := range members {
		if wireFields[k] {
			continue
		}
		if q.extra == nil {
			q.extra = make(map[string]json.RawMessage)
		}
		q.extra[k] = v
	}

	switch w.Type {
	case TypeMultipleChoice:
		q.Answers = MultipleChoice{Options: w.MultipleChoiceOptions}
	case TypeTrueFalse:
		q.Answers = decodeTrueFalse(w.TrueFalseOptions, w.IsTrue)
	case TypeShortAnswer:
		q.Answers = ShortAnswers{Answers: w.ShortAnswers}
	}

	for _, st := range w.SubTopics {
		if st.ID != "" {
			q.SubtopicIDs = append(q.SubtopicIDs, st.ID)
			q.Subtopics = append(q.Subtopics, st)
		}
	}
	return nil
}

// decodeTrueFalse keeps the stored pair when present and lets isTrue, when
// sent, decide which side is correct. Upstream does not promise pair order,
// so the side labelled "True" is moved to index 0; position decides only
// when neither label matches.
func decodeTrueFalse(opts []Option, isTrue *bool) TrueFalse {
	if len(opts) != 2 {
		if isTrue != nil {
			return TrueFalseOf(*isTrue)
		}
		return NewTrueFalse()
	}

	first, second := opts[0], opts[1]
	switch {
	case isLabel(first, "true"):
	case isLabel(second, "true"), isLabel(first, "false"):
		first, second = second, first
	}
	tf := TrueFalse{Options: [2]Option{first, second}}
	if isTrue != nil {
		tf.Options[0].IsCorrect = *isTrue
		tf.Options[1].IsCorrect = !*isTrue
	}
	return tf
}

func isLabel(opt Option, label string) bool {
	return strings.EqualFold(strings.TrimSpace(opt.Content), label)
}

// compact drops nil values, empty strings and empty slices or maps.
func compact(m map[string]any) map[string]any {
	for k, v := range m {
		if isEmpty(v) {
			delete(m, k)
		}
	}
	return m
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.String:
		return rv.Len() == 0
	default:
		return false
	}
}
