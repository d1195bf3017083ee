package plan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-admin/internal/question"
)

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) DeleteQuestion(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func validEntry(id string) CreatedEntry {
	return CreatedEntry{Question: &question.Question{ID: id, Title: "Question " + id}}
}

func scenarioPlan() *Plan {
	return &Plan{
		ID:         "plan-1",
		SubTopicID: "sub-1",
		Prompt:     "Generate algebra questions",
		Quota:      5,
		Created: []CreatedEntry{
			validEntry("q1"),
			validEntry("q2"),
			{Question: nil},
			validEntry("q3"),
		},
	}
}

func TestCorruptedEntriesAreFiltered(t *testing.T) {
	p := scenarioPlan()

	assert.Len(t, p.ValidEntries(), 3)
	assert.Len(t, p.CorruptedEntries(), 1)
}

func TestCorruptedDetection(t *testing.T) {
	assert.True(t, CreatedEntry{}.Corrupted())
	assert.True(t, CreatedEntry{Ref: "q1"}.Corrupted())
	assert.True(t, CreatedEntry{Question: &question.Question{ID: "q1"}}.Corrupted())
	assert.True(t, CreatedEntry{Question: &question.Question{Title: "t"}}.Corrupted())
	assert.False(t, validEntry("q1").Corrupted())
}

func TestRemoveCorruptedEntryByIndex(t *testing.T) {
	p := scenarioPlan()

	removed := p.RemoveCreated("2")

	require.Len(t, removed, 1)
	assert.Nil(t, removed[0].Question)
	assert.Len(t, p.Created, 3)
	assert.Equal(t, []string{"q1", "q2", "q3"}, ids(p.Created))
}

func TestRemoveCreatedByID(t *testing.T) {
	p := scenarioPlan()

	removed := p.RemoveCreated("q2")

	require.Len(t, removed, 1)
	assert.Equal(t, "q2", removed[0].ID())
	assert.Len(t, p.Created, 3)
}

func TestRemoveCreatedUnknownKey(t *testing.T) {
	p := scenarioPlan()

	assert.Empty(t, p.RemoveCreated("nope"))
	assert.Empty(t, p.RemoveCreated("9"))
	assert.Len(t, p.Created, 4)
}

func TestPruneDeleteFailureDoesNotBlockRemoval(t *testing.T) {
	ctx := context.Background()
	p := &Plan{ID: "plan-1", Created: []CreatedEntry{
		validEntry("q1"),
		{Question: &question.Question{ID: "broken"}},
	}}
	deleter := new(mockDeleter)
	deleter.On("DeleteQuestion", ctx, "broken").Return(errors.New("404")).Once()

	removed := Prune(ctx, p, "broken", deleter)

	assert.Len(t, removed, 1)
	assert.Equal(t, []string{"q1"}, ids(p.Created))
	deleter.AssertExpectations(t)
}

func TestPruneSkipsDeleteWithoutID(t *testing.T) {
	ctx := context.Background()
	p := scenarioPlan()
	deleter := new(mockDeleter)

	removed := Prune(ctx, p, "2", deleter)

	assert.Len(t, removed, 1)
	deleter.AssertNotCalled(t, "DeleteQuestion", mock.Anything, mock.Anything)
}

func TestUpdateRequestReducesCreatedToRefs(t *testing.T) {
	p := scenarioPlan()
	p.Created = append(p.Created, CreatedEntry{Ref: "q4"})

	req := p.UpdateRequest()

	assert.Equal(t, []Ref{{"q1"}, {"q2"}, {"q3"}, {"q4"}}, req.Created)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created":[{"question":"q1"},{"question":"q2"},{"question":"q3"},{"question":"q4"}]`)
	assert.Contains(t, string(data), `"bannedList":[]`)
}

func TestCreatedEntryDecodesAllShapes(t *testing.T) {
	raw := `{"id":"p","quota":3,"created":[
		{"question":{"id":"q1","title":"One","type":"MULTIPLE_CHOICE"}},
		{"question":"q2"},
		{"question":null},
		{}
	]}`

	var p Plan
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	require.Len(t, p.Created, 4)
	assert.Equal(t, "q1", p.Created[0].Question.ID)
	assert.Equal(t, "q2", p.Created[1].Ref)
	assert.Nil(t, p.Created[2].Question)
	assert.Empty(t, p.Created[3].ID())
	assert.Len(t, p.ValidEntries(), 1)
}

func TestCreatedEntryKeepsUndecodableAsCorrupted(t *testing.T) {
	raw := `{"id":"p","quota":3,"created":[
		{"question":{"id":"q1","title":"One"}},
		{"question":42},
		{"question":{"id":"q3","title":"Three","tags":"x"}},
		{"question":[1,2]},
		"q5",
		7
	]}`

	var p Plan
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	require.Len(t, p.Created, 6)
	assert.Len(t, p.ValidEntries(), 1)
	assert.Len(t, p.CorruptedEntries(), 5)

	assert.Error(t, p.Created[1].DecodeError())
	assert.Empty(t, p.Created[1].ID())
	assert.Error(t, p.Created[2].DecodeError())
	assert.Equal(t, "q3", p.Created[2].ID())
	assert.Error(t, p.Created[3].DecodeError())
	assert.NoError(t, p.Created[4].DecodeError())
	assert.Equal(t, "q5", p.Created[4].ID())
	assert.Error(t, p.Created[5].DecodeError())

	removed := p.RemoveCreated("q3")
	require.Len(t, removed, 1)
	assert.Equal(t, []Ref{{Question: "q1"}, {Question: "q5"}}, p.UpdateRequest().Created)
}

func TestCreatedEntryEncodesNull(t *testing.T) {
	data, err := json.Marshal(CreatedEntry{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":null}`, string(data))
}

func TestLevelFromInput(t *testing.T) {
	cases := map[string]struct {
		raw  string
		prev float64
		want float64
	}{
		"truncates":            {"0.7399", 0.73, 0.73},
		"binary representable": {"0.29", 0, 0.29},
		"never rounds up":      {"0.729999999999", 0, 0.72},
		"tiny":                 {"0.0000001", 0.5, 0},
		"exact hundredths":     {"0.57", 0, 0.57},
		"clamps high":          {"1.5", 0.2, 1},
		"clamps low":           {"-0.3", 0.2, 0},
		"not a number":         {"abc", 0.42, 0.42},
		"empty":                {"", 0.42, 0.42},
		"whitespace":           {" 0.5 ", 0, 0.5},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.want, LevelFromInput(tc.raw, tc.prev), 1e-12)
		})
	}
}

func TestSliderThenManualEntry(t *testing.T) {
	level := LevelFromSlider(0.73)
	level = LevelFromInput("0.7399", level)

	assert.InDelta(t, 0.73, level, 1e-12)
	assert.LessOrEqual(t, level, 1.0)
	assert.GreaterOrEqual(t, level, 0.0)
}

func TestQuotaFromInput(t *testing.T) {
	assert.Equal(t, 7, QuotaFromInput("7", 5))
	assert.Equal(t, 5, QuotaFromInput("seven", 5))
	assert.Equal(t, 5, QuotaFromInput("0", 5))
	assert.Equal(t, 5, QuotaFromInput("-2", 5))
	assert.Equal(t, 5, QuotaFromInput("2.5", 5))
}

func TestCreateRequestValidate(t *testing.T) {
	ok := CreateRequest{SubTopicID: "s", Prompt: "p", Quota: 1, CreativityLevel: 0.5, DifficultyLevel: 1}
	assert.NoError(t, ok.Validate())

	noSub := ok
	noSub.SubTopicID = ""
	assert.ErrorIs(t, noSub.Validate(), ErrSubtopicRequired)

	noPrompt := ok
	noPrompt.Prompt = " "
	assert.ErrorIs(t, noPrompt.Validate(), ErrPromptRequired)

	zeroQuota := ok
	zeroQuota.Quota = 0
	assert.ErrorIs(t, zeroQuota.Validate(), ErrQuotaInvalid)

	tooCreative := ok
	tooCreative.CreativityLevel = 1.2
	assert.ErrorIs(t, tooCreative.Validate(), ErrLevelOutOfRange)
}

func TestSummarize(t *testing.T) {
	a := scenarioPlan()
	a.Created[0].Question.Hidden = true
	b := Plan{Created: []CreatedEntry{validEntry("x"), {Ref: "y"}}}

	s := Summarize(*a, b)

	assert.Equal(t, Summary{Total: 2, Hidden: 1, Visible: 3}, s)
}

func ids(entries []CreatedEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID())
	}
	return out
}
