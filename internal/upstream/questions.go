package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gokatarajesh/quiz-admin/internal/question"
)

// ListQuestions fetches one page of questions.
func (c *Client) ListQuestions(ctx context.Context, f question.ListFilter) (question.Page, error) {
	q := url.Values{}
	q.Set("page_number", strconv.Itoa(f.PageNumber))
	q.Set("page_size", strconv.Itoa(f.PageSize))
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.SubtopicID != "" {
		q.Set("sub_topic_id", f.SubtopicID)
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Hidden != nil {
		q.Set("hidden", strconv.FormatBool(*f.Hidden))
	}

	var page question.Page
	if err := c.do(ctx, http.MethodGet, "/questions", "/questions", q, nil, &page); err != nil {
		return question.Page{}, err
	}
	return page, nil
}

// GetQuestion fetches one question by id.
func (c *Client) GetQuestion(ctx context.Context, id string) (question.Question, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/questions/{id}", "/questions/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return question.Question{}, err
	}
	var q question.Question
	if err := unwrapData(raw, &q); err != nil {
		return question.Question{}, err
	}
	return q, nil
}

// CreateQuestion posts a new question and returns the stored copy.
func (c *Client) CreateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	q.ID = ""
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/questions", "/questions", nil, q, &raw); err != nil {
		return question.Question{}, err
	}
	var created question.Question
	if err := unwrapData(raw, &created); err != nil {
		return question.Question{}, err
	}
	return created, nil
}

type updateQuestionBody struct {
	ID              string         `json:"id"`
	QuestionDetails question.Patch `json:"questionDetails"`
}

// UpdateQuestion replaces the details of question id with the full payload
// of q.
func (c *Client) UpdateQuestion(ctx context.Context, id string, q question.Question) (question.Question, error) {
	p, err := question.PatchOf(q)
	if err != nil {
		return question.Question{}, fmt.Errorf("encode question %s: %w", id, err)
	}
	return c.PatchQuestion(ctx, id, p)
}

// PatchQuestion sends only the members in p; upstream keeps the rest.
func (c *Client) PatchQuestion(ctx context.Context, id string, p question.Patch) (question.Question, error) {
	body := updateQuestionBody{ID: id, QuestionDetails: p}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/questions", "/questions", nil, body, &raw); err != nil {
		return question.Question{}, err
	}
	var updated question.Question
	if err := unwrapData(raw, &updated); err != nil {
		return question.Question{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return updated, nil
}

// DeleteQuestion removes question id.
func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/{id}", "/questions/"+url.PathEscape(id), nil, nil, nil)
}

// LinkSubtopic attaches questionID to subtopicID.
func (c *Client) LinkSubtopic(ctx context.Context, subtopicID, questionID string) error {
	return c.do(ctx, http.MethodPost, "/sub-topics/{subtopicId}/question/{questionId}", linkPath(subtopicID, questionID), nil, nil, nil)
}

// UnlinkSubtopic detaches questionID from subtopicID.
func (c *Client) UnlinkSubtopic(ctx context.Context, subtopicID, questionID string) error {
	return c.do(ctx, http.MethodDelete, "/sub-topics/{subtopicId}/question/{questionId}", linkPath(subtopicID, questionID), nil, nil, nil)
}

// ListSubtopics fetches every subtopic.
func (c *Client) ListSubtopics(ctx context.Context) ([]question.Subtopic, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/sub-topics", "/sub-topics", nil, nil, &raw); err != nil {
		return nil, err
	}
	var subtopics []question.Subtopic
	if err := unwrapData(raw, &subtopics); err != nil {
		return nil, err
	}
	return subtopics, nil
}

func linkPath(subtopicID, questionID string) string {
	return "/sub-topics/" + url.PathEscape(subtopicID) + "/question/" + url.PathEscape(questionID)
}

// unwrapData decodes raw into out, looking inside a top-level "data" member
// when upstream wraps its payload.
func unwrapData(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		if data, ok := envelope["data"]; ok {
			return json.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(raw, out)
}
