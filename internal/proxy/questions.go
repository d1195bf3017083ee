package proxy

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/gokatarajesh/quiz-admin/internal/auth"
	"github.com/gokatarajesh/quiz-admin/internal/question"
	httperrors "github.com/gokatarajesh/quiz-admin/pkg/http/errors"
)

type pageResponse struct {
	Data   []map[string]any `json:"data"`
	Amount int              `json:"amount"`
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, field, ok := parseListFilter(q.Get("page_number"), q.Get("page_size"))
	if !ok {
		httperrors.RespondMissingField(w, field, "page_number and page_size are required")
		return
	}
	f.Name = q.Get("name")
	f.SubtopicID = q.Get("sub_topic_id")
	if t := q.Get("type"); t != "" {
		f.Type = question.Type(t)
		if !f.Type.Valid() {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "unknown question type "+t)
			return
		}
	}
	if raw := q.Get("hidden"); raw != "" {
		hidden, err := strconv.ParseBool(raw)
		if err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "hidden must be true or false")
			return
		}
		f.Hidden = &hidden
	}

	page, err := h.client(r).ListQuestions(r.Context(), f)
	if err != nil {
		httperrors.RespondUpstream(w, "Failed to fetch questions", err)
		return
	}
	resp := pageResponse{Data: make([]map[string]any, 0, len(page.Data)), Amount: page.Amount}
	for _, item := range page.Data {
		resp.Data = append(resp.Data, item.View())
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseListFilter returns the name of the first missing or malformed paging
// field when ok is false.
func parseListFilter(number, size string) (question.ListFilter, string, bool) {
	var f question.ListFilter
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n < 0 {
		return f, "page_number", false
	}
	s, err := strconv.Atoi(strings.TrimSpace(size))
	if err != nil || s <= 0 {
		return f, "page_size", false
	}
	f.PageNumber, f.PageSize = n, s
	return f, "", true
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q, err := h.client(r).GetQuestion(r.Context(), id)
	if err != nil {
		httperrors.RespondUpstream(w, "Failed to fetch question", err)
		return
	}
	writeJSON(w, http.StatusOK, q.View())
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q question.Question
	if err := decodeJSON(w, r, &q); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid question body")
		return
	}
	if field, ok := requiredQuestionFields(q); !ok {
		httperrors.RespondMissingField(w, field, field+" is required")
		return
	}

	created, err := h.client(r).CreateQuestion(r.Context(), q)
	if err != nil {
		h.record(r.Context(), "question.create", "question", "", http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to create question", err)
		return
	}
	h.record(r.Context(), "question.create", "question", created.ID, http.StatusCreated, nil)
	writeJSON(w, http.StatusCreated, created.View())
}

type updateQuestionRequest struct {
	ID              string         `json:"id"`
	QuestionDetails question.Patch `json:"questionDetails"`
}

// updateQuestion forwards full or partial updates. Only the members present in
// questionDetails reach upstream, so a bare {hidden: true} toggles visibility
// without touching marks or content.
func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req updateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid question body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		httperrors.RespondMissingField(w, "id", "id is required")
		return
	}
	if field, reason, ok := req.QuestionDetails.Check(); !ok {
		httperrors.RespondMissingField(w, "questionDetails."+field, reason)
		return
	}
	details := req.QuestionDetails.Normalized()
	if len(details) == 0 {
		httperrors.RespondMissingField(w, "questionDetails", "questionDetails is required")
		return
	}

	updated, err := h.client(r).PatchQuestion(r.Context(), req.ID, details)
	if err != nil {
		h.record(r.Context(), "question.update", "question", req.ID, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to update question", err)
		return
	}
	h.record(r.Context(), "question.update", "question", req.ID, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, updated.View())
}

// requiredQuestionFields checks what upstream cannot store without. Full
// editor validation happens before the dashboard submits.
func requiredQuestionFields(q question.Question) (string, bool) {
	switch {
	case strings.TrimSpace(q.Title) == "":
		return "title", false
	case strings.TrimSpace(q.Content) == "":
		return "content", false
	case !q.Type.Valid():
		return "type", false
	}
	return "", true
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.client(r).DeleteQuestion(r.Context(), id); err != nil {
		h.record(r.Context(), "question.delete", "question", id, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to delete question", err)
		return
	}
	h.record(r.Context(), "question.delete", "question", id, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) listSubtopics(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	subtopics, err := h.subtopics.List(r.Context(), token, h.client(r))
	if err != nil {
		httperrors.RespondUpstream(w, "Failed to fetch sub-topics", err)
		return
	}
	writeJSON(w, http.StatusOK, subtopics)
}

func (h *Handler) linkSubtopic(w http.ResponseWriter, r *http.Request) {
	h.changeLink(w, r, false)
}

func (h *Handler) unlinkSubtopic(w http.ResponseWriter, r *http.Request) {
	h.changeLink(w, r, true)
}

func (h *Handler) changeLink(w http.ResponseWriter, r *http.Request, unlink bool) {
	vars := mux.Vars(r)
	subtopicID, questionID := vars["subtopicId"], vars["questionId"]

	action, operation := "subtopic.link", "Failed to link sub-topic"
	call := h.client(r).LinkSubtopic
	if unlink {
		action, operation = "subtopic.unlink", "Failed to unlink sub-topic"
		call = h.client(r).UnlinkSubtopic
	}

	resourceID := subtopicID + "/" + questionID
	if err := call(r.Context(), subtopicID, questionID); err != nil {
		h.record(r.Context(), action, "question_subtopic", resourceID, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, operation, err)
		return
	}
	h.record(r.Context(), action, "question_subtopic", resourceID, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
