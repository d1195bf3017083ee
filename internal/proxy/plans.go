package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gokatarajesh/quiz-admin/internal/plan"
	httperrors "github.com/gokatarajesh/quiz-admin/pkg/http/errors"
)

// planEnvelope is the response shape of every plan route. Total counts plans;
// Hidden and Visible count their valid created questions.
type planEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Total   int  `json:"total"`
	Hidden  int  `json:"hidden"`
	Visible int  `json:"visible"`
}

func envelope(data any, plans ...plan.Plan) planEnvelope {
	s := plan.Summarize(plans...)
	return planEnvelope{
		Success: true,
		Data:    data,
		Total:   s.Total,
		Hidden:  s.Hidden,
		Visible: s.Visible,
	}
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.client(r).ListPlans(r.Context(), r.URL.Query())
	if err != nil {
		httperrors.RespondUpstream(w, "Failed to fetch question plans", err)
		return
	}
	if plans == nil {
		plans = []plan.Plan{}
	}
	writeJSON(w, http.StatusOK, envelope(plans, plans...))
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.client(r).GetPlan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httperrors.RespondUpstream(w, "Failed to fetch question plan", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(p, p))
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req plan.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid question plan body")
		return
	}
	if req.BannedList == nil {
		req.BannedList = []string{}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	if err := req.Validate(); err != nil {
		respondPlanValidation(w, err)
		return
	}

	p, err := h.client(r).CreatePlan(r.Context(), req)
	if err != nil {
		h.record(r.Context(), "plan.create", "plan", "", http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to create question plan", err)
		return
	}
	h.record(r.Context(), "plan.create", "plan", p.ID, http.StatusCreated, nil)
	writeJSON(w, http.StatusCreated, envelope(p, p))
}

// updatePlan accepts the plan as the dashboard holds it, with created entries
// embedded, and reshapes it to references before forwarding. Members left out
// of the body are not sent, so upstream keeps their stored values.
func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid question plan body")
		return
	}
	patch, err := plan.NewPatch(body)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid question plan body: "+err.Error())
		return
	}
	if len(patch) == 0 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "no updatable question plan fields")
		return
	}
	if err := patch.Validate(); err != nil {
		respondPlanValidation(w, err)
		return
	}

	updated, err := h.client(r).PatchPlan(r.Context(), id, patch)
	if err != nil {
		h.record(r.Context(), "plan.update", "plan", id, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to update question plan", err)
		return
	}
	h.record(r.Context(), "plan.update", "plan", id, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, envelope(updated, updated))
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.client(r).DeletePlan(r.Context(), id); err != nil {
		h.record(r.Context(), "plan.delete", "plan", id, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to delete question plan", err)
		return
	}
	h.record(r.Context(), "plan.delete", "plan", id, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, envelope(nil))
}

func (h *Handler) generatePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req plan.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid generate body")
		return
	}
	if req.Limit <= 0 {
		httperrors.RespondMissingField(w, "limit", "limit must be a positive integer")
		return
	}

	raw, err := h.client(r).GeneratePlan(r.Context(), id, req.Limit)
	if err != nil {
		h.record(r.Context(), "plan.generate", "plan", id, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to generate questions", err)
		return
	}
	h.record(r.Context(), "plan.generate", "plan", id, http.StatusOK, nil)

	// Upstream may answer with the refreshed plan; count it when it does.
	var p plan.Plan
	if json.Unmarshal(raw, &p) == nil && p.ID != "" {
		writeJSON(w, http.StatusOK, envelope(raw, p))
		return
	}
	writeJSON(w, http.StatusOK, envelope(raw))
}

// pruneCreated removes one created entry, matched by question id or index,
// and saves the plan. With ?deleteQuestion=true the referenced question is
// deleted too; that delete is best effort.
func (h *Handler) pruneCreated(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, key := vars["id"], vars["key"]
	client := h.client(r)

	p, err := client.GetPlan(r.Context(), id)
	if err != nil {
		httperrors.RespondUpstream(w, "Failed to fetch question plan", err)
		return
	}

	var deleter plan.QuestionDeleter
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("deleteQuestion")); ok {
		deleter = client
	}
	removed := plan.Prune(r.Context(), &p, key, deleter)
	if len(removed) == 0 {
		httperrors.RespondNotFound(w, "created entry "+key+" not found")
		return
	}

	updated, err := client.UpdatePlan(r.Context(), id, p.UpdateRequest())
	if err != nil {
		h.record(r.Context(), "plan.prune", "plan", id, http.StatusInternalServerError, err)
		httperrors.RespondUpstream(w, "Failed to update question plan", err)
		return
	}
	h.record(r.Context(), "plan.prune", "plan", id, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, envelope(updated, updated))
}

func respondPlanValidation(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrSubtopicRequired):
		httperrors.RespondMissingField(w, "subTopicId", err.Error())
	case errors.Is(err, plan.ErrPromptRequired):
		httperrors.RespondMissingField(w, "prompt", err.Error())
	default:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
	}
}
