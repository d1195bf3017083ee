package proxy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/audit"
	"github.com/gokatarajesh/quiz-admin/internal/auth"
	"github.com/gokatarajesh/quiz-admin/internal/subtopic"
	"github.com/gokatarajesh/quiz-admin/internal/upstream"
)

// Handler forwards dashboard calls upstream with the caller's bearer token
// and normalizes responses.
type Handler struct {
	upstream  *upstream.Client
	subtopics *subtopic.Service
	audit     audit.Recorder
	logger    zerolog.Logger
}

// Options carries the optional collaborators of a Handler.
type Options struct {
	Subtopics *subtopic.Service
	Audit     audit.Recorder
}

func NewHandler(client *upstream.Client, opts Options, logger zerolog.Logger) *Handler {
	logger = logger.With().Str("component", "proxy").Logger()
	if opts.Subtopics == nil {
		opts.Subtopics = subtopic.NewService(nil, logger)
	}
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	return &Handler{
		upstream:  client,
		subtopics: opts.Subtopics,
		audit:     opts.Audit,
		logger:    logger,
	}
}

// Register mounts every proxy route on r. Callers wrap r with RequireBearer.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/questions", h.listQuestions).Methods(http.MethodGet)
	r.HandleFunc("/questions", h.createQuestion).Methods(http.MethodPost)
	r.HandleFunc("/questions", h.updateQuestion).Methods(http.MethodPut)
	r.HandleFunc("/questions/{id}", h.getQuestion).Methods(http.MethodGet)
	r.HandleFunc("/questions/{id}", h.deleteQuestion).Methods(http.MethodDelete)

	r.HandleFunc("/sub-topics", h.listSubtopics).Methods(http.MethodGet)
	r.HandleFunc("/sub-topics/{subtopicId}/question/{questionId}", h.linkSubtopic).Methods(http.MethodPost)
	r.HandleFunc("/sub-topics/{subtopicId}/question/{questionId}", h.unlinkSubtopic).Methods(http.MethodDelete)

	r.HandleFunc("/question-plans", h.listPlans).Methods(http.MethodGet)
	r.HandleFunc("/question-plans", h.createPlan).Methods(http.MethodPost)
	r.HandleFunc("/question-plans/{id}", h.getPlan).Methods(http.MethodGet)
	r.HandleFunc("/question-plans/{id}", h.updatePlan).Methods(http.MethodPut)
	r.HandleFunc("/question-plans/{id}", h.deletePlan).Methods(http.MethodDelete)
	r.HandleFunc("/question-plans/{id}/generate", h.generatePlan).Methods(http.MethodPost)
	r.HandleFunc("/question-plans/{id}/created/{key}", h.pruneCreated).Methods(http.MethodDelete)
}

// client binds the shared upstream client to the caller's token.
func (h *Handler) client(r *http.Request) *upstream.Client {
	token, _ := auth.TokenFromContext(r.Context())
	return h.upstream.WithToken(token)
}

func (h *Handler) record(ctx context.Context, action, resource, resourceID string, status int, err error) {
	e := audit.Entry{
		RequestID:  RequestID(ctx),
		Actor:      auth.Actor(ctx),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Status:     status,
	}
	if err != nil {
		e.Error = err.Error()
	}
	h.audit.Record(ctx, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
