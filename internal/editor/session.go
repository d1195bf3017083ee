package editor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/question"
)

var (
	// ErrSubmitInProgress rejects a submit issued while another is in flight.
	ErrSubmitInProgress = errors.New("submit already in progress")
	// ErrMissingID is returned when upstream stores a question without an id.
	ErrMissingID = errors.New("upstream returned a question without id")
)

// Store persists questions and their subtopic links. *upstream.Client
// satisfies it once bound to a token.
type Store interface {
	CreateQuestion(ctx context.Context, q question.Question) (question.Question, error)
	UpdateQuestion(ctx context.Context, id string, q question.Question) (question.Question, error)
	question.Linker
}

// Options configures a Session.
type Options struct {
	Draft question.DraftOptions
	// OnReconcile, when set, receives the outcome of every link batch.
	OnReconcile func(mode question.Mode, result question.BatchResult)
}

// Result is what a successful or partially successful submit produced.
type Result struct {
	Question question.Question
	Links    question.BatchResult
}

// Session is the editing state of one question form: the draft, its desired
// subtopic links and the mode the form was opened in. Reset it whenever the
// edited entity changes.
type Session struct {
	draft *question.Draft
	links *question.Links
	mode  question.Mode

	store       Store
	onReconcile func(question.Mode, question.BatchResult)
	submitting  atomic.Bool
	logger      zerolog.Logger
}

func NewSession(store Store, opts Options, logger zerolog.Logger) *Session {
	return &Session{
		draft:       question.NewDraft(opts.Draft),
		links:       question.NewLinks(),
		mode:        question.ModeCreate,
		store:       store,
		onReconcile: opts.OnReconcile,
		logger:      logger.With().Str("component", "editor_session").Logger(),
	}
}

func (s *Session) Draft() *question.Draft { return s.draft }
func (s *Session) Links() *question.Links { return s.links }
func (s *Session) Mode() question.Mode    { return s.mode }
func (s *Session) Submitting() bool       { return s.submitting.Load() }

// Load opens q for editing, or as a template for a new question. Outside
// edit mode the id is dropped and q's links are only desired, not persisted.
func (s *Session) Load(q question.Question, mode question.Mode) {
	s.draft.Load(q)
	s.mode = mode
	if mode == question.ModeEdit {
		s.links.Snapshot(q.SubtopicIDs)
		return
	}
	s.draft.ID = ""
	s.links.Reset()
	for _, id := range q.SubtopicIDs {
		s.links.Add(id)
	}
}

// Reset clears the form back to a blank create.
func (s *Session) Reset() {
	s.draft.Reset()
	s.links.Reset()
	s.mode = question.ModeCreate
}

// Submit validates the draft, saves it and reconciles subtopic links. A
// *question.PartialFailureError leaves the question saved and the session in
// edit mode so a retry only issues the remaining link calls.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return Result{}, ErrSubmitInProgress
	}
	defer s.submitting.Store(false)

	if err := s.draft.Validate(s.links.Pending()); err != nil {
		return Result{}, err
	}

	q := s.draft.Question()
	var (
		saved question.Question
		err   error
	)
	if s.mode == question.ModeEdit && q.ID != "" {
		saved, err = s.store.UpdateQuestion(ctx, q.ID, q)
		if err == nil && saved.ID == "" {
			saved.ID = q.ID
		}
	} else {
		saved, err = s.store.CreateQuestion(ctx, q)
	}
	if err != nil {
		return Result{}, fmt.Errorf("save question: %w", err)
	}
	if saved.ID == "" {
		return Result{}, ErrMissingID
	}
	s.draft.ID = saved.ID

	mode := s.mode
	batch, err := s.links.Reconcile(ctx, s.store, saved.ID, mode)
	if mode != question.ModeEdit {
		s.mode = question.ModeEdit
	}
	if s.onReconcile != nil {
		s.onReconcile(mode, batch)
	}

	res := Result{Question: saved, Links: batch}
	if err != nil {
		s.logger.Warn().Err(err).Str("question_id", saved.ID).Msg("subtopic reconcile incomplete")
		return res, err
	}
	s.logger.Debug().
		Str("question_id", saved.ID).
		Str("mode", string(mode)).
		Int("link_ops", len(batch.Applied)).
		Msg("question submitted")
	return res, nil
}
