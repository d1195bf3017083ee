package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/db/repository"
)

// Entry describes one mutating call made through the proxy.
type Entry struct {
	RequestID  string
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Status     int
	Error      string
	At         time.Time
}

// Recorder accepts audit entries. Recording never fails the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

type store interface {
	Insert(ctx context.Context, row repository.AuditRow) error
}

// Journal queues entries and writes them to Postgres from Run.
type Journal struct {
	store   store
	queue   chan Entry
	timeout time.Duration
	logger  zerolog.Logger
}

var _ Recorder = (*Journal)(nil)

// JournalOptions tunes the write queue.
type JournalOptions struct {
	QueueSize    int
	WriteTimeout time.Duration
}

func NewJournal(s store, opts JournalOptions, logger zerolog.Logger) *Journal {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	return &Journal{
		store:   s,
		queue:   make(chan Entry, opts.QueueSize),
		timeout: opts.WriteTimeout,
		logger:  logger.With().Str("component", "audit_journal").Logger(),
	}
}

// Record enqueues e, dropping it when the queue is full.
func (j *Journal) Record(_ context.Context, e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case j.queue <- e:
	default:
		j.logger.Warn().Str("action", e.Action).Str("resource_id", e.ResourceID).Msg("audit queue full, entry dropped")
	}
}

// Run drains the queue until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			j.flush()
			return ctx.Err()
		case e := <-j.queue:
			j.write(e)
		}
	}
}

func (j *Journal) flush() {
	for {
		select {
		case e := <-j.queue:
			j.write(e)
		default:
			return
		}
	}
}

func (j *Journal) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.store.Insert(ctx, repository.AuditRow{
		RequestID:  e.RequestID,
		Actor:      e.Actor,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Status:     e.Status,
		Error:      e.Error,
		CreatedAt:  e.At,
	})
	if err != nil {
		j.logger.Warn().Err(err).Str("action", e.Action).Msg("audit write failed")
	}
}
