package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/quiz-admin/internal/db/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, row repository.AuditRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestJournalWritesQueuedEntries(t *testing.T) {
	store := new(mockStore)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store.On("Insert", mock.Anything, repository.AuditRow{
		RequestID:  "r1",
		Actor:      "admin",
		Action:     "question.create",
		Resource:   "question",
		ResourceID: "q1",
		Status:     201,
		CreatedAt:  at,
	}).Return(nil).Once()

	j := NewJournal(store, JournalOptions{QueueSize: 4}, zerolog.Nop())
	j.Record(context.Background(), Entry{
		RequestID: "r1", Actor: "admin", Action: "question.create",
		Resource: "question", ResourceID: "q1", Status: 201, At: at,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := j.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	store.AssertExpectations(t)
}

func TestJournalDropsWhenFull(t *testing.T) {
	store := new(mockStore)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)

	j := NewJournal(store, JournalOptions{QueueSize: 1}, zerolog.Nop())
	j.Record(context.Background(), Entry{Action: "a"})
	j.Record(context.Background(), Entry{Action: "b"})

	assert.Len(t, j.queue, 1)
	e := <-j.queue
	assert.Equal(t, "a", e.Action)
	assert.False(t, e.At.IsZero())
}

func TestJournalSurvivesWriteErrors(t *testing.T) {
	store := new(mockStore)
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db gone")).Twice()

	j := NewJournal(store, JournalOptions{}, zerolog.Nop())
	j.Record(context.Background(), Entry{Action: "a"})
	j.Record(context.Background(), Entry{Action: "b"})
	j.flush()

	store.AssertNumberOfCalls(t, "Insert", 2)
}

func TestRetentionTick(t *testing.T) {
	store := new(mockStore)
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	store.On("DeleteBefore", mock.Anything, now.Add(-72*time.Hour)).Return(int64(3), nil).Once()

	w := NewRetentionWorker(store, 72*time.Hour, time.Minute, zerolog.Nop())
	w.now = func() time.Time { return now }
	w.tick(context.Background())

	store.AssertExpectations(t)
}

func TestRetentionDisabled(t *testing.T) {
	store := new(mockStore)
	w := NewRetentionWorker(store, 0, time.Minute, zerolog.Nop())
	assert.NoError(t, w.Run(context.Background()))
	store.AssertNotCalled(t, "DeleteBefore", mock.Anything, mock.Anything)
}
