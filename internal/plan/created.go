package plan

import (
	"context"
	"strconv"

	"github.com/gokatarajesh/quiz-admin/internal/logging"
)

// QuestionDeleter removes a question upstream.
type QuestionDeleter interface {
	DeleteQuestion(ctx context.Context, id string) error
}

// ValidEntries returns the created entries that reference a usable question.
func (p *Plan) ValidEntries() []CreatedEntry {
	var out []CreatedEntry
	for _, e := range p.Created {
		if !e.Corrupted() {
			out = append(out, e)
		}
	}
	return out
}

// CorruptedEntries returns the created entries that cannot be rendered.
func (p *Plan) CorruptedEntries() []CreatedEntry {
	var out []CreatedEntry
	for _, e := range p.Created {
		if e.Corrupted() {
			out = append(out, e)
		}
	}
	return out
}

// RemoveCreated drops the entries whose question id equals key. When no entry
// carries that id and key is a position in the list, the entry at that index
// is dropped instead. The removed entries are returned.
func (p *Plan) RemoveCreated(key string) []CreatedEntry {
	var kept, removed []CreatedEntry
	if key != "" {
		for _, e := range p.Created {
			if e.ID() == key {
				removed = append(removed, e)
			} else {
				kept = append(kept, e)
			}
		}
	}
	if len(removed) > 0 {
		p.Created = kept
		return removed
	}

	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || idx >= len(p.Created) {
		return nil
	}
	removed = []CreatedEntry{p.Created[idx]}
	p.Created = append(p.Created[:idx:idx], p.Created[idx+1:]...)
	return removed
}

// Prune removes the entry matching key and, when deleter is set, fires a delete
// for every removed question that still has an id. Delete failures are logged
// and never undo the removal.
func Prune(ctx context.Context, p *Plan, key string, deleter QuestionDeleter) []CreatedEntry {
	removed := p.RemoveCreated(key)
	if deleter == nil {
		return removed
	}
	logger := logging.FromContext(ctx)
	for _, e := range removed {
		id := e.ID()
		if id == "" {
			continue
		}
		if err := deleter.DeleteQuestion(ctx, id); err != nil {
			logger.Warn().Err(err).Str("plan_id", p.ID).Str("question_id", id).Msg("best-effort question delete failed")
		}
	}
	return removed
}
