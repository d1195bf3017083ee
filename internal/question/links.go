package question

import (
	"context"
	"fmt"
	"sort"
)

// Mode tells the reconciler how the persisted snapshot relates to the question
// being saved.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	// ModeDuplicate copies every source link onto a fresh question. Nothing is
	// ever unlinked.
	ModeDuplicate Mode = "duplicate"
)

// Linker issues the two upstream link calls.
type Linker interface {
	LinkSubtopic(ctx context.Context, subtopicID, questionID string) error
	UnlinkSubtopic(ctx context.Context, subtopicID, questionID string) error
}

// Op is one link or unlink call in a batch.
type Op struct {
	Unlink     bool
	SubtopicID string
}

func (o Op) String() string {
	if o.Unlink {
		return "unlink " + o.SubtopicID
	}
	return "link " + o.SubtopicID
}

// LinkPlan is the minimal set of operations to reach the desired state.
type LinkPlan struct {
	ToLink   []string
	ToUnlink []string
}

// Empty reports whether the plan issues no calls.
func (p LinkPlan) Empty() bool {
	return len(p.ToLink) == 0 && len(p.ToUnlink) == 0
}

// Ops flattens the plan into execution order: links first, then unlinks.
func (p LinkPlan) Ops() []Op {
	ops := make([]Op, 0, len(p.ToLink)+len(p.ToUnlink))
	for _, id := range p.ToLink {
		ops = append(ops, Op{SubtopicID: id})
	}
	for _, id := range p.ToUnlink {
		ops = append(ops, Op{Unlink: true, SubtopicID: id})
	}
	return ops
}

// BatchResult records what a reconcile run did.
type BatchResult struct {
	Applied []Op
	Failed  *Op
	Skipped []Op
}

// PartialFailureError is returned when a batch stops early. Applied operations
// are not rolled back.
type PartialFailureError struct {
	QuestionID string
	Result     BatchResult
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("reconcile subtopics for question %s: %s failed after %d applied, %d skipped: %v",
		e.QuestionID, e.Result.Failed, len(e.Result.Applied), len(e.Result.Skipped), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Links tracks desired subtopic links against the last persisted snapshot.
type Links struct {
	desired   map[string]struct{}
	persisted map[string]struct{}
}

// NewLinks starts with persisted as both the snapshot and the desired state.
func NewLinks(persisted ...string) *Links {
	l := &Links{}
	l.Snapshot(persisted)
	return l
}

// Snapshot resets both sets to ids, as done when a question is loaded.
func (l *Links) Snapshot(ids []string) {
	l.desired = toSet(ids)
	l.persisted = toSet(ids)
}

// Reset clears both sets.
func (l *Links) Reset() {
	l.Snapshot(nil)
}

// Add marks a subtopic as desired.
func (l *Links) Add(id string) {
	if id == "" {
		return
	}
	l.ensure()
	l.desired[id] = struct{}{}
}

// Remove drops a subtopic from the desired set.
func (l *Links) Remove(id string) {
	l.ensure()
	delete(l.desired, id)
}

// Desired returns the desired ids sorted.
func (l *Links) Desired() []string { return sortedKeys(l.desired) }

// Persisted returns the snapshot ids sorted.
func (l *Links) Persisted() []string { return sortedKeys(l.persisted) }

// Pending is the number of subtopics the editor intends to be linked.
func (l *Links) Pending() int { return len(l.desired) }

// Plan diffs desired against persisted.
func (l *Links) Plan(mode Mode) LinkPlan {
	if mode == ModeDuplicate {
		return LinkPlan{ToLink: sortedKeys(l.desired)}
	}
	return LinkPlan{
		ToLink:   difference(l.desired, l.persisted),
		ToUnlink: difference(l.persisted, l.desired),
	}
}

// Reconcile issues the plan against questionID one call at a time and stops at
// the first failure, so unlinks are never attempted after a failed link.
// Applied operations are folded into the persisted snapshot; a second call
// without desired-state changes issues nothing.
func (l *Links) Reconcile(ctx context.Context, linker Linker, questionID string, mode Mode) (BatchResult, error) {
	l.ensure()
	plan := l.Plan(mode)
	if mode == ModeDuplicate {
		// The fresh question carries no links yet.
		l.persisted = map[string]struct{}{}
	}

	ops := plan.Ops()
	var result BatchResult
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return l.fail(questionID, result, op, ops[i+1:], err)
		}
		var err error
		if op.Unlink {
			err = linker.UnlinkSubtopic(ctx, op.SubtopicID, questionID)
		} else {
			err = linker.LinkSubtopic(ctx, op.SubtopicID, questionID)
		}
		if err != nil {
			return l.fail(questionID, result, op, ops[i+1:], err)
		}
		l.apply(op)
		result.Applied = append(result.Applied, op)
	}
	return result, nil
}

func (l *Links) fail(questionID string, result BatchResult, op Op, rest []Op, err error) (BatchResult, error) {
	failed := op
	result.Failed = &failed
	result.Skipped = append([]Op(nil), rest...)
	return result, &PartialFailureError{QuestionID: questionID, Result: result, Err: err}
}

func (l *Links) apply(op Op) {
	if op.Unlink {
		delete(l.persisted, op.SubtopicID)
		return
	}
	l.persisted[op.SubtopicID] = struct{}{}
}

func (l *Links) ensure() {
	if l.desired == nil {
		l.desired = map[string]struct{}{}
	}
	if l.persisted == nil {
		l.persisted = map[string]struct{}{}
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func difference(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
