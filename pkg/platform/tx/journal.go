package tx

import "context"

type journalKey struct{}

// Journal records undo steps for in-memory state written during one call.
// Revert replays them newest first. A Journal is not safe for concurrent use;
// the ledger lock serializes all calls that share one.
type Journal struct {
	undo     []func()
	onCommit []func()
}

// Append records an undo step.
func (j *Journal) Append(undo func()) {
	j.undo = append(j.undo, undo)
}

// AfterCommit registers fn to run once the call commits. Reverted calls drop it.
func (j *Journal) AfterCommit(fn func()) {
	j.onCommit = append(j.onCommit, fn)
}

// Revert undoes every recorded step in reverse order and empties the journal.
func (j *Journal) Revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	j.onCommit = nil
}

// Commit discards the undo steps and runs the commit hooks in registration order.
func (j *Journal) Commit() {
	hooks := j.onCommit
	j.undo = nil
	j.onCommit = nil
	for _, fn := range hooks {
		fn()
	}
}

// Len returns the number of recorded steps.
func (j *Journal) Len() int {
	return len(j.undo)
}

// WithJournal stores a journal in context for journaled containers.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	if j == nil {
		return ctx
	}
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom extracts the journal from context if present.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}
