package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/zipdemo/internal/database"
	"github.com/jask/zipdemo/internal/database/repository"
	"github.com/jask/zipdemo/internal/engine"
)

// Journal stores the engine's transitions for one run of the program.
type Journal struct {
	Events  *repository.EventRepo
	Session string
}

// NewJournal starts a journal with a fresh session id.
func NewJournal(events *repository.EventRepo) *Journal {
	return &Journal{Events: events, Session: uuid.NewString()}
}

// JournalStats summarises a session.
type JournalStats struct {
	EmittedA int
	EmittedB int
	Pairs    int
	Commits  int
	Resets   int
	Total    int
}

// Record implements engine.Recorder.
func (j *Journal) Record(ctx context.Context, r engine.Record) error {
	if j.Events == nil {
		return fmt.Errorf("journal: events repo not configured")
	}
	at := r.At
	if at.IsZero() {
		at = database.Now()
	}
	_, err := j.Events.Append(ctx, repository.Event{
		ID:         uuid.NewString(),
		SessionID:  j.Session,
		Generation: r.Generation,
		Kind:       r.Kind,
		Side:       r.Side,
		Item:       r.Item,
		Pair:       r.Pair,
		Phase:      r.Phase,
		Seq:        r.Seq,
		Buffered:   r.Buffered,
		At:         at,
	})
	if err != nil {
		return fmt.Errorf("journal: append %s: %w", r.Kind, err)
	}
	return nil
}

// Recent returns up to limit of the newest events, oldest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]repository.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	return j.Events.Recent(ctx, j.Session, limit)
}

// Stats counts the session's events.
func (j *Journal) Stats(ctx context.Context) (JournalStats, error) {
	counts, err := j.Events.Counts(ctx, j.Session)
	if err != nil {
		return JournalStats{}, fmt.Errorf("journal: counts: %w", err)
	}
	sides, err := j.Events.EnqueuedBySide(ctx, j.Session)
	if err != nil {
		return JournalStats{}, fmt.Errorf("journal: sides: %w", err)
	}
	st := JournalStats{
		EmittedA: sides["a"],
		EmittedB: sides["b"],
		Pairs:    counts["buffered"],
		Commits:  counts["committed"],
		Resets:   counts["reset"],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

// Clear drops everything recorded so far.
func (j *Journal) Clear(ctx context.Context) (int64, error) {
	return j.Events.DeleteSession(ctx, j.Session)
}
