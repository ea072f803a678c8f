package repository

import (
	"context"
	"database/sql"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// EventRepo handles the trace journal.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Append stores e. The ordinal is assigned here, one past the session's
// highest, and written back into the returned event.
func (r *EventRepo) Append(ctx context.Context, e Event) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
	INSERT INTO events(id, session_id, generation, ordinal, kind, side, item, pair, phase, seq, buffered, at)
	VALUES (?, ?, ?, (SELECT COALESCE(MAX(ordinal), 0) + 1 FROM events WHERE session_id = ?), ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING ordinal;
	`, e.ID, e.SessionID, e.Generation, e.SessionID, e.Kind, e.Side, e.Item, e.Pair, e.Phase, e.Seq, e.Buffered,
		e.At.UTC().Format(timeLayout))
	if err := row.Scan(&e.Ordinal); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Recent returns up to limit of the session's newest events, oldest first.
func (r *EventRepo) Recent(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, session_id, generation, ordinal, kind, side, item, pair, phase, seq, buffered, at
	FROM (
		SELECT * FROM events WHERE session_id = ? ORDER BY ordinal DESC LIMIT ?
	) ORDER BY ordinal ASC
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e  Event
			at string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Generation, &e.Ordinal, &e.Kind, &e.Side, &e.Item,
			&e.Pair, &e.Phase, &e.Seq, &e.Buffered, &at); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Counts returns how many events of each kind the session holds.
func (r *EventRepo) Counts(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT kind, COUNT(*) FROM events WHERE session_id = ? GROUP BY kind
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		out[kind] = count
	}
	return out, rows.Err()
}

// DeleteSession drops every event of the session and returns how many went.
func (r *EventRepo) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// EnqueuedBySide counts the session's enqueued events per side.
func (r *EventRepo) EnqueuedBySide(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT side, COUNT(*) FROM events WHERE session_id = ? AND kind = 'enqueued' GROUP BY side
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			side  string
			count int
		)
		if err := rows.Scan(&side, &count); err != nil {
			return nil, err
		}
		out[side] = count
	}
	return out, rows.Err()
}
