package db

import (
	"context"
	"time"

	"github.com/nicebartender/bci-bridge/bridge"
)

type Dispatch struct {
	ID           int64      `json:"id"`
	Command      string     `json:"command"`
	Strength     float64    `json:"strength"`
	SentStrength float64    `json:"sentStrength"`
	ClassifiedAt *time.Time `json:"classifiedAt,omitempty"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// RecordDispatch implements bridge.Recorder.
func (db *DB) RecordDispatch(ctx context.Context, res bridge.Result) error {
	var classifiedAt *time.Time
	if !res.Command.Timestamp.IsZero() {
		t := res.Command.Timestamp.UTC()
		classifiedAt = &t
	}
	_, err := db.InsertDispatch(ctx, Dispatch{
		Command:      string(res.Command.Kind),
		Strength:     res.Command.Strength,
		SentStrength: res.SentStrength,
		ClassifiedAt: classifiedAt,
		Status:       string(res.Outcome),
		Reason:       res.ReasonText(),
		CreatedAt:    res.At.UTC(),
	})
	return err
}

func (db *DB) InsertDispatch(ctx context.Context, d Dispatch) (*Dispatch, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	r, err := db.ExecContext(ctx, `
		INSERT INTO dispatches (command, strength, sent_strength, classified_at, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.Command, d.Strength, d.SentStrength, d.ClassifiedAt, d.Status, d.Reason, d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.ID, _ = r.LastInsertId()
	return &d, nil
}

// RecentDispatches returns the newest entries first.
func (db *DB) RecentDispatches(ctx context.Context, limit int) ([]Dispatch, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, command, strength, sent_strength, classified_at, status, reason, created_at
		FROM dispatches ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		var d Dispatch
		if err := rows.Scan(&d.ID, &d.Command, &d.Strength, &d.SentStrength, &d.ClassifiedAt, &d.Status, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DispatchCounts returns the number of logged entries per status.
func (db *DB) DispatchCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM dispatches GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
