package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/AlexTLDR/memories/internal/media"
)

// SaveSnapshot replaces the stored collections with snap in one
// transaction and records the run.
func (db *DB) SaveSnapshot(ctx context.Context, snap Snapshot) (*Run, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"guests", "wishes", "rsvps", "media"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := db.insertGuests(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := db.insertWishes(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := db.insertRSVPs(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := db.insertMedia(ctx, tx, snap); err != nil {
		return nil, err
	}

	run := &Run{
		ID:      uuid.NewString(),
		TakenAt: snap.TakenAt.UTC(),
		Guests:  len(snap.Guests),
		Wishes:  len(snap.Wishes),
		RSVPs:   len(snap.RSVPs),
		Media:   len(snap.Media),
	}
	_, err = tx.ExecContext(ctx, db.rebind(
		`INSERT INTO snapshot_runs (id, taken_at, guests, wishes, rsvps, media) VALUES (?, ?, ?, ?, ?, ?)`),
		run.ID, run.TakenAt, run.Guests, run.Wishes, run.RSVPs, run.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to record snapshot run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return run, nil
}

func (db *DB) insertGuests(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, db.rebind(
		`INSERT INTO guests (id, name, selfie_photo, joined_at, last_login, last_activity, uploads_count, wishes_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare guest insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range snap.Guests {
		var lastActivity sql.NullTime
		if g.LastActivity != nil {
			lastActivity = sql.NullTime{Time: g.LastActivity.UTC(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, g.ID, g.Name, g.SelfiePhoto, g.JoinedAt.UTC(), g.LastLogin.UTC(),
			lastActivity, g.UploadsCount, g.WishesCount); err != nil {
			return fmt.Errorf("failed to insert guest %s: %w", g.ID, err)
		}
	}
	return nil
}

func (db *DB) insertWishes(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, db.rebind(
		`INSERT INTO wishes (position, id, name, message, submitted_by, submitted_by_id, submitted_by_type, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare wish insert: %w", err)
	}
	defer stmt.Close()

	for i, w := range snap.Wishes {
		if _, err := stmt.ExecContext(ctx, i, w.ID, w.Name, w.Message, w.SubmittedBy, w.SubmittedByID,
			w.SubmittedByType, w.SubmittedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert wish %d: %w", i, err)
		}
	}
	return nil
}

func (db *DB) insertRSVPs(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, db.rebind(
		`INSERT INTO rsvps (position, id, guest_name, email, phone, rsvp_status, additional_guests, message, submitted_at, ip_address)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare rsvp insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range snap.RSVPs {
		additional, err := json.Marshal(r.AdditionalGuests)
		if err != nil {
			return fmt.Errorf("failed to encode additional guests: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.GuestName, r.Email, r.Phone, string(r.RSVPStatus),
			string(additional), r.Message, r.SubmittedAt.UTC(), r.IPAddress); err != nil {
			return fmt.Errorf("failed to insert rsvp %d: %w", i, err)
		}
	}
	return nil
}

func (db *DB) insertMedia(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, db.rebind(
		`INSERT INTO media (name, content_type, size, created_at, uploaded_by, uploaded_by_id, uploaded_by_type, original_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare media insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range snap.Media {
		label, _ := media.UploaderLabel(o)
		if _, err := stmt.ExecContext(ctx, o.Name, o.ContentType, o.Size, o.Created.UTC(), label,
			o.Metadata[media.MetaUploadedByID], o.Metadata[media.MetaUploadedByType],
			o.Metadata[media.MetaOriginalName]); err != nil {
			return fmt.Errorf("failed to insert media %s: %w", o.Name, err)
		}
	}
	return nil
}

// LatestRun returns the most recent snapshot run.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	run := &Run{}
	err := db.QueryRowContext(ctx,
		`SELECT id, taken_at, guests, wishes, rsvps, media FROM snapshot_runs ORDER BY taken_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.TakenAt, &run.Guests, &run.Wishes, &run.RSVPs, &run.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot run: %w", err)
	}
	return run, nil
}

// CountRows counts the rows of one snapshot table.
func (db *DB) CountRows(ctx context.Context, table string) (int, error) {
	switch table {
	case "guests", "wishes", "rsvps", "media", "snapshot_runs":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
