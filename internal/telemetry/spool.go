package telemetry

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite" // database/sql driver

	"shortfeed/pkg/types"
)

// Spool persists watch events between submission and gateway ack so samples
// pending at shutdown survive to the next start.
type Spool struct{ DB *sql.DB }

func OpenSpool(ctx context.Context, path string) (*Spool, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Spool{DB: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Spool) init(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS view_spool (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  video_id   TEXT NOT NULL,
  duration_s REAL NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	return err
}

func (s *Spool) Add(ctx context.Context, ev types.WatchEvent) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
INSERT INTO view_spool (video_id, duration_s) VALUES ($1,$2)`,
		ev.VideoID, ev.Duration)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Spool) Delete(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM view_spool WHERE id=$1`, id)
	return err
}

type Pending struct {
	ID    int64
	Event types.WatchEvent
}

// Pending returns spooled events oldest-first, preserving submission order.
func (s *Spool) Pending(ctx context.Context, limit int) ([]Pending, error) {
	if limit <= 0 {
		limit = 64
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, video_id, duration_s FROM view_spool ORDER BY id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.ID, &p.Event.VideoID, &p.Event.Duration); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Spool) Close() error { return s.DB.Close() }
