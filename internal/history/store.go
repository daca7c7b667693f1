package history

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Store keeps a log of confirmed crops in PostgreSQL. A single connection
// is shared, so calls are serialized.
type Store struct {
	mu   sync.Mutex
	conn *pgx.Conn
}

type Entry struct {
	ID          int64
	ImagePath   string
	Target      string
	Crop        image.Rectangle
	Faces       int
	Orientation int
	CreatedAt   time.Time
}

// New connects and creates the schema when missing.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS crop_results (
			id BIGSERIAL PRIMARY KEY,
			image_path TEXT NOT NULL,
			target TEXT NOT NULL,
			crop INT[] NOT NULL,
			faces INT NOT NULL DEFAULT 0,
			orientation INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS crop_results_image_path_idx ON crop_results (image_path);
	`)
	return err
}

func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.Close(ctx)
}

func rectToArray(r image.Rectangle) []int32 {
	return []int32{int32(r.Min.X), int32(r.Min.Y), int32(r.Max.X), int32(r.Max.Y)}
}

func arrayToRect(a []int32) image.Rectangle {
	if len(a) != 4 {
		return image.Rectangle{}
	}
	return image.Rect(int(a[0]), int(a[1]), int(a[2]), int(a[3]))
}

func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id int64
	err := s.conn.QueryRow(ctx, `
		INSERT INTO crop_results (image_path, target, crop, faces, orientation)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.ImagePath, e.Target, rectToArray(e.Crop), e.Faces, e.Orientation).Scan(&id)
	return id, err
}

// List returns the most recent entries first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, image_path, target, crop, faces, orientation, created_at
		FROM crop_results ORDER BY created_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var crop []int32
		if err := rows.Scan(&e.ID, &e.ImagePath, &e.Target, &crop, &e.Faces, &e.Orientation, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Crop = arrayToRect(crop)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(ctx, `DROP TABLE IF EXISTS crop_results CASCADE;`)
	return err
}
