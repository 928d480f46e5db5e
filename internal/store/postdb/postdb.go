package postdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"chirpd/internal/model"
)

// ErrNotFound is returned when a post id has no row.
var ErrNotFound = errors.New("post not found")

// DB wraps the SQLite database holding posts and limiter admissions.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS posts (
	  id TEXT PRIMARY KEY,
	  author_id TEXT NOT NULL,
	  content TEXT NOT NULL,
	  created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id, created_at);
	CREATE TABLE IF NOT EXISTS admissions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  key TEXT NOT NULL,
	  ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_admissions_key_ts ON admissions(key, ts);
	`)
	return err
}

// Insert stores a new post.
func (d *DB) Insert(ctx context.Context, p model.Post) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO posts(id, author_id, content, created_at) VALUES(?,?,?,?)`,
		p.ID, p.AuthorID, p.Content, p.CreatedAt.UnixNano())
	return err
}

// Delete removes a post by id. Returns ErrNotFound when no row went away.
func (d *DB) Delete(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM posts WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) GetByID(ctx context.Context, id string) (model.Post, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT id, author_id, content, created_at FROM posts WHERE id=?`, id)
	return scanPost(row)
}

// ListAll returns the newest posts, newest first, bounded to limit.
func (d *DB) ListAll(ctx context.Context, limit int) ([]model.Post, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, author_id, content, created_at FROM posts ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// ListByAuthor returns an author's newest posts, newest first, bounded to limit.
func (d *DB) ListByAuthor(ctx context.Context, authorID string, limit int) ([]model.Post, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, author_id, content, created_at FROM posts WHERE author_id=? ORDER BY created_at DESC, id LIMIT ?`,
		authorID, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// AdmitWithin counts admissions for key newer than windowStart and, if
// the count is below capacity, records a new admission at now. Check
// and record run in one transaction so the capacity bound holds under
// concurrent callers. On rejection the oldest in-window admission time
// is returned so callers can compute retry advice.
func (d *DB) AdmitWithin(ctx context.Context, key string, windowStart, now time.Time, capacity int) (bool, time.Time, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return false, time.Time{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	var oldestNS int64
	row := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MIN(ts), 0) FROM admissions WHERE key=? AND ts>?`,
		key, windowStart.UnixNano())
	if err := row.Scan(&count, &oldestNS); err != nil {
		return false, time.Time{}, err
	}
	if count >= capacity {
		if err := tx.Commit(); err != nil {
			return false, time.Time{}, err
		}
		return false, time.Unix(0, oldestNS).UTC(), nil
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO admissions(key, ts) VALUES(?,?)`, key, now.UnixNano()); err != nil {
		return false, time.Time{}, err
	}
	// expired rows for this key are dead weight
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM admissions WHERE key=? AND ts<=?`, key, windowStart.UnixNano()); err != nil {
		return false, time.Time{}, err
	}
	if err := tx.Commit(); err != nil {
		return false, time.Time{}, err
	}
	return true, time.Time{}, nil
}

func scanPost(row *sql.Row) (model.Post, error) {
	var p model.Post
	var ns int64
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &ns); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrNotFound
		}
		return p, err
	}
	p.CreatedAt = time.Unix(0, ns).UTC()
	return p, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		var ns int64
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &ns); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(0, ns).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
