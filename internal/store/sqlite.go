package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS applications (
	id              TEXT PRIMARY KEY,
	company_name    TEXT NOT NULL DEFAULT '',
	job_title       TEXT NOT NULL DEFAULT '',
	job_description TEXT NOT NULL DEFAULT '',
	cover_letter    TEXT NOT NULL DEFAULT '',
	cold_email      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'Drafted',
	created_at      DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS resume (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	text         TEXT NOT NULL,
	cleaned_text TEXT NOT NULL DEFAULT '',
	summary      TEXT NOT NULL DEFAULT '',
	updated_at   DATETIME NOT NULL
);`

// SQLiteStore keeps applications and the resume in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Create stores a new application. ID and CreatedAt are assigned, and an
// empty status defaults to Drafted.
func (s *SQLiteStore) Create(ctx context.Context, app Application) (Application, error) {
	if app.Status == "" {
		app.Status = StatusDrafted
	}
	if _, err := ParseStatus(string(app.Status)); err != nil {
		return Application{}, err
	}
	app.ID = uuid.NewString()
	app.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `INSERT INTO applications
		(id, company_name, job_title, job_description, cover_letter, cold_email, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.CompanyName, app.JobTitle, app.JobDescription,
		app.CoverLetter, app.ColdEmail, string(app.Status), app.CreatedAt)
	if err != nil {
		return Application{}, fmt.Errorf("creating application: %w", err)
	}
	return app, nil
}

// Get returns the application with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, company_name, job_title, job_description,
		cover_letter, cold_email, status, created_at FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Application{}, fmt.Errorf("getting application %s: %w", id, err)
	}
	return app, nil
}

// List returns all applications, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, company_name, job_title, job_description,
		cover_letter, cold_email, status, created_at FROM applications
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateStatus moves an application to a new status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE applications SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating application %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Delete removes an application.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM applications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting application %s: %w", id, err)
	}
	return requireRow(res, id)
}

// SaveResume replaces the stored resume.
func (s *SQLiteStore) SaveResume(ctx context.Context, r Resume) (Resume, error) {
	r.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, `INSERT INTO resume (id, text, cleaned_text, summary, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, cleaned_text = excluded.cleaned_text,
			summary = excluded.summary, updated_at = excluded.updated_at`,
		r.Text, r.CleanedText, r.Summary, r.UpdatedAt)
	if err != nil {
		return Resume{}, fmt.Errorf("saving resume: %w", err)
	}
	return r, nil
}

// LoadResume returns the stored resume, or ErrNotFound if none was saved.
func (s *SQLiteStore) LoadResume(ctx context.Context) (Resume, error) {
	var r Resume
	err := s.db.QueryRowContext(ctx, "SELECT text, cleaned_text, summary, updated_at FROM resume WHERE id = 1").
		Scan(&r.Text, &r.CleanedText, &r.Summary, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, fmt.Errorf("resume: %w", ErrNotFound)
	}
	if err != nil {
		return Resume{}, fmt.Errorf("loading resume: %w", err)
	}
	return r, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(sc scanner) (Application, error) {
	var app Application
	var status string
	err := sc.Scan(&app.ID, &app.CompanyName, &app.JobTitle, &app.JobDescription,
		&app.CoverLetter, &app.ColdEmail, &status, &app.CreatedAt)
	app.Status = Status(status)
	return app, err
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("application %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	return nil
}
