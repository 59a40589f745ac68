// Package store is the local persistent store: five indexed collections
// kept as JSON documents in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"talentflow/internal/model"
	"talentflow/internal/store/migrations"
	"talentflow/internal/talentflow"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type collections struct {
	users       *Collection[model.User]
	jobs        *Collection[model.Job]
	candidates  *Collection[model.Candidate]
	assessments *Collection[model.Assessment]
	responses   *Collection[model.AssessmentResponse]
}

func bind(db dbtx) collections {
	return collections{
		users:       newCollection(db, userSchema),
		jobs:        newCollection(db, jobSchema),
		candidates:  newCollection(db, candidateSchema),
		assessments: newCollection(db, assessmentSchema),
		responses:   newCollection(db, responseSchema),
	}
}

func (c *collections) Users() talentflow.Collection[model.User]           { return c.users }
func (c *collections) Jobs() talentflow.Collection[model.Job]             { return c.jobs }
func (c *collections) Candidates() talentflow.Collection[model.Candidate] { return c.candidates }
func (c *collections) Assessments() talentflow.Collection[model.Assessment] {
	return c.assessments
}
func (c *collections) AssessmentResponses() talentflow.Collection[model.AssessmentResponse] {
	return c.responses
}

// Store is the SQLite-backed local store.
type Store struct {
	collections
	db   *sql.DB
	path string
}

// Tx exposes the same collections bound to one transaction.
type Tx struct {
	collections
}

// Open opens (creating if needed) the database at path and brings its
// schema up to date. path may be MemoryPath.
func Open(path string) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{collections: bind(db), db: db, path: path}, nil
}

// OpenConnection opens a configured SQLite connection pool without touching
// the schema.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// WithTx runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("starting transaction", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{collections: bind(sqlTx)}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapError("committing transaction", err)
	}
	return nil
}

// Atomically is WithTx for callers that only know talentflow.Collections.
func (s *Store) Atomically(ctx context.Context, fn func(talentflow.Collections) error) error {
	return s.WithTx(ctx, func(tx *Tx) error { return fn(tx) })
}

// Export copies every collection, ids included.
func (s *Store) Export(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	if snap.Users, err = s.users.All(ctx, talentflow.Query{}); err != nil {
		return nil, fmt.Errorf("exporting users: %w", err)
	}
	if snap.Jobs, err = s.jobs.All(ctx, talentflow.Query{}); err != nil {
		return nil, fmt.Errorf("exporting jobs: %w", err)
	}
	if snap.Candidates, err = s.candidates.All(ctx, talentflow.Query{}); err != nil {
		return nil, fmt.Errorf("exporting candidates: %w", err)
	}
	if snap.Assessments, err = s.assessments.All(ctx, talentflow.Query{}); err != nil {
		return nil, fmt.Errorf("exporting assessments: %w", err)
	}
	if snap.AssessmentResponses, err = s.responses.All(ctx, talentflow.Query{}); err != nil {
		return nil, fmt.Errorf("exporting assessment responses: %w", err)
	}
	return &snap, nil
}

// Import writes a snapshot in one transaction. Records keep their ids and
// replace any stored record with the same id.
func (s *Store) Import(ctx context.Context, snap *model.Snapshot) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.users.BulkPut(ctx, snap.Users); err != nil {
			return fmt.Errorf("importing users: %w", err)
		}
		if _, err := tx.jobs.BulkPut(ctx, snap.Jobs); err != nil {
			return fmt.Errorf("importing jobs: %w", err)
		}
		if _, err := tx.candidates.BulkPut(ctx, snap.Candidates); err != nil {
			return fmt.Errorf("importing candidates: %w", err)
		}
		if _, err := tx.assessments.BulkPut(ctx, snap.Assessments); err != nil {
			return fmt.Errorf("importing assessments: %w", err)
		}
		if _, err := tx.responses.BulkPut(ctx, snap.AssessmentResponses); err != nil {
			return fmt.Errorf("importing assessment responses: %w", err)
		}
		return nil
	})
}

// Path returns the database file path, or MemoryPath.
func (s *Store) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is at the version this binary expects.
func (s *Store) CheckMigrations() error {
	return migrations.Check(s.db)
}

// BackupTo writes a consistent copy of the database to destPath using VACUUM INTO.
func (s *Store) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var (
	_ talentflow.Collections = (*Store)(nil)
	_ talentflow.Collections = (*Tx)(nil)

	_ talentflow.Transactional = (*Store)(nil)
)
