// Package history keeps an append-only log of recognized symbols.
package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Record is one history entry. Records are only ever inserted.
type Record struct {
	ID         int64     `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	LaTeX      string    `json:"latex" db:"latex"`
	Confidence float64   `json:"confidence" db:"confidence"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Store persists history records in SQLite or PostgreSQL.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to the database and applies pending migrations.
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time avoids SQLITE_BUSY on concurrent inserts
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, logger: logger.Named("history")}
	if err := s.migrate(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.logger.Info("History store initialized", zap.String("driver", driver))
	return s, nil
}

func (s *Store) migrate(driver string) error {
	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return err
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		target, err = sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	case DriverPostgres:
		target, err = postgres.WithInstance(s.db.DB, &postgres.Config{})
	}
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Insert appends a record and returns it with its id and timestamp set.
func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	rec.Text = strings.TrimSpace(rec.Text)
	if rec.Text == "" {
		return Record{}, errors.New("history text is empty")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := s.db.Rebind(`INSERT INTO history (text, latex, confidence, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, query, rec.Text, rec.LaTeX, rec.Confidence, rec.CreatedAt).Scan(&rec.ID); err != nil {
		return Record{}, fmt.Errorf("failed to save history record: %w", err)
	}
	return rec, nil
}

// List returns records newest first. A limit of zero or less returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, text, latex, confidence, created_at FROM history ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	records := []Record{}
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
