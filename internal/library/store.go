package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mangashelf/internal/config"
	"mangashelf/internal/logging"
	"mangashelf/internal/services"
)

// Store manages library persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	hub    *changeHub
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	sqliteConstraintCode    = 19
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for watch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "library")
		}
	}
}

// Open initializes or connects to the library database under cfg.Paths.DataDir.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath(), opts...)
}

// OpenPath opens the database at path, creating the schema when absent.
func OpenPath(path string, opts ...Option) (*Store, error) {
	// Pragmas go in the DSN so every pooled connection gets them.
	query := url.Values{}
	query.Add("_pragma", "foreign_keys(1)")
	query.Add("_pragma", "busy_timeout(5000)")
	query.Add("_pragma", "journal_mode(WAL)")
	query.Set("_txlock", "immediate")
	db, err := sql.Open("sqlite", "file:"+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path, hub: newChangeHub(), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection and ends all watches.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.hub.close()
	return s.db.Close()
}

// Update runs fn inside one immediate transaction. Nothing fn writes is
// visible unless fn returns nil and the commit succeeds; watchers of the rows
// fn touched are notified after commit. Failures without a taxonomy marker
// are reported as services.ErrStorageWrite.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	var touched []string
	err := retryOnBusy(ctx, func() error {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		tx := &Tx{tx: sqlTx, topics: make(map[string]struct{})}
		if err := fn(tx); err != nil {
			_ = sqlTx.Rollback()
			return err
		}
		if err := sqlTx.Commit(); err != nil {
			_ = sqlTx.Rollback()
			return fmt.Errorf("commit: %w", err)
		}
		touched = tx.touched()
		return nil
	})
	if err != nil {
		return classifyWriteError(err)
	}
	s.hub.publish(touched...)
	return nil
}

func classifyWriteError(err error) error {
	if services.Kind(err) != "unknown" {
		return err
	}
	return services.Wrap(services.ErrStorageWrite, "library", "update", "transaction rolled back", err)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// IsConstraintConflict reports whether err came from a UNIQUE or PRIMARY KEY
// violation, e.g. two writers claiming the same sequence number.
func IsConstraintConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteConstraintCode {
		return strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "PRIMARY KEY")
	}
	return false
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func notFound(kind, id string) error {
	return services.Wrap(services.ErrNotFound, "library", "lookup", fmt.Sprintf("%s %s does not exist", kind, id), nil)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
