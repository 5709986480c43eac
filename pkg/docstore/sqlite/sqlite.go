// Package sqlite implements docstore.Store on a single SQLite database file.
// Every document is a row keyed by its full path; the body is a JSON object
// manipulated with SQLite's JSON functions.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/timeutil"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Store is a docstore.Store backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
	hub    *docstore.Hub

	throttle time.Duration

	watchOnce sync.Once
	watchErr  error
	stopWatch context.CancelFunc

	closeOnce sync.Once
}

var _ docstore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithThrottle sets how long file-system notifications from other processes
// are coalesced before watchers are invalidated.
func WithThrottle(d time.Duration) Option {
	return func(s *Store) { s.throttle = d }
}

// Open creates or opens the database at path, applies pragmas and runs the
// embedded migrations.
func Open(ctx context.Context, path string, logger zerolog.Logger, opts ...Option) (*Store, error) {
	logger = logger.With().Str("component", "docstore").Logger()
	logger.Debug().Str("path", path).Msg("opening database")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One connection: SQLite allows a single writer and :memory: databases
	// are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Unavailable("sqlite: connect", err)
	}

	if err := applyPragmas(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		path:     path,
		logger:   logger,
		hub:      docstore.NewHub(),
		throttle: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}
	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := db.ExecContext(ctx, query); err != nil {
			logger.Warn().Err(err).Str("pragma", pragma.name).Msg("failed to set pragma")
			return fmt.Errorf("sqlite: set PRAGMA %s: %w", pragma.name, err)
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sqlite: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (docstore.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, fmt.Errorf("get %s: %w", path, errs.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, classify("get "+path, err)
	}
	_, id := docstore.Split(path)
	return docstore.Document{Path: path, ID: id, Data: []byte(data)}, nil
}

func (s *Store) Create(ctx context.Context, path string, data any) error {
	raw, err := docstore.Marshal(data)
	if err != nil {
		return err
	}
	parent, id := docstore.Split(path)
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, parent, id, data, created_at, updated_at)
		VALUES (?, ?, ?, json(?), ?, ?)
		ON CONFLICT(path) DO NOTHING`,
		path, parent, id, string(raw), now, now)
	if err != nil {
		return classify("create "+path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("create "+path, err)
	}
	if n == 0 {
		return fmt.Errorf("create %s: %w", path, errs.ErrAlreadyExists)
	}
	s.hub.Publish(path)
	return nil
}

func (s *Store) Set(ctx context.Context, path string, data any) error {
	raw, err := docstore.Marshal(data)
	if err != nil {
		return err
	}
	if err := set(ctx, s.db, path, raw, s.now()); err != nil {
		return classify("set "+path, err)
	}
	s.hub.Publish(path)
	return nil
}

func (s *Store) Add(ctx context.Context, collection string, data any) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("add %s: generate id: %w", collection, err)
	}
	if err := s.Create(ctx, docstore.Join(collection, id), data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, path string, patch map[string]any) error {
	raw, err := docstore.Marshal(patch)
	if err != nil {
		return err
	}
	if err := update(ctx, s.db, path, raw, s.now()); err != nil {
		return err
	}
	s.hub.Publish(path)
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	if err != nil {
		return classify("delete "+path, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.hub.Publish(path)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	var (
		rows *sql.Rows
		err  error
	)
	if q.OrderBy != "" {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT path, id, data FROM documents
			WHERE parent = ?
			ORDER BY json_extract(data, ?) %[1]s, id %[1]s`, dir),
			collection, "$."+q.OrderBy)
	} else {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT path, id, data FROM documents
			WHERE parent = ?
			ORDER BY id %s`, dir), collection)
	}
	if err != nil {
		return nil, classify("query "+collection, err)
	}
	defer rows.Close()

	out := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			doc  docstore.Document
			data string
		)
		if err := rows.Scan(&doc.Path, &doc.ID, &data); err != nil {
			return nil, classify("query "+collection, err)
		}
		doc.Data = []byte(data)
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query "+collection, err)
	}
	return out, nil
}

// Commit runs the batch inside one transaction.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	if err := b.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("commit", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now()
	touched := make([]string, 0, b.Len())
	for _, op := range b.Ops() {
		if err := apply(ctx, tx, op, now); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		touched = append(touched, op.Path)
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	if len(touched) > 0 {
		s.hub.Publish(touched...)
	}
	return nil
}

// Watch subscribes to changes below prefix. Writes through this Store are
// reported immediately; writes by other processes sharing the file surface
// as EventInvalidated once the file watcher notices them.
func (s *Store) Watch(ctx context.Context, prefix string) (<-chan docstore.Event, error) {
	s.watchOnce.Do(func() {
		s.watchErr = s.startFileWatch()
	})
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	return s.hub.Subscribe(ctx, prefix), nil
}

// Ping checks that the database file is still there and readable. The open
// connection alone would keep answering after the file is gone.
func (s *Store) Ping(ctx context.Context) error {
	if file := s.filePath(); file != "" {
		if _, err := os.Stat(file); err != nil {
			return errs.Unavailable("ping", err)
		}
	}
	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA quick_check(1)`).Scan(&result); err != nil {
		return errs.Unavailable("ping", err)
	}
	if result != "ok" {
		return errs.Unavailable("ping", fmt.Errorf("quick_check: %s", result))
	}
	return nil
}

// filePath is the database file on disk, or "" for in-memory and URI
// databases.
func (s *Store) filePath() string {
	if s.path == "" || s.path == ":memory:" || strings.HasPrefix(s.path, "file:") {
		return ""
	}
	return s.path
}

func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		s.hub.Close()
		err = s.db.Close()
	})
	return err
}

func (s *Store) now() string {
	return time.Now().UTC().Format(timeutil.StoredLayout)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func apply(ctx context.Context, db execer, op docstore.Op, now string) error {
	switch op.Kind {
	case docstore.OpSet:
		if err := set(ctx, db, op.Path, op.Data, now); err != nil {
			return classify("set "+op.Path, err)
		}
		return nil
	case docstore.OpUpdate:
		return update(ctx, db, op.Path, op.Data, now)
	case docstore.OpDelete:
		if _, err := db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, op.Path); err != nil {
			return classify("delete "+op.Path, err)
		}
		return nil
	case docstore.OpDeleteCollection:
		if _, err := db.ExecContext(ctx, `DELETE FROM documents WHERE parent = ?`, op.Path); err != nil {
			return classify("delete collection "+op.Path, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown batch operation %d", op.Kind)
	}
}

func set(ctx context.Context, db execer, path string, raw []byte, now string) error {
	parent, id := docstore.Split(path)
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (path, parent, id, data, created_at, updated_at)
		VALUES (?, ?, ?, json(?), ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path, parent, id, string(raw), now, now)
	return err
}

// update applies raw as a JSON merge patch; json_patch drops null members.
func update(ctx context.Context, db execer, path string, raw []byte, now string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE documents SET data = json_patch(data, ?), updated_at = ?
		WHERE path = ?`, string(raw), now, path)
	if err != nil {
		return classify("update "+path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update "+path, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", path, errs.ErrNotFound)
	}
	return nil
}

// classify marks driver errors that mean the database cannot be reached or
// is busy as connectivity failures.
func classify(op string, err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrNotADB:
			return errs.Unavailable(op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// gooseLogger routes migration output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(format, v...)
}
