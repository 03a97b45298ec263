package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"timebuddy/internal/model"
)

const (
	// BackendLocal is the LocalBackend's Name.
	BackendLocal = "local"

	// KeyActivityData is where the offline document lives.
	KeyActivityData = "activityTrackerData"

	localDBFileName = "timebuddy.sqlite"
)

// LocalBackend keeps small string values, the offline activity document
// among them, in a SQLite key-value table inside the data directory.
type LocalBackend struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

var _ Backend = (*LocalBackend)(nil)

// OpenLocal opens (creating if needed) the database in dir.
func OpenLocal(ctx context.Context, dir string, logger *zap.Logger) (*LocalBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("open local store: missing dir")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, localDBFileName)
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI and a CLI invocation read while the other writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LocalBackend{db: db, path: path, logger: logger}, nil
}

func (b *LocalBackend) Name() string { return BackendLocal }

func (b *LocalBackend) Path() string { return b.path }

func (b *LocalBackend) Close() error { return b.db.Close() }

// Get returns the value stored under key; ok is false when there is none.
func (b *LocalBackend) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = b.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *LocalBackend) Set(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`,
		key, value, time.Now().UTC().UnixMilli())
	return err
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
	return err
}

// Load returns the offline document. Missing or unreadable data loads as an
// empty document; corruption is logged, not returned.
func (b *LocalBackend) Load(ctx context.Context) (model.UserActivityData, error) {
	raw, ok, err := b.Get(ctx, KeyActivityData)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return model.UserActivityData{}, nil
	}
	var data model.UserActivityData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		b.logger.Warn("stored activity data is unreadable, starting empty", zap.Error(err))
		return model.UserActivityData{}, nil
	}
	if data == nil {
		data = model.UserActivityData{}
	}
	return data, nil
}

func (b *LocalBackend) Save(ctx context.Context, data model.UserActivityData) error {
	if data == nil {
		data = model.UserActivityData{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return b.Set(ctx, KeyActivityData, string(raw))
}

func (b *LocalBackend) Clear(ctx context.Context) error {
	return b.Delete(ctx, KeyActivityData)
}
