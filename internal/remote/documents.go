package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timebuddy/internal/model"
	"timebuddy/internal/store"
)

const notifyChannel = "activity_documents"

// DocumentStore reads and writes whole activity documents, one row per user.
type DocumentStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentStore(pool *pgxpool.Pool, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{pool: pool, logger: logger}
}

// Load returns the user's document, or an empty one when none is stored.
func (d *DocumentStore) Load(ctx context.Context, userID string) (model.UserActivityData, error) {
	var raw []byte
	err := d.pool.QueryRow(ctx, `SELECT data FROM activity_documents WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UserActivityData{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := model.UserActivityData{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			d.logger.Warn("remote document unreadable, treating as empty",
				zap.String("user_id", userID), zap.Error(err))
			return model.UserActivityData{}, nil
		}
	}
	return data, nil
}

// Save overwrites the user's whole document.
func (d *DocumentStore) Save(ctx context.Context, userID string, data model.UserActivityData) error {
	if data == nil {
		data = model.UserActivityData{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = d.pool.Exec(ctx, `INSERT INTO activity_documents (user_id, data, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		userID, raw)
	return err
}

func (d *DocumentStore) Delete(ctx context.Context, userID string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM activity_documents WHERE user_id = $1`, userID)
	return err
}

// ForUser binds the store to one user so it can back an ActivityStore.
func (d *DocumentStore) ForUser(userID string) *UserDocument {
	return &UserDocument{docs: d, userID: userID}
}

// UserDocument is the online store.Backend for one signed-in user.
type UserDocument struct {
	docs   *DocumentStore
	userID string
}

var (
	_ store.Backend    = (*UserDocument)(nil)
	_ store.Subscriber = (*UserDocument)(nil)
)

func (u *UserDocument) Name() string { return "remote" }

func (u *UserDocument) UserID() string { return u.userID }

func (u *UserDocument) Load(ctx context.Context) (model.UserActivityData, error) {
	return u.docs.Load(ctx, u.userID)
}

func (u *UserDocument) Save(ctx context.Context, data model.UserActivityData) error {
	return u.docs.Save(ctx, u.userID, data)
}

func (u *UserDocument) Clear(ctx context.Context) error {
	return u.docs.Delete(ctx, u.userID)
}

func (u *UserDocument) Subscribe(ctx context.Context) (store.Subscription, error) {
	return u.docs.Subscribe(ctx, u.userID)
}
