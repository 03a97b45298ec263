package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timebuddy/internal/model"
	"timebuddy/internal/store"
)

// Subscribe listens for changes to the user's document. The current document
// is delivered first, then the latest one after every change. Only the most
// recent undelivered document is kept.
func (d *DocumentStore) Subscribe(ctx context.Context, userID string) (store.Subscription, error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		ch:     make(chan model.UserActivityData, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(runCtx, d, conn, userID)
	return s, nil
}

type subscription struct {
	ch     chan model.UserActivityData
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Updates() <-chan model.UserActivityData { return s.ch }

// Close stops listening and waits for the connection to be returned.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

func (s *subscription) run(ctx context.Context, d *DocumentStore, conn *pgxpool.Conn, userID string) {
	defer close(s.done)
	defer close(s.ch)
	defer func() {
		if !conn.Conn().IsClosed() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		}
		conn.Release()
	}()

	if !s.push(ctx, d, userID) {
		return
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("remote change feed stopped", zap.Error(err))
			}
			return
		}
		if n.Payload != userID {
			continue
		}
		if !s.push(ctx, d, userID) {
			return
		}
	}
}

// push loads and delivers the current document; false means stop.
func (s *subscription) push(ctx context.Context, d *DocumentStore, userID string) bool {
	data, err := d.Load(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		d.logger.Warn("reload remote document", zap.String("user_id", userID), zap.Error(err))
		return true
	}
	deliverLatest(s.ch, data)
	return true
}

// deliverLatest puts data on ch, replacing a pending value the consumer has
// not picked up yet. ch must have capacity 1 and a single sender.
func deliverLatest(ch chan model.UserActivityData, data model.UserActivityData) {
	select {
	case ch <- data:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- data:
	default:
	}
}
