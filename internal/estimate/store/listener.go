package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

const (
	// Channel must match the pg_notify call in the estimates trigger
	// (migration 000001).
	Channel = "estimates_changes"

	maxBackoff      = time.Minute
	teardownTimeout = 5 * time.Second
)

// NotifyConn is the part of *pgx.Conn the listener uses.
type NotifyConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type Dialer func(ctx context.Context) (NotifyConn, error)

// Listener forwards change notifications from the estimates table. It holds
// its own connection outside the sql.DB pool, since LISTEN is bound to a
// session.
type Listener struct {
	dial    Dialer
	backoff time.Duration
}

type ListenerOption func(*Listener)

// WithBackoff sets the first reconnect delay. It doubles up to a minute.
func WithBackoff(d time.Duration) ListenerOption {
	return func(l *Listener) { l.backoff = d }
}

func WithDialer(dial Dialer) ListenerOption {
	return func(l *Listener) { l.dial = dial }
}

func NewListener(connString string, opts ...ListenerOption) *Listener {
	l := &Listener{
		backoff: 2 * time.Second,
		dial: func(ctx context.Context) (NotifyConn, error) {
			return pgx.Connect(ctx, connString)
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run delivers events to out until ctx is done. After a lost connection is
// re-established it sends an EventReload, since notifications sent while
// disconnected are gone.
func (l *Listener) Run(ctx context.Context, out chan<- estimate.Event) error {
	delay := l.backoff
	missed := false

	for {
		conn, err := l.dial(ctx)
		if err == nil {
			if missed && !send(ctx, out, estimate.Event{Kind: estimate.EventReload}) {
				_ = conn.Close(context.Background())
				return nil
			}

			delay = l.backoff
			err = l.listen(ctx, conn, out)
		}

		if ctx.Err() != nil {
			return nil
		}

		missed = true

		slog.Warn("estimate stream disconnected", "channel", Channel, "retry_in", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay = min(delay*2, maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context, conn NotifyConn, out chan<- estimate.Event) error {
	ident := pgx.Identifier{Channel}.Sanitize()

	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()

		if _, err := conn.Exec(tctx, "UNLISTEN "+ident); err != nil {
			slog.Debug("failed to unlisten", "channel", Channel, "error", err)
		}

		_ = conn.Close(tctx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+ident); err != nil {
		return fmt.Errorf("listening on %s: %w", Channel, err)
	}

	slog.Info("listening for estimate changes", "channel", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}

			return fmt.Errorf("waiting for notification: %w", err)
		}

		ev, err := estimate.DecodeEvent([]byte(n.Payload))
		if err != nil {
			slog.Error("failed to decode change event", "channel", n.Channel, "error", err)
		}

		if !send(ctx, out, ev) {
			return ctx.Err()
		}
	}
}

func send(ctx context.Context, out chan<- estimate.Event, ev estimate.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	}
}
