package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

type fakeConn struct {
	mu       sync.Mutex
	payloads []string
	lost     error
	execs    []string
	closed   bool
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.execs = append(c.execs, sql)

	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	c.mu.Lock()
	if len(c.payloads) > 0 {
		p := c.payloads[0]
		c.payloads = c.payloads[1:]
		c.mu.Unlock()

		return &pgconn.Notification{Channel: Channel, Payload: p}, nil
	}

	lost := c.lost
	c.mu.Unlock()

	if lost != nil {
		return nil, lost
	}

	<-ctx.Done()

	return nil, ctx.Err()
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *fakeConn) snapshot() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.execs...), c.closed
}

func TestListener_Run(t *testing.T) {
	first := &fakeConn{
		payloads: []string{`{"eventType":"INSERT","new":{"id":"a"}}`},
		lost:     errors.New("connection reset"),
	}
	second := &fakeConn{
		payloads: []string{`{"eventType":"DELETE","old":{"id":"a"}}`, `garbage`},
	}

	var (
		mu    sync.Mutex
		dials int
	)

	dial := func(context.Context) (NotifyConn, error) {
		mu.Lock()
		defer mu.Unlock()

		dials++

		switch dials {
		case 1:
			return first, nil
		case 2:
			return nil, errors.New("connection refused")
		default:
			return second, nil
		}
	}

	l := NewListener("", WithDialer(dial), WithBackoff(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan estimate.Event)
	done := make(chan error, 1)

	go func() { done <- l.Run(ctx, out) }()

	var kinds []estimate.EventKind
	for range 4 {
		select {
		case ev := <-out:
			kinds = append(kinds, ev.Kind)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []estimate.EventKind{
		estimate.EventInsert,
		estimate.EventReload,
		estimate.EventDelete,
		estimate.EventReload,
	}, kinds)

	for _, c := range []*fakeConn{first, second} {
		execs, closed := c.snapshot()
		assert.Equal(t, []string{`LISTEN "estimates_changes"`, `UNLISTEN "estimates_changes"`}, execs)
		assert.True(t, closed)
	}
}

func TestListener_RunStopsWhileDialing(t *testing.T) {
	dial := func(context.Context) (NotifyConn, error) {
		return nil, errors.New("connection refused")
	}

	l := NewListener("", WithDialer(dial), WithBackoff(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- l.Run(ctx, make(chan estimate.Event)) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}
