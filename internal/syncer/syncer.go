package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/entity"
	"shoezclean/backend/internal/store"
)

// RemoteWriteError wraps a failed remote insert, update or delete.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write %s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// RemoteReadError wraps a failed bulk read of one table.
type RemoteReadError struct {
	Table domain.Table
	Err   error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("remote read %s: %v", e.Table, e.Err)
}

func (e *RemoteReadError) Unwrap() error {
	return e.Err
}

// Notifier is told about records other clients inserted.
type Notifier interface {
	NewRecord(ctx context.Context, table domain.Table)
}

type Option func(*Coordinator)

func WithLogger(log *logrus.Entry) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithErrorHook registers fn to receive every failed fire-and-forget write.
func WithErrorHook(fn func(op string, err error)) Option {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// Coordinator keeps an entity.Store consistent with the remote store: it
// applies optimistic local changes, confirms or rolls them back, and reloads
// on remote change events.
type Coordinator struct {
	repo     store.Repository
	state    *entity.Store
	log      *logrus.Entry
	notifier Notifier
	onError  func(op string, err error)
	metrics  *Metrics

	inflight  sync.WaitGroup
	refreshMu sync.Mutex

	queueMu sync.Mutex
	tail    *Ack
}

func New(repo store.Repository, state *entity.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:    repo,
		state:   state,
		log:     logrus.WithField("module", "syncer"),
		metrics: NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) State() *entity.Store {
	return c.state
}

// Create inserts optimistic under its temporary key, awaits remote and then
// either swaps in the canonical record or removes the placeholder and returns
// a *RemoteWriteError.
func Create[T any](ctx context.Context, c *Coordinator, col *entity.Collection[T], optimistic T, remote func(context.Context) (*T, error)) (T, error) {
	tempID := col.Key(optimistic)
	op := string(col.Table()) + ".insert"
	col.Insert(optimistic)

	created, err := remote(ctx)
	if err == nil && created == nil {
		err = errors.New("remote returned no record")
	}
	if err != nil {
		col.Remove(tempID)
		c.metrics.creates.WithLabelValues(string(col.Table()), "rolled_back").Inc()
		c.log.WithFields(logrus.Fields{"op": op, "temp_id": tempID}).WithError(err).Warn("create rolled back")
		var zero T
		return zero, &RemoteWriteError{Op: op, Err: err}
	}

	col.Swap(tempID, *created)
	c.metrics.creates.WithLabelValues(string(col.Table()), "confirmed").Inc()
	return *created, nil
}

// Ack reports the outcome of a fire-and-forget write.
type Ack struct {
	done chan struct{}
	err  error
}

// Resolved returns an Ack that is already complete with err.
func Resolved(err error) *Ack {
	a := &Ack{done: make(chan struct{}), err: err}
	close(a.done)
	return a
}

func (a *Ack) Done() <-chan struct{} {
	return a.done
}

// Err is nil until Done is closed.
func (a *Ack) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// Wait blocks until the write finishes or ctx ends.
func (a *Ack) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch queues write behind every earlier dispatched write and runs it in
// the background, detached from ctx cancellation. Writes reach the remote in
// the order they were dispatched. The local state has already been changed by
// the caller and is not rolled back on failure.
func (c *Coordinator) Dispatch(ctx context.Context, op string, write func(context.Context) error) *Ack {
	ack := &Ack{done: make(chan struct{})}
	wctx := context.WithoutCancel(ctx)

	c.queueMu.Lock()
	prev := c.tail
	c.tail = ack
	c.inflight.Add(1)
	c.queueMu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer close(ack.done)
		if prev != nil {
			<-prev.done
		}

		if err := write(wctx); err != nil {
			ack.err = &RemoteWriteError{Op: op, Err: err}
			c.metrics.writes.WithLabelValues(op, "failed").Inc()
			c.log.WithField("op", op).WithError(err).Warn("remote write failed, local state kept")
			if c.onError != nil {
				c.onError(op, ack.err)
			}
			return
		}
		c.metrics.writes.WithLabelValues(op, "ok").Inc()
	}()
	return ack
}

// CreateDetached inserts optimistic under its temporary key and confirms it
// through the write queue without blocking the caller. A failed insert
// removes the placeholder and is reported through the Ack.
func CreateDetached[T any](ctx context.Context, c *Coordinator, col *entity.Collection[T], optimistic T, remote func(context.Context) (*T, error)) *Ack {
	tempID := col.Key(optimistic)
	table := string(col.Table())
	col.Insert(optimistic)

	return c.Dispatch(ctx, table+".insert", func(ctx context.Context) error {
		created, err := remote(ctx)
		if err == nil && created == nil {
			err = errors.New("remote returned no record")
		}
		if err != nil {
			col.Remove(tempID)
			c.metrics.creates.WithLabelValues(table, "rolled_back").Inc()
			return err
		}
		col.Swap(tempID, *created)
		c.metrics.creates.WithLabelValues(table, "confirmed").Inc()
		return nil
	})
}

// Flush waits for all dispatched writes.
func (c *Coordinator) Flush() {
	c.inflight.Wait()
}
