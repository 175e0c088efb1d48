package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/entity"
	"shoezclean/backend/internal/store"
)

// Refresh reloads every table in parallel. A table whose read fails is logged
// and left empty without affecting the others; the joined read errors are
// returned for callers that care. A missing settings row is created with the
// defaults.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(table domain.Table, err error) {
		c.log.WithField("table", table).WithError(err).Warn("reload failed, table left empty")
		mu.Lock()
		errs = append(errs, &RemoteReadError{Table: table, Err: err})
		mu.Unlock()
	}

	wg.Add(7)
	go func() { defer wg.Done(); load(ctx, c.state.Orders, c.repo.ListOrders, fail) }()
	go func() { defer wg.Done(); load(ctx, c.state.Customers, c.repo.ListCustomers, fail) }()
	go func() { defer wg.Done(); load(ctx, c.state.Discounts, c.repo.ListDiscounts, fail) }()
	go func() { defer wg.Done(); load(ctx, c.state.CashFlows, c.repo.ListCashFlows, fail) }()
	go func() { defer wg.Done(); load(ctx, c.state.Users, c.repo.ListUsers, fail) }()
	go func() { defer wg.Done(); load(ctx, c.state.Branches, c.repo.ListBranches, fail) }()
	go func() {
		defer wg.Done()
		if err := c.loadSettings(ctx); err != nil {
			fail(domain.TableSettings, err)
		}
	}()
	wg.Wait()

	outcome := "ok"
	if len(errs) > 0 {
		outcome = "partial"
	}
	c.metrics.refreshes.WithLabelValues(outcome).Inc()
	return errors.Join(errs...)
}

func load[T any](ctx context.Context, col *entity.Collection[T], list func(context.Context) ([]T, error), fail func(domain.Table, error)) {
	items, err := list(ctx)
	if err != nil {
		fail(col.Table(), err)
		items = nil
	}
	col.Replace(items)
}

func (c *Coordinator) loadSettings(ctx context.Context) error {
	settings, err := c.repo.GetSettings(ctx)
	if err == nil {
		c.state.SetSettings(*settings)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	defaults := domain.DefaultSettings()
	created, err := c.repo.InsertSettings(ctx, defaults)
	if err != nil {
		return err
	}
	c.log.Info("settings row created with defaults")
	c.state.SetSettings(*created)
	return nil
}

// Listen consumes the remote change feed until ctx ends. Each burst of events
// triggers one full Refresh; inserts are also passed to the Notifier.
func (c *Coordinator) Listen(ctx context.Context) error {
	events, err := c.repo.Subscribe(ctx)
	if err != nil {
		return err
	}
	c.log.Info("realtime listener started")
	defer c.log.Info("realtime listener stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			batch := drain(ev, events)
			if !c.handle(ctx, batch) {
				continue
			}
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.log.WithError(err).Warn("reload after change event incomplete")
			}
		}
	}
}

func drain(first domain.ChangeEvent, events <-chan domain.ChangeEvent) []domain.ChangeEvent {
	batch := []domain.ChangeEvent{first}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}

// handle reports whether any event in batch concerns a synchronized table.
func (c *Coordinator) handle(ctx context.Context, batch []domain.ChangeEvent) bool {
	relevant := false
	for _, ev := range batch {
		if !ev.Table.Known() {
			continue
		}
		relevant = true
		c.metrics.events.WithLabelValues(string(ev.Table), string(ev.Type)).Inc()
		c.log.WithFields(logrus.Fields{"table": ev.Table, "type": ev.Type}).Debug("change event")
		if ev.Type == domain.ChangeInsert && c.notifier != nil {
			c.notifier.NewRecord(ctx, ev.Table)
		}
	}
	return relevant
}
