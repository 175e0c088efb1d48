package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoezclean/backend/internal/domain"
)

func TestSwapReplacesTempEntryInPlace(t *testing.T) {
	s := New()
	s.Customers.Insert(domain.Customer{ID: "c-1", Name: "Lama"})
	s.Customers.Insert(domain.Customer{ID: "tmp-1", Name: "Baru"})

	found := s.Customers.Swap("tmp-1", domain.Customer{ID: "c-2", Name: "Baru"})

	require.True(t, found)
	all := s.Customers.All()
	require.Len(t, all, 2)
	assert.Equal(t, "c-2", all[0].ID)
	assert.Equal(t, "c-1", all[1].ID)
}

func TestSwapDeduplicatesCanonicalFromReload(t *testing.T) {
	s := New()
	s.Orders.Insert(domain.Order{ID: "tmp-1"})
	// a reload delivered the canonical row before the create call returned
	s.Orders.Insert(domain.Order{ID: "o-1"})

	s.Orders.Swap("tmp-1", domain.Order{ID: "o-1", InvoiceNumber: "INV-1"})

	all := s.Orders.All()
	require.Len(t, all, 1)
	assert.Equal(t, "INV-1", all[0].InvoiceNumber)
}

func TestSwapAfterReloadDroppedTemp(t *testing.T) {
	s := New()
	s.Orders.Replace([]domain.Order{{ID: "o-1"}})

	found := s.Orders.Swap("tmp-gone", domain.Order{ID: "o-1"})
	assert.False(t, found)
	assert.Equal(t, 1, s.Orders.Len())

	s.Orders.Swap("tmp-gone", domain.Order{ID: "o-2"})
	assert.Equal(t, 2, s.Orders.Len())
}

func TestUpdateAndRemoveWhere(t *testing.T) {
	s := New()
	s.CashFlows.Replace([]domain.CashFlowEntry{
		{ID: "cf-1", OrderID: "o-1"},
		{ID: "cf-2", OrderID: "o-2"},
		{ID: "cf-3", OrderID: "o-1"},
	})

	updated, ok := s.CashFlows.Update("cf-2", func(c *domain.CashFlowEntry) { c.Amount = 5000 })
	require.True(t, ok)
	assert.Equal(t, int64(5000), updated.Amount)

	_, ok = s.CashFlows.Update("missing", func(*domain.CashFlowEntry) {})
	assert.False(t, ok)

	removed := s.CashFlows.RemoveWhere(func(c domain.CashFlowEntry) bool { return c.OrderID == "o-1" })
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.CashFlows.Len())
}

func TestOrdersAreIsolatedFromCallers(t *testing.T) {
	s := New()
	s.Orders.Insert(domain.Order{ID: "o-1", LineItems: []domain.LineItem{{ID: "li-1", ProcessStatus: domain.ProcessReceived}}})

	got, ok := s.Orders.Get("o-1")
	require.True(t, ok)
	got.LineItems[0].ProcessStatus = domain.ProcessReady

	again, _ := s.Orders.Get("o-1")
	assert.Equal(t, domain.ProcessReceived, again.LineItems[0].ProcessStatus)
}

func TestWatchReceivesTableChanges(t *testing.T) {
	s := New()
	changes, stop := s.Watch()
	defer stop()

	s.Branches.Insert(domain.Branch{ID: "b-1"})

	select {
	case table := <-changes:
		assert.Equal(t, domain.TableBranches, table)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestSettingsAndReset(t *testing.T) {
	s := New()
	assert.False(t, s.SettingsLoaded())
	assert.Equal(t, "Dr.ShoezClean", s.Settings().Name)

	s.SetSettings(domain.DefaultSettings())
	name := "Shoez Bintaro"
	got := s.PatchSettings(domain.SettingsPatch{Name: &name})
	assert.Equal(t, "Shoez Bintaro", got.Name)
	assert.Equal(t, "BCA", got.BankName)

	s.SetSession(Session{User: domain.User{ID: "u-1"}})
	s.Orders.Insert(domain.Order{ID: "o-1"})
	s.Reset()

	_, ok := s.Session()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Orders.Len())
	assert.False(t, s.SettingsLoaded())
}

func TestSnapshotCopiesCollections(t *testing.T) {
	s := New()
	s.Orders.Insert(domain.Order{ID: "o-1", Total: 1000})
	snap := s.Snapshot()
	s.Orders.Remove("o-1")

	require.Len(t, snap.Orders, 1)
	assert.Equal(t, int64(1000), snap.Orders[0].Total)
}
