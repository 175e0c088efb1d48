package catalog

import (
	"errors"
	"testing"
)

func TestDefaultPrices(t *testing.T) {
	c := Default()

	cases := []struct {
		service string
		variant string
		want    int64
	}{
		{"DEEP_CLEAN_EXPRESS", "gold", 35000},
		{"DEEP_CLEAN_REGULER", "white", 26000},
		{"FAST_CLEAN_EXPRESS", "silver", 27000},
		{"UNYELLOWING", "premium", 40000},
		{"RECOLOUR", "platinum", 88000},
		{"REPAINT", "premium", 110000},
	}
	for _, tc := range cases {
		got, err := c.Price(tc.service, tc.variant)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error %v", tc.service, tc.variant, err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: expected %d, got %d", tc.service, tc.variant, tc.want, got)
		}
	}
}

func TestPriceMiss(t *testing.T) {
	c := Default()

	if _, err := c.Price("UNKNOWN", "gold"); !errors.Is(err, ErrCatalogMiss) {
		t.Fatalf("expected catalog miss for unknown service, got %v", err)
	}
	if _, err := c.Price("UNYELLOWING", "gold"); !errors.Is(err, ErrCatalogMiss) {
		t.Fatalf("expected catalog miss for unknown variant, got %v", err)
	}
	if _, err := c.Price("", ""); !errors.Is(err, ErrCatalogMiss) {
		t.Fatalf("expected catalog miss for empty selection, got %v", err)
	}
}

func TestServicesSorted(t *testing.T) {
	services := Default().Services()
	if len(services) != 6 {
		t.Fatalf("expected 6 services, got %d", len(services))
	}
	for i := 1; i < len(services); i++ {
		if services[i-1].Key > services[i].Key {
			t.Fatalf("services not sorted: %s before %s", services[i-1].Key, services[i].Key)
		}
	}
	if services[0].Variants["gold"].Name != "Gold" {
		t.Fatalf("expected variant display name Gold, got %q", services[0].Variants["gold"].Name)
	}
}
