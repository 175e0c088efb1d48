package catalog

import (
	"errors"
	"sort"
)

// ErrCatalogMiss means the service or variant is not (yet) selected or unknown.
var ErrCatalogMiss = errors.New("catalog: service or variant not found")

type Variant struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type Service struct {
	Key      string             `json:"key"`
	Name     string             `json:"name"`
	Duration string             `json:"duration"`
	Variants map[string]Variant `json:"variants"`
}

// Catalog maps a service key to its offering. It is read-only after construction.
type Catalog map[string]Service

func (c Catalog) Price(serviceKey, variantKey string) (int64, error) {
	svc, ok := c[serviceKey]
	if !ok {
		return 0, ErrCatalogMiss
	}
	variant, ok := svc.Variants[variantKey]
	if !ok {
		return 0, ErrCatalogMiss
	}
	return variant.Price, nil
}

func (c Catalog) Service(key string) (Service, bool) {
	svc, ok := c[key]
	return svc, ok
}

// Services returns the offerings sorted by key.
func (c Catalog) Services() []Service {
	out := make([]Service, 0, len(c))
	for _, svc := range c {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func tiered(key, name, duration string, prices ...int64) Service {
	names := []string{"silver", "gold", "platinum", "white"}
	if len(prices) == 2 {
		names = []string{"platinum", "premium"}
	}
	variants := make(map[string]Variant, len(prices))
	for i, price := range prices {
		variants[names[i]] = Variant{Key: names[i], Name: titleCase(names[i]), Price: price}
	}
	return Service{Key: key, Name: name, Duration: duration, Variants: variants}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Default is the price list used by the shop.
func Default() Catalog {
	services := []Service{
		tiered("DEEP_CLEAN_EXPRESS", "Deep Clean Express", "1 hari", 33000, 35000, 38000, 40000),
		tiered("DEEP_CLEAN_REGULER", "Deep Clean Reguler", "3-4 hari", 19000, 22000, 25000, 26000),
		tiered("FAST_CLEAN_EXPRESS", "Fast Clean Express", "1 hari", 27000, 29000, 31000, 33000),
		tiered("UNYELLOWING", "Unyellowing", "4-6 hari", 37000, 40000),
		tiered("RECOLOUR", "Recolour", "7-10 hari", 88000, 115000),
		tiered("REPAINT", "Repaint", "7-10 hari", 86000, 110000),
	}
	c := make(Catalog, len(services))
	for _, svc := range services {
		c[svc.Key] = svc
	}
	return c
}
