package menu

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

type PriceBucket string

const (
	BucketLow    PriceBucket = "low"
	BucketMedium PriceBucket = "medium"
	BucketHigh   PriceBucket = "high"
)

// Absolute fallback thresholds, used when a menu has too few priced items
// to derive restaurant-relative terciles.
const (
	fallbackLowCeiling    = 20.0
	fallbackMediumCeiling = 50.0
)

// Restaurant owns an ordered item collection plus the profile fields produced
// by the extraction pipeline. Immutable per session after NewRestaurant.
type Restaurant struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	DisplayName       string   `json:"display_name,omitempty"`
	CuisineTags       []string `json:"cuisine_tags,omitempty"`
	PriceLevel        string   `json:"price_level,omitempty"`
	ServiceStyle      []string `json:"service_style,omitempty"`
	DietCoverage      []string `json:"diet_coverage,omitempty"`
	PopularCategories []string `json:"popular_categories,omitempty"`
	SummaryText       string   `json:"summary_text,omitempty"`
	Items             []Item   `json:"items"`

	// tercile cutoffs over the item price distribution; zero when fallback
	// thresholds are in effect.
	lowCeiling    float64
	mediumCeiling float64
	useTerciles   bool

	byID map[string]*Item
}

// NewRestaurant finalizes a loaded profile: indexes items, derives diet
// coverage when the profile omits it, and fixes the price bucket cutoffs.
// An empty item collection is valid.
func NewRestaurant(r Restaurant) *Restaurant {
	out := r
	out.byID = make(map[string]*Item, len(out.Items))
	for i := range out.Items {
		out.byID[out.Items[i].ID] = &out.Items[i]
	}
	if len(out.DietCoverage) == 0 {
		out.DietCoverage = deriveDietCoverage(out.Items)
	}
	out.computeBucketCutoffs()
	return &out
}

func (r *Restaurant) ItemByID(id string) (Item, bool) {
	it, ok := r.byID[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// PriceBucketOf discretizes an item price relative to this restaurant's
// distribution: low <= P33 < medium <= P66 < high. Menus with fewer than
// three priced items use the absolute fallback thresholds instead.
func (r *Restaurant) PriceBucketOf(it Item) PriceBucket {
	if !r.useTerciles {
		switch {
		case it.Price < fallbackLowCeiling:
			return BucketLow
		case it.Price < fallbackMediumCeiling:
			return BucketMedium
		default:
			return BucketHigh
		}
	}
	switch {
	case it.Price <= r.lowCeiling:
		return BucketLow
	case it.Price <= r.mediumCeiling:
		return BucketMedium
	default:
		return BucketHigh
	}
}

// ContentFingerprint hashes every item fingerprint in order. It names the
// on-disk embedding cache, so any item change rolls the cache file over.
func (r *Restaurant) ContentFingerprint() string {
	h := sha256.New()
	for _, it := range r.Items {
		h.Write([]byte(it.Fingerprint()))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (r *Restaurant) computeBucketCutoffs() {
	prices := make([]float64, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Price > 0 {
			prices = append(prices, it.Price)
		}
	}
	if len(prices) < 3 {
		r.useTerciles = false
		return
	}
	sort.Float64s(prices)
	n := len(prices)
	r.lowCeiling = prices[(n-1)/3]
	r.mediumCeiling = prices[(2*(n-1))/3]
	r.useTerciles = true
}

func deriveDietCoverage(items []Item) []string {
	seen := make(map[string]struct{})
	var coverage []string
	for _, it := range items {
		for _, tag := range it.DietTags {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				coverage = append(coverage, key)
			}
		}
	}
	sort.Strings(coverage)
	return coverage
}

// AdjacentBuckets returns the buckets exactly one step away in the fixed
// low/medium/high ordering. Used by the search engine's relaxation path.
func AdjacentBuckets(b PriceBucket) []PriceBucket {
	switch b {
	case BucketLow:
		return []PriceBucket{BucketMedium}
	case BucketMedium:
		return []PriceBucket{BucketLow, BucketHigh}
	case BucketHigh:
		return []PriceBucket{BucketMedium}
	default:
		return nil
	}
}
