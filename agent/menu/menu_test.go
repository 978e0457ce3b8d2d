package menu

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprintTracksContent(t *testing.T) {
	t.Parallel()

	base := Item{
		ID:          "pide-1",
		Name:        "Cheese Pide",
		Description: "wood-fired flatbread with cheese",
		Price:       11.5,
		Ingredients: []string{"flour", "cheese"},
		DietTags:    []string{"vegetarian"},
		Category:    "mains",
	}

	same := base
	if base.Fingerprint() != same.Fingerprint() {
		t.Fatal("identical items must share a fingerprint")
	}

	changed := base
	changed.Description = "wood-fired flatbread with extra cheese"
	if base.Fingerprint() == changed.Fingerprint() {
		t.Fatal("changed description must change the fingerprint")
	}

	repriced := base
	repriced.Price = 12.0
	if base.Fingerprint() == repriced.Fingerprint() {
		t.Fatal("changed price must change the fingerprint")
	}
}

func TestHasAllDietTagsIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	it := Item{DietTags: []string{"Vegan", "gluten-free"}}

	if !it.HasAllDietTags([]string{"vegan"}) {
		t.Fatal("expected vegan to match")
	}
	if !it.HasAllDietTags([]string{"VEGAN", "Gluten-Free"}) {
		t.Fatal("expected both tags to match regardless of case")
	}
	if it.HasAllDietTags([]string{"vegan", "halal"}) {
		t.Fatal("missing tag must fail the whole constraint")
	}
	if !it.HasAllDietTags(nil) {
		t.Fatal("no constraint always matches")
	}
}

func TestPriceBucketsUseTerciles(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: "a", Name: "A", Price: 5},
		{ID: "b", Name: "B", Price: 10},
		{ID: "c", Name: "C", Price: 20},
		{ID: "d", Name: "D", Price: 40},
		{ID: "e", Name: "E", Price: 60},
		{ID: "f", Name: "F", Price: 90},
	}
	r := NewRestaurant(Restaurant{ID: "r1", Name: "Test", Items: items})

	want := map[string]PriceBucket{
		"a": BucketLow,
		"b": BucketLow,
		"c": BucketMedium,
		"d": BucketMedium,
		"e": BucketHigh,
		"f": BucketHigh,
	}
	for id, bucket := range want {
		it, ok := r.ItemByID(id)
		if !ok {
			t.Fatalf("item %s not indexed", id)
		}
		if got := r.PriceBucketOf(it); got != bucket {
			t.Fatalf("item %s: bucket = %s, want %s", id, got, bucket)
		}
	}
}

func TestPriceBucketsFallbackOnTinyMenu(t *testing.T) {
	t.Parallel()

	r := NewRestaurant(Restaurant{ID: "r1", Name: "Tiny", Items: []Item{
		{ID: "cheap", Name: "Soup", Price: 8},
		{ID: "pricey", Name: "Steak", Price: 55},
	}})

	cheap, _ := r.ItemByID("cheap")
	if got := r.PriceBucketOf(cheap); got != BucketLow {
		t.Fatalf("absolute fallback: 8 should be low, got %s", got)
	}
	pricey, _ := r.ItemByID("pricey")
	if got := r.PriceBucketOf(pricey); got != BucketHigh {
		t.Fatalf("absolute fallback: 55 should be high, got %s", got)
	}
}

func TestAdjacentBucketsAreOneStep(t *testing.T) {
	t.Parallel()

	if got := AdjacentBuckets(BucketLow); len(got) != 1 || got[0] != BucketMedium {
		t.Fatalf("adjacent of low = %v", got)
	}
	if got := AdjacentBuckets(BucketHigh); len(got) != 1 || got[0] != BucketMedium {
		t.Fatalf("adjacent of high = %v", got)
	}
	got := AdjacentBuckets(BucketMedium)
	if len(got) != 2 {
		t.Fatalf("adjacent of medium = %v", got)
	}
}

func TestContentFingerprintStable(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: "a", Name: "A", Price: 5},
		{ID: "b", Name: "B", Price: 10},
	}
	r1 := NewRestaurant(Restaurant{ID: "r", Name: "R", Items: items})
	r2 := NewRestaurant(Restaurant{ID: "r", Name: "R", Items: items})
	if r1.ContentFingerprint() != r2.ContentFingerprint() {
		t.Fatal("same content must produce the same restaurant fingerprint")
	}

	changed := NewRestaurant(Restaurant{ID: "r", Name: "R", Items: []Item{
		{ID: "a", Name: "A", Price: 6},
		{ID: "b", Name: "B", Price: 10},
	}})
	if r1.ContentFingerprint() == changed.ContentFingerprint() {
		t.Fatal("changed item content must change the restaurant fingerprint")
	}
}

func TestLoadFillsAndDeduplicatesIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "kebab-house.json")
	doc := `{
		"restaurant": {"name": "Kebab House"},
		"items": [
			{"name": "Adana Kebab", "price": 14},
			{"name": "Adana Kebab", "price": 18},
			{"id": "ayran", "name": "Ayran", "price": 3}
		]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write menu: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.ID != "kebab-house" {
		t.Fatalf("restaurant id = %s", r.ID)
	}

	seen := map[string]bool{}
	for _, it := range r.Items {
		if it.ID == "" {
			t.Fatalf("item %q has no id", it.Name)
		}
		if seen[it.ID] {
			t.Fatalf("duplicate item id %s", it.ID)
		}
		seen[it.ID] = true
	}
	if !seen["ayran"] {
		t.Fatal("explicit id must survive loading")
	}
}

func TestLoadRenamesCollidingExplicitIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "soup-place.json")
	doc := `{
		"restaurant": {"name": "Soup Place"},
		"items": [
			{"id": "soup", "name": "Lentil Soup", "price": 6},
			{"id": "soup", "name": "Vegetable Soup", "price": 7},
			{"id": "soup", "name": "Chicken Soup", "price": 8}
		]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write menu: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(r.Items) != 3 {
		t.Fatalf("item count = %d, want 3", len(r.Items))
	}

	counts := map[string]int{}
	for _, it := range r.Items {
		counts[it.ID]++
	}
	for id, n := range counts {
		if n > 1 {
			t.Fatalf("item id %s assigned %d times", id, n)
		}
	}
	for _, want := range []struct{ id, name string }{
		{"soup", "Lentil Soup"},
		{"soup-2", "Vegetable Soup"},
		{"soup-3", "Chicken Soup"},
	} {
		it, ok := r.ItemByID(want.id)
		if !ok {
			t.Fatalf("item %s not addressable by id", want.id)
		}
		if it.Name != want.name {
			t.Fatalf("item %s = %q, want %q", want.id, it.Name, want.name)
		}
	}
}

func TestLoadDirToleratesMissingDirectory(t *testing.T) {
	t.Parallel()

	lib, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(lib.List()) != 0 {
		t.Fatal("expected empty library")
	}

	if _, err := lib.Get("anything"); err == nil {
		t.Fatal("expected restaurant not found")
	}
}
