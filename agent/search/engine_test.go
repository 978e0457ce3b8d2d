package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	menux "github.com/parlaplate/parlaplate/agent/menu"
)

// fakeEmbedder maps texts onto fixed axes so similarity is predictable:
// a text scores 1 on an axis when it contains the axis word.
type fakeEmbedder struct {
	dims      int
	failTexts map[string]bool
	calls     int
	batches   [][]string
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))

	out := make([][]float64, len(texts))
	for i, text := range texts {
		if f.failTexts[text] {
			return nil, fmt.Errorf("embedding failed for %q", text)
		}
		out[i] = f.vector(text)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return f.dims
}

func (f *fakeEmbedder) vector(text string) []float64 {
	axes := []string{"spicy", "soup", "sweet"}
	v := make([]float64, f.dims)
	for i, axis := range axes {
		if i < len(v) && strings.Contains(text, axis) {
			v[i] = 1
		}
	}
	return v
}

func testRestaurant() *menux.Restaurant {
	return menux.NewRestaurant(menux.Restaurant{
		ID:   "kebab-house",
		Name: "Kebab House",
		Items: []menux.Item{
			{ID: "beef", Name: "Spicy Beef Skewer", Price: 40, Category: "mains"},
			{ID: "lamb", Name: "Spicy Lamb Kebab", Price: 60, Category: "mains"},
			{ID: "lentil", Name: "Lentil Soup", Price: 5, Category: "soup", DietTags: []string{"vegan"}},
			{ID: "tofu", Name: "Tofu Bowl", Price: 20, Category: "mains", DietTags: []string{"vegan"}},
			{ID: "veg", Name: "Vegetable Soup", Price: 10, Category: "soup", DietTags: []string{"vegan"}},
			{ID: "baklava", Name: "Sweet Baklava", Price: 90, Category: "dessert"},
		},
	})
}

func newTestEngine(t *testing.T, embedder contractx.Embedder) *Engine {
	t.Helper()
	e, err := NewEngine(embedder, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEnsureEmbeddingsIsIdempotent(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{dims: 3}
	e := newTestEngine(t, embedder)
	r := testRestaurant()

	if diags := e.EnsureEmbeddings(context.Background(), r); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %#v", diags)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected one batch call, got %d", embedder.calls)
	}
	if len(embedder.batches[0]) != len(r.Items) {
		t.Fatalf("expected all %d items in the batch, got %d", len(r.Items), len(embedder.batches[0]))
	}

	if diags := e.EnsureEmbeddings(context.Background(), r); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics on second run: %#v", diags)
	}
	if embedder.calls != 1 {
		t.Fatalf("unchanged content must not re-embed, calls = %d", embedder.calls)
	}
}

func TestSearchDietFilterIsHard(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})
	query := contractx.Query{Keywords: []string{"spicy"}, DietTags: []string{"vegan"}}

	res, err := e.Search(context.Background(), testRestaurant(), query, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Items) == 0 {
		t.Fatal("expected vegan results")
	}
	for _, it := range res.Items {
		switch it.ItemID {
		case "lentil", "tofu", "veg":
		default:
			t.Fatalf("non-vegan item %s leaked through the hard diet filter", it.ItemID)
		}
	}
}

func TestSearchUnsatisfiableDietReturnsEmpty(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})
	r := menux.NewRestaurant(menux.Restaurant{
		ID:   "steakhouse",
		Name: "Steakhouse",
		Items: []menux.Item{
			{ID: "ribeye", Name: "Ribeye", Price: 30, Category: "mains"},
			{ID: "burger", Name: "Smash Burger", Price: 15, Category: "mains", Allergens: []string{"gluten"}},
			{ID: "wings", Name: "Spicy Wings", Price: 12, Category: "starters"},
		},
	})

	query := contractx.Query{Keywords: []string{"spicy"}, DietTags: []string{"vegan"}, PricePreference: "low"}
	res, err := e.Search(context.Background(), r, query, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("diet filter must yield nothing here, got %d items", len(res.Items))
	}
	if res.PriceRelaxed {
		t.Fatal("an unsatisfiable diet must not trigger price relaxation")
	}
}

func TestSearchPriceRelaxesByOneBucket(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})

	// Terciles over [5 10 20 40 60 90]: low <= 10, medium <= 40, high above.
	// The only high-bucket vegan item does not exist, and the vegan pool has
	// nothing in the high bucket, so a "high" preference must fall back to
	// the adjacent medium bucket.
	query := contractx.Query{DietTags: []string{"vegan"}, PricePreference: "high"}
	res, err := e.Search(context.Background(), testRestaurant(), query, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !res.PriceRelaxed {
		t.Fatal("expected the price constraint to be relaxed")
	}
	if len(res.Items) != 1 || res.Items[0].ItemID != "tofu" {
		t.Fatalf("expected only the medium-bucket vegan item, got %#v", res.Items)
	}

	found := false
	for _, m := range res.Items[0].MatchedConstraints {
		if m == "price:adjacent:medium" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an adjacent-price marker, got %#v", res.Items[0].MatchedConstraints)
	}
}

func TestSearchStrictPriceMatchNeverRelaxes(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})

	query := contractx.Query{DietTags: []string{"vegan"}, PricePreference: "low"}
	res, err := e.Search(context.Background(), testRestaurant(), query, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.PriceRelaxed {
		t.Fatal("strict matches exist, relaxation must not run")
	}
	for _, it := range res.Items {
		if it.ItemID != "lentil" && it.ItemID != "veg" {
			t.Fatalf("unexpected item %s for the strict low bucket", it.ItemID)
		}
	}
}

func TestSearchEmptyMenu(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{dims: 3}
	e := newTestEngine(t, embedder)
	r := menux.NewRestaurant(menux.Restaurant{ID: "empty", Name: "Empty"})

	res, err := e.Search(context.Background(), r, contractx.Query{Keywords: []string{"anything"}}, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(res.Items))
	}
	if embedder.calls != 0 {
		t.Fatalf("an empty menu must not trigger external calls, got %d", embedder.calls)
	}
}

func TestSearchCapsShortlist(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})

	res, err := e.Search(context.Background(), testRestaurant(), contractx.Query{}, 10, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Items) > MaxShortlist {
		t.Fatalf("shortlist has %d items, cap is %d", len(res.Items), MaxShortlist)
	}
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})

	// An empty query embeds nothing, so every item scores zero and the whole
	// ordering comes down to the item ID tie-break.
	res1, err := e.Search(context.Background(), testRestaurant(), contractx.Query{}, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	res2, err := e.Search(context.Background(), testRestaurant(), contractx.Query{}, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []string{"baklava", "beef", "lamb"}
	for i, it := range res1.Items {
		if it.ItemID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, it.ItemID, want[i])
		}
	}
	for i := range res1.Items {
		if res1.Items[i].ItemID != res2.Items[i].ItemID {
			t.Fatal("identical inputs must produce identical rankings")
		}
	}
}

func TestSearchDiverseSpreadsCategories(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeEmbedder{dims: 3})
	query := contractx.Query{Keywords: []string{"spicy"}}

	res, err := e.Search(context.Background(), testRestaurant(), query, 3, StrategyDiverse)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 proposals, got %d", len(res.Items))
	}

	categories := map[string]int{}
	for _, it := range res.Items {
		switch it.ItemID {
		case "beef", "lamb", "tofu":
			categories["mains"]++
		case "lentil", "veg":
			categories["soup"]++
		case "baklava":
			categories["dessert"]++
		}
	}
	if len(categories) < 2 {
		t.Fatalf("diverse proposal clustered in one category: %#v", categories)
	}
}

func TestSearchSurvivesPartialEmbeddingFailure(t *testing.T) {
	t.Parallel()

	r := testRestaurant()
	var broken menux.Item
	for _, it := range r.Items {
		if it.ID == "lamb" {
			broken = it
		}
	}

	embedder := &fakeEmbedder{dims: 3, failTexts: map[string]bool{broken.SearchText(): true}}
	e := newTestEngine(t, embedder)

	res, err := e.Search(context.Background(), r, contractx.Query{Keywords: []string{"spicy"}}, 3, StrategyTopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	foundDiag := false
	for _, d := range res.Diagnostics {
		if d.ItemID == "lamb" {
			foundDiag = true
		}
	}
	if !foundDiag {
		t.Fatalf("expected a diagnostic for the failing item, got %#v", res.Diagnostics)
	}
	for _, it := range res.Items {
		if it.ItemID == "lamb" {
			t.Fatal("item without an embedding must not be ranked")
		}
	}
	if len(res.Items) == 0 {
		t.Fatal("healthy items must still be ranked")
	}
}

func TestSearchQueryEmbeddingFailureAborts(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{dims: 3, failTexts: map[string]bool{"sweet": true}}
	e := newTestEngine(t, embedder)

	// Warm the item embeddings first so only the query call fails.
	if diags := e.EnsureEmbeddings(context.Background(), testRestaurant()); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %#v", diags)
	}

	_, err := e.Search(context.Background(), testRestaurant(), contractx.Query{Keywords: []string{"sweet"}}, 3, StrategyTopK)
	if !errors.Is(err, contractx.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}
