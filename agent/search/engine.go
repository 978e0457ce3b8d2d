package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	menux "github.com/parlaplate/parlaplate/agent/menu"
)

// MaxShortlist caps every search result. The reply generator mentions at
// most this many items, so returning more would only leak past the cap.
const MaxShortlist = 3

// Strategy selects the ranking mode.
type Strategy string

const (
	// StrategyTopK is pure similarity ranking under constraints.
	StrategyTopK Strategy = "top_k"
	// StrategyDiverse builds a delegated proposal: a coherent small set that
	// spreads across categories rather than clustering around the query.
	StrategyDiverse Strategy = "diverse"
)

// Diagnostic flags an item excluded from ranking for this call.
type Diagnostic struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// Result is the outcome of one search call. PriceRelaxed records that the
// documented relaxation (adjacent price bucket) was applied; the dietary
// filter is never relaxed.
type Result struct {
	Items        []contractx.ShortlistItem
	Diagnostics  []Diagnostic
	PriceRelaxed bool
}

// Engine ranks a restaurant's items against a per-turn query. It owns the
// only mutating access to the embedding stores; everything else is read-only,
// so concurrent searches from independent sessions are safe.
type Engine struct {
	embedder contractx.Embedder

	fixed Store

	mu     sync.Mutex
	dir    string
	stores map[string]Store // restaurant content fingerprint -> store
}

// NewEngine builds an engine over a single shared store. A nil store means a
// process-scoped in-memory cache.
func NewEngine(embedder contractx.Embedder, store Store) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrValidation)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Engine{embedder: embedder, fixed: store}, nil
}

// NewPersistentEngine builds an engine that keeps one cache file per
// restaurant content fingerprint under dir. A changed menu gets a fresh file;
// the stale one is simply never opened again.
func NewPersistentEngine(embedder contractx.Embedder, dir string) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: cache dir is required", contractx.ErrValidation)
	}
	return &Engine{
		embedder: embedder,
		dir:      dir,
		stores:   make(map[string]Store),
	}, nil
}

func (e *Engine) storeOf(r *menux.Restaurant) Store {
	if e.fixed != nil {
		return e.fixed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fp := r.ContentFingerprint()
	st, ok := e.stores[fp]
	if !ok {
		st = NewFileStore(e.dir, fp, e.embedder.Dimensions())
		e.stores[fp] = st
	}
	return st
}

// EnsureEmbeddings populates the store for every item whose fingerprint has
// no valid record. Idempotent: unchanged content means no external call. A
// failing batch falls back to per-item calls so one bad item cannot take the
// whole menu down; failures are reported as diagnostics, not errors.
func (e *Engine) EnsureEmbeddings(ctx context.Context, r *menux.Restaurant) []Diagnostic {
	store := e.storeOf(r)

	var missing []menux.Item
	for _, it := range r.Items {
		if _, ok := store.Get(it.Fingerprint()); !ok {
			missing = append(missing, it)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	defer e.flush(store)

	texts := make([]string, len(missing))
	for i, it := range missing {
		texts[i] = it.SearchText()
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) == len(missing) {
		return e.storeVectors(store, missing, vectors)
	}
	if err != nil {
		log.Warn().Err(err).Int("items", len(missing)).Msg("batch embedding failed, retrying per item")
	}

	var diags []Diagnostic
	for i, it := range missing {
		vecs, itemErr := e.embedder.EmbedTexts(ctx, texts[i:i+1])
		if itemErr != nil || len(vecs) != 1 {
			reason := "embedding call failed"
			if itemErr != nil {
				reason = itemErr.Error()
			}
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: reason})
			log.Warn().Str("item", it.ID).Str("reason", reason).Msg("item excluded from ranking")
			continue
		}
		diags = append(diags, e.storeVectors(store, missing[i:i+1], vecs)...)
	}
	return diags
}

func (e *Engine) flush(store Store) {
	fs, ok := store.(*FileStore)
	if !ok {
		return
	}
	if err := fs.Flush(); err != nil {
		log.Warn().Err(err).Msg("embedding cache flush failed")
	}
}

func (e *Engine) storeVectors(store Store, items []menux.Item, vectors [][]float64) []Diagnostic {
	var diags []Diagnostic
	for i, it := range items {
		vec := vectors[i]
		if len(vec) != e.embedder.Dimensions() {
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: "unexpected vector dimensionality"})
			continue
		}
		rec := Record{ItemID: it.ID, Fingerprint: it.Fingerprint(), Vector: vec}
		if err := store.Put(rec); err != nil {
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: err.Error()})
		}
	}
	return diags
}

// Search returns a ranked, filtered shortlist of at most k items (k capped at
// MaxShortlist). Dietary constraints are hard; the price bucket is the sole
// soft constraint, relaxed by exactly one step in the low/medium/high
// ordering and only when the strict filter yields nothing. Ranking is
// deterministic: similarity descending, item ID ascending on ties. An empty
// menu returns an empty result, not an error.
func (e *Engine) Search(ctx context.Context, r *menux.Restaurant, query contractx.Query, k int, strategy Strategy) (Result, error) {
	if k <= 0 || k > MaxShortlist {
		k = MaxShortlist
	}

	res := Result{Diagnostics: e.EnsureEmbeddings(ctx, r)}
	if len(r.Items) == 0 {
		return res, nil
	}
	store := e.storeOf(r)

	queryVec, err := e.embedQuery(ctx, query)
	if err != nil {
		return res, err
	}

	type scored struct {
		item   menux.Item
		vector []float64
		score  float64
	}

	var pool []scored
	for _, it := range r.Items {
		rec, ok := store.Get(it.Fingerprint())
		if !ok {
			// Already flagged by EnsureEmbeddings.
			continue
		}
		if !it.HasAllDietTags(query.DietTags) {
			continue
		}
		score := 0.0
		if queryVec != nil {
			score = cosine(queryVec, rec.Vector)
		}
		pool = append(pool, scored{item: it, vector: rec.Vector, score: score})
	}

	// Price filter: strict first, then the documented one-step relaxation.
	pref := menux.PriceBucket(strings.ToLower(strings.TrimSpace(query.PricePreference)))
	priceMatched := map[string]string{}
	if pref == menux.BucketLow || pref == menux.BucketMedium || pref == menux.BucketHigh {
		var strict, adjacent []scored
		for _, s := range pool {
			bucket := r.PriceBucketOf(s.item)
			if bucket == pref {
				strict = append(strict, s)
				priceMatched[s.item.ID] = "price:" + string(bucket)
				continue
			}
			for _, adj := range menux.AdjacentBuckets(pref) {
				if bucket == adj {
					adjacent = append(adjacent, s)
					priceMatched[s.item.ID] = "price:adjacent:" + string(bucket)
				}
			}
		}
		if len(strict) > 0 {
			pool = strict
		} else {
			pool = adjacent
			res.PriceRelaxed = len(adjacent) > 0
		}
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].item.ID < pool[j].item.ID
	})

	if strategy == StrategyDiverse {
		reordered := make([]scored, 0, len(pool))
		remaining := append([]scored(nil), pool...)
		seenCategories := map[string]bool{}
		for len(remaining) > 0 && len(reordered) < k {
			pick := 0
			for i, s := range remaining {
				if !seenCategories[s.item.Category] {
					pick = i
					break
				}
			}
			chosen := remaining[pick]
			seenCategories[chosen.item.Category] = true
			reordered = append(reordered, chosen)
			remaining = append(remaining[:pick], remaining[pick+1:]...)
		}
		pool = reordered
	}

	if len(pool) > k {
		pool = pool[:k]
	}

	for _, s := range pool {
		matched := make([]string, 0, len(query.DietTags)+1)
		for _, tag := range query.DietTags {
			matched = append(matched, "diet:"+strings.ToLower(tag))
		}
		if m, ok := priceMatched[s.item.ID]; ok {
			matched = append(matched, m)
		}
		res.Items = append(res.Items, contractx.ShortlistItem{
			ItemID:             s.item.ID,
			Name:               s.item.Name,
			Price:              s.item.Price,
			PriceBucket:        string(r.PriceBucketOf(s.item)),
			Ingredients:        s.item.Ingredients,
			Allergens:          s.item.Allergens,
			Score:              s.score,
			MatchedConstraints: matched,
		})
	}
	return res, nil
}

// embedQuery returns nil without calling out when the query has no text,
// which happens on fully delegated turns. A failed query embedding aborts
// the search: there is nothing meaningful to rank against.
func (e *Engine) embedQuery(ctx context.Context, query contractx.Query) ([]float64, error) {
	text := strings.TrimSpace(query.Text())
	if text == "" {
		return nil, nil
	}
	vecs, err := e.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", contractx.ErrEmbedding, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: query: expected 1 vector, got %d", contractx.ErrEmbedding, len(vecs))
	}
	return vecs[0], nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
