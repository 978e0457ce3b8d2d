package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

var slugPattern = regexp.MustCompile(`[^a-z0-9\-_]+`)

// document mirrors the JSON layout produced by the extraction pipeline:
// a restaurant profile plus the full item array.
type document struct {
	Restaurant Restaurant `json:"restaurant"`
	Items      []Item     `json:"items"`
}

// Load reads one menu document. Missing item IDs are filled with a slug of
// the item name so every item has a stable within-restaurant identifier.
// An empty or absent item array is not an error.
func Load(path string) (*Restaurant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode menu document %s: %w", filepath.Base(path), err)
	}

	r := doc.Restaurant
	r.Items = doc.Items
	if strings.TrimSpace(r.Name) == "" {
		r.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if strings.TrimSpace(r.ID) == "" {
		r.ID = Slug(r.Name)
	}

	seen := make(map[string]int, len(r.Items))
	for i := range r.Items {
		id := strings.TrimSpace(r.Items[i].ID)
		if id == "" {
			id = Slug(r.Items[i].Name)
		}
		// Disambiguate duplicate IDs (menu variants often repeat names, and
		// explicit IDs can collide too).
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n+1)
		}
		seen[id]++
		r.Items[i].ID = id
	}

	return NewRestaurant(r), nil
}

// Slug normalizes a display name into an identifier.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugPattern.ReplaceAllString(s, "")
	if s == "" {
		return "item"
	}
	return s
}

// Library is a read-only set of loaded restaurants keyed by ID. It is
// populated once at startup and safe for concurrent reads afterwards.
type Library struct {
	restaurants map[string]*Restaurant
	order       []string
}

// LoadDir loads every .json menu document under dir. A missing directory
// yields an empty library rather than an error.
func LoadDir(dir string) (*Library, error) {
	lib := &Library{restaurants: make(map[string]*Restaurant)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lib, nil
		}
		return nil, fmt.Errorf("read menu dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		r, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		lib.Add(r)
	}
	return lib, nil
}

func (l *Library) Add(r *Restaurant) {
	if l.restaurants == nil {
		l.restaurants = make(map[string]*Restaurant)
	}
	if _, ok := l.restaurants[r.ID]; !ok {
		l.order = append(l.order, r.ID)
	}
	l.restaurants[r.ID] = r
}

func (l *Library) Get(id string) (*Restaurant, error) {
	r, ok := l.restaurants[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", ErrRestaurantNotFound, id)
	}
	return r, nil
}

func (l *Library) List() []*Restaurant {
	out := make([]*Restaurant, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.restaurants[id])
	}
	return out
}
