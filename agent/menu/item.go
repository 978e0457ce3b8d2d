package menu

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

type SpiceLevel string

const (
	SpiceLow    SpiceLevel = "low"
	SpiceMedium SpiceLevel = "medium"
	SpiceHigh   SpiceLevel = "high"
)

// Item is a single menu entry. Items are immutable once loaded for a session;
// they are produced by the extraction pipeline upstream of this module.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Ingredients []string   `json:"ingredients,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	Allergens   []string   `json:"allergens,omitempty"`
	DietTags    []string   `json:"diet_tags,omitempty"`
	Category    string     `json:"category,omitempty"`
	SpiceLevel  SpiceLevel `json:"spice_level,omitempty"`
}

// fingerprintView pins the field set and order that participate in the
// content hash, so unrelated struct changes cannot silently invalidate caches.
type fingerprintView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Ingredients []string `json:"ingredients"`
	Keywords    []string `json:"keywords"`
	Allergens   []string `json:"allergens"`
	DietTags    []string `json:"diet_tags"`
	Category    string   `json:"category"`
}

// Fingerprint returns a deterministic content hash of the item. A cached
// embedding is valid only while its stored fingerprint matches this value.
func (it Item) Fingerprint() string {
	view := fingerprintView{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price,
		Ingredients: it.Ingredients,
		Keywords:    it.Keywords,
		Allergens:   it.Allergens,
		DietTags:    it.DietTags,
		Category:    it.Category,
	}
	raw, err := json.Marshal(view)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the signature simple.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// SearchText builds the lowercased text representation that gets embedded.
func (it Item) SearchText() string {
	parts := make([]string, 0, 4+len(it.Ingredients)+len(it.Keywords))
	parts = append(parts, it.Name)
	if it.Description != "" {
		parts = append(parts, it.Description)
	}
	parts = append(parts, it.Ingredients...)
	parts = append(parts, it.Keywords...)
	if it.Category != "" {
		parts = append(parts, it.Category)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// HasAllDietTags reports whether the item carries every requested dietary tag.
// Matching is case-insensitive. An empty request always matches.
func (it Item) HasAllDietTags(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(it.DietTags))
	for _, t := range it.DietTags {
		have[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, want := range tags {
		if _, ok := have[strings.ToLower(strings.TrimSpace(want))]; !ok {
			return false
		}
	}
	return true
}
