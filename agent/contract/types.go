package contract

import (
	statex "github.com/parlaplate/parlaplate/agent/state"
)

// Intent is the mutually exclusive category assigned to each user message by
// the decision gate's classification call.
type Intent string

const (
	// IntentClarifyNeeded: food-adjacent but ambiguous. One clarifying
	// question, no menu access.
	IntentClarifyNeeded Intent = "CLARIFY_NEEDED"
	// IntentDelegate: the user defers the choice ("you pick", "surprise me").
	// Menu access granted for a coherent small proposal.
	IntentDelegate Intent = "DELEGATE"
	// IntentClear: a concrete preference was stated. Menu access granted.
	IntentClear Intent = "INTENT_CLEAR"
	// IntentConfirm: the user accepts a previously shown candidate.
	IntentConfirm Intent = "CONFIRM"
	// IntentOther: small talk or unrelated. Gate unchanged, no menu access.
	// Also the fail-closed default when classification fails.
	IntentOther Intent = "OTHER"
)

func (i Intent) Known() bool {
	switch i {
	case IntentClarifyNeeded, IntentDelegate, IntentClear, IntentConfirm, IntentOther:
		return true
	default:
		return false
	}
}

// GrantsMenuAccess reports whether this intent opens the menu for the turn.
func (i Intent) GrantsMenuAccess() bool {
	return i == IntentDelegate || i == IntentClear
}

// Query is the structured search input derived from one user turn. It is
// produced by the classification call so that no separate extraction call is
// spent; it is ephemeral and never persisted.
type Query struct {
	Keywords        []string `json:"keywords,omitempty"`
	DietTags        []string `json:"diet,omitempty"`
	PricePreference string   `json:"price_preference,omitempty"` // low|medium|high
	Mood            []string `json:"mood,omitempty"`
}

// HasConstraints reports whether the query carries explicit constraints.
// A delegating message with constraints classifies as INTENT_CLEAR: explicit
// constraints exist to honor.
func (q Query) HasConstraints() bool {
	return len(q.DietTags) > 0 || q.PricePreference != ""
}

// Text flattens the query into the string that gets embedded.
func (q Query) Text() string {
	parts := make([]string, 0, len(q.Keywords)+len(q.DietTags)+len(q.Mood)+1)
	parts = append(parts, q.Keywords...)
	parts = append(parts, q.DietTags...)
	if q.PricePreference != "" {
		parts = append(parts, "price-"+q.PricePreference)
	}
	parts = append(parts, q.Mood...)
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// ClassifyRequest is the input of the classification+reply call.
type ClassifyRequest struct {
	PersonaID string            `json:"persona_id"`
	Gate      statex.GateState  `json:"gate"`
	History   []statex.Turn     `json:"history,omitempty"`
	Message   string            `json:"message"`
}

// ClassifyResult is the typed outcome of the classification+reply call.
// DirectReply is present for intents that never touch the menu; Query is
// present when menu access is granted; Finalize signals that a CONFIRM
// completes the whole order.
type ClassifyResult struct {
	Intent      Intent `json:"intent"`
	DirectReply string `json:"direct_reply,omitempty"`
	Query       Query  `json:"query,omitempty"`
	Finalize    bool   `json:"finalize,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// ShortlistItem is one ranked search result. Allergens ride along so the
// reply generator never has to re-fetch them.
type ShortlistItem struct {
	ItemID             string   `json:"item_id"`
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	PriceBucket        string   `json:"price_bucket"`
	Ingredients        []string `json:"ingredients,omitempty"`
	Allergens          []string `json:"allergens"`
	Score              float64  `json:"score"`
	MatchedConstraints []string `json:"matched_constraints,omitempty"`
}

// GroundRequest is the input of the menu-grounded reply call. The reply must
// reference only the supplied shortlist, mention at most three items, and
// include each item's allergen info.
type GroundRequest struct {
	PersonaID string          `json:"persona_id"`
	History   []statex.Turn   `json:"history,omitempty"`
	Message   string          `json:"message"`
	Shortlist []ShortlistItem `json:"shortlist"`
	Delegated bool            `json:"delegated"`
}
