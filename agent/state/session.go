package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GateState is the conversation gate. Menu items may only be surfaced while
// the gate is in a menu-granting state; see MenuAllowed.
type GateState string

const (
	GateInit                  GateState = "init"
	GateAwaitingClarification GateState = "awaiting_clarification"
	GateOpen                  GateState = "open"
	GateDelegated             GateState = "delegated"
	GateOrderPending          GateState = "order_pending"
	GateClosed                GateState = "closed"
)

// MenuAllowed reports whether the gate permits surfacing menu items.
func (g GateState) MenuAllowed() bool {
	switch g {
	case GateOpen, GateDelegated, GateOrderPending:
		return true
	default:
		return false
	}
}

func (g GateState) Valid() bool {
	switch g {
	case GateInit, GateAwaitingClarification, GateOpen, GateDelegated, GateOrderPending, GateClosed:
		return true
	default:
		return false
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Candidate is one entry of the last shortlist shown to the user. It carries
// enough display data that reference resolution never re-queries the menu.
type Candidate struct {
	ItemID    string   `json:"item_id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Allergens []string `json:"allergens,omitempty"`
}

type OrderLine struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

var (
	ErrInvalidSession     = errors.New("session id is empty")
	ErrNoCandidates       = errors.New("no candidates have been shown")
	ErrReferenceNotFound  = errors.New("reference does not match any shown candidate")
	ErrAmbiguousReference = errors.New("reference matches more than one shown candidate")
	ErrInvalidGateState   = errors.New("invalid gate state")
	ErrInvalidOrderLine   = errors.New("order line is invalid")
)

// SessionState is per-conversation memory, owned exclusively by the waitress
// orchestrator: it is loaded at turn start, mutated on a working copy, and
// committed only after the turn's external calls have succeeded.
type SessionState struct {
	SessionID    string      `json:"session_id"`
	PersonaID    string      `json:"persona_id"`
	RestaurantID string      `json:"restaurant_id"`
	Gate         GateState   `json:"gate"`
	History      []Turn      `json:"history,omitempty"`
	Candidates   []Candidate `json:"candidates,omitempty"`
	PendingOrder []OrderLine `json:"pending_order,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func NewSessionState(sessionID, personaID, restaurantID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:    sessionID,
		PersonaID:    personaID,
		RestaurantID: restaurantID,
		Gate:         GateInit,
		UpdatedAt:    now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *SessionState) AppendTurn(role Role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	s.History = append(s.History, Turn{Role: role, Content: content})
}

// RecentHistory returns up to the last n turns.
func (s *SessionState) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// SetCandidates replaces the referencable shortlist with the one just shown.
func (s *SessionState) SetCandidates(cands []Candidate) {
	s.Candidates = cands
}

// ResolveReference maps a confirmation message onto one of the last shown
// candidates. Ordinals ("first", "the 2nd one", "3") and case-insensitive
// name substrings are accepted; a substring hitting several candidates is
// ambiguous and must be clarified rather than guessed.
func (s *SessionState) ResolveReference(text string) (Candidate, error) {
	if len(s.Candidates) == 0 {
		return Candidate{}, ErrNoCandidates
	}

	lowered := strings.ToLower(text)

	if idx, ok := ordinalIndex(lowered); ok {
		if idx >= len(s.Candidates) {
			return Candidate{}, fmt.Errorf("%w: ordinal %d of %d shown", ErrReferenceNotFound, idx+1, len(s.Candidates))
		}
		return s.Candidates[idx], nil
	}

	var hits []Candidate
	for _, c := range s.Candidates {
		if nameMatches(lowered, c.Name) {
			hits = append(hits, c)
		}
	}
	switch len(hits) {
	case 0:
		if len(s.Candidates) == 1 && soundsAffirmative(lowered) {
			return s.Candidates[0], nil
		}
		return Candidate{}, ErrReferenceNotFound
	case 1:
		return hits[0], nil
	default:
		return Candidate{}, ErrAmbiguousReference
	}
}

// AddToOrder appends a confirmed candidate to the pending order, merging
// quantities for repeated items.
func (s *SessionState) AddToOrder(c Candidate, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	for i := range s.PendingOrder {
		if s.PendingOrder[i].ItemID == c.ItemID {
			s.PendingOrder[i].Quantity += quantity
			return
		}
	}
	s.PendingOrder = append(s.PendingOrder, OrderLine{
		ItemID:   c.ItemID,
		Name:     c.Name,
		Quantity: quantity,
	})
}

func (s *SessionState) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if !s.Gate.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGateState, s.Gate)
	}
	for _, line := range s.PendingOrder {
		if line.ItemID == "" || line.Quantity <= 0 {
			return fmt.Errorf("%w: item=%q quantity=%d", ErrInvalidOrderLine, line.ItemID, line.Quantity)
		}
	}
	return nil
}

// Clone deep-copies the session so a turn can work on a scratch value and
// commit atomically. Gate rollback on a failed turn is just "don't save".
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.History = append([]Turn(nil), s.History...)
	out.PendingOrder = append([]OrderLine(nil), s.PendingOrder...)
	out.Candidates = make([]Candidate, len(s.Candidates))
	for i, c := range s.Candidates {
		cc := c
		cc.Allergens = append([]string(nil), c.Allergens...)
		out.Candidates[i] = cc
	}
	return &out
}

var ordinalWords = map[string]int{
	"first": 0, "1st": 0,
	"second": 1, "2nd": 1,
	"third": 2, "3rd": 2,
}

func ordinalIndex(lowered string) (int, bool) {
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if idx, ok := ordinalWords[f]; ok {
			return idx, true
		}
		if n, err := strconv.Atoi(f); err == nil && n >= 1 && n <= 3 {
			return n - 1, true
		}
	}
	return 0, false
}

func nameMatches(lowered, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	if strings.Contains(lowered, name) {
		return true
	}
	// Fall back to matching any distinctive word of the item name.
	for _, w := range strings.Fields(name) {
		if len(w) >= 4 && strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}

var affirmativeWords = map[string]bool{
	"yes": true, "yep": true, "yeah": true, "sure": true, "ok": true, "okay": true,
}

var affirmativePhrases = []string{"that one", "sounds good", "take it", "i'll have it"}

var negationWords = map[string]bool{
	"no": true, "not": true, "nope": true, "nah": true, "don't": true, "dont": true,
}

// soundsAffirmative matches whole words so "ok" inside "looking" or "that
// one" inside "not that one" never reads as an acceptance.
func soundsAffirmative(lowered string) bool {
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && r != '\''
	})
	for _, w := range words {
		if negationWords[w] {
			return false
		}
	}
	for _, w := range words {
		if affirmativeWords[w] {
			return true
		}
	}
	for _, p := range affirmativePhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
