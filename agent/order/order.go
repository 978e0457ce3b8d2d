// Package order builds the exportable record for a finalized (or pending)
// order. The export is the only structured artifact that leaves a session.
package order

import (
	"encoding/json"
	"fmt"
	"time"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

type Line struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

type Order struct {
	Items      []Line    `json:"order"`
	PersonaID  string    `json:"persona"`
	Restaurant string    `json:"restaurant"`
	Total      float64   `json:"total,omitempty"`
	CreatedAt  time.Time `json:"timestamp"`
}

// FromSession serializes the session's pending order. priceOf resolves the
// unit price per item ID; it may report absence for items whose price was
// never extracted.
func FromSession(st *statex.SessionState, restaurantName string, priceOf func(itemID string) (float64, bool), now time.Time) (*Order, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: session is nil", contractx.ErrValidation)
	}
	if len(st.PendingOrder) == 0 {
		return nil, fmt.Errorf("%w: pending order is empty", contractx.ErrValidation)
	}

	o := &Order{
		PersonaID:  st.PersonaID,
		Restaurant: restaurantName,
		CreatedAt:  now.UTC(),
	}
	for _, line := range st.PendingOrder {
		out := Line{ItemID: line.ItemID, Name: line.Name, Quantity: line.Quantity}
		if price, ok := priceOf(line.ItemID); ok {
			out.Price = price
			o.Total += price * float64(line.Quantity)
		}
		o.Items = append(o.Items, out)
	}
	return o, nil
}

// Serialize renders the order as pretty JSON for download/export.
func (o *Order) Serialize() ([]byte, error) {
	raw, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize order: %w", err)
	}
	return raw, nil
}
