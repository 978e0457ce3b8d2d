package order

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

func TestFromSessionTotalsAndSerialization(t *testing.T) {
	t.Parallel()

	st := statex.NewSessionState("s1", "mert", "kebab-house", time.Now())
	st.PendingOrder = []statex.OrderLine{
		{ItemID: "adana", Name: "Adana Kebab", Quantity: 2},
		{ItemID: "ayran", Name: "Ayran", Quantity: 1},
	}

	prices := map[string]float64{"adana": 14, "ayran": 3}
	priceOf := func(id string) (float64, bool) {
		p, ok := prices[id]
		return p, ok
	}

	now := time.Date(2026, 8, 28, 19, 30, 0, 0, time.UTC)
	o, err := FromSession(st, "Kebab House", priceOf, now)
	if err != nil {
		t.Fatalf("FromSession() error = %v", err)
	}

	if o.Total != 31 {
		t.Fatalf("total = %v, want 31", o.Total)
	}
	if o.PersonaID != "mert" || o.Restaurant != "Kebab House" {
		t.Fatalf("header = %s / %s", o.PersonaID, o.Restaurant)
	}

	raw, err := o.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if _, ok := decoded["order"]; !ok {
		t.Fatal("export must carry the order lines")
	}
}

func TestFromSessionToleratesUnknownPrices(t *testing.T) {
	t.Parallel()

	st := statex.NewSessionState("s1", "mert", "kebab-house", time.Now())
	st.PendingOrder = []statex.OrderLine{
		{ItemID: "mystery", Name: "Mystery Dish", Quantity: 1},
	}

	o, err := FromSession(st, "Kebab House", func(string) (float64, bool) { return 0, false }, time.Now())
	if err != nil {
		t.Fatalf("FromSession() error = %v", err)
	}
	if o.Total != 0 {
		t.Fatalf("total = %v, want 0 for unpriced items", o.Total)
	}
	if len(o.Items) != 1 {
		t.Fatalf("items = %d", len(o.Items))
	}
}

func TestFromSessionRejectsEmptyOrder(t *testing.T) {
	t.Parallel()

	st := statex.NewSessionState("s1", "mert", "kebab-house", time.Now())
	_, err := FromSession(st, "Kebab House", func(string) (float64, bool) { return 0, false }, time.Now())
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if _, err := FromSession(nil, "Kebab House", nil, time.Now()); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil session, got %v", err)
	}
}
