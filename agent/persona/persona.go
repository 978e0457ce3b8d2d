// Package persona holds the waitress persona definitions. System prompts are
// embedded at compile time; lookups are read-only and concurrency safe.
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPersona = errors.New("unknown persona")

type Persona struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Emoji        string `json:"emoji"`
	Summary      string `json:"summary"`
	SystemPrompt string `json:"-"`
}

var (
	//go:embed template/ayla.txt
	aylaRaw string

	//go:embed template/zeyna.txt
	zeynaRaw string

	//go:embed template/mert.txt
	mertRaw string

	//go:embed template/alessandro.txt
	alessandroRaw string

	//go:embed template/lara.txt
	laraRaw string
)

var personas = []Persona{
	{ID: "ayla", Name: "Ayla", Emoji: "🥗", Summary: "balanced, health-minded picks", SystemPrompt: strings.TrimSpace(aylaRaw)},
	{ID: "zeyna", Name: "Zeyna", Emoji: "🔮", Summary: "intuitive, mood-driven guidance", SystemPrompt: strings.TrimSpace(zeynaRaw)},
	{ID: "mert", Name: "Mert", Emoji: "💸", Summary: "practical, wallet-friendly picks", SystemPrompt: strings.TrimSpace(mertRaw)},
	{ID: "alessandro", Name: "Alessandro", Emoji: "👨‍🍳", Summary: "seasoned, precise recommendations", SystemPrompt: strings.TrimSpace(alessandroRaw)},
	{ID: "lara", Name: "Lara", Emoji: "🌸", Summary: "warm and reassuring approach", SystemPrompt: strings.TrimSpace(laraRaw)},
}

func Get(id string) (Persona, error) {
	for _, p := range personas {
		if p.ID == strings.ToLower(strings.TrimSpace(id)) {
			return p, nil
		}
	}
	return Persona{}, fmt.Errorf("%w: %q", ErrUnknownPersona, id)
}

// List returns all personas in their fixed display order.
func List() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}
