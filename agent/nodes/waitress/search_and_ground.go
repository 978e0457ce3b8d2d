package waitressnode

import (
	"context"
	"fmt"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	menux "github.com/parlaplate/parlaplate/agent/menu"
	searchx "github.com/parlaplate/parlaplate/agent/search"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

// SearchAndGround handles the menu-granting intents: rank the menu locally,
// then spend the turn's second external call on a grounded reply. The
// shortlist becomes the session's referencable candidates only after the
// reply call succeeds, so a failed reply leaves nothing half-updated.
func SearchAndGround(
	ctx context.Context,
	in *GraphState,
	engine *searchx.Engine,
	restaurant *menux.Restaurant,
	responder contractx.Responder,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if !in.Session.Gate.MenuAllowed() {
		return nil, fmt.Errorf("%w: gate %s does not allow menu access", statex.ErrInvalidGateState, in.Session.Gate)
	}

	delegated := in.Decision.Intent == contractx.IntentDelegate
	strategy := searchx.StrategyTopK
	if delegated {
		strategy = searchx.StrategyDiverse
	}

	result, err := engine.Search(ctx, restaurant, in.Decision.Query, searchx.MaxShortlist, strategy)
	if err != nil {
		return nil, err
	}

	reply, err := responder.Ground(ctx, contractx.GroundRequest{
		PersonaID: in.Session.PersonaID,
		History:   in.Session.RecentHistory(maxHistoryTurns),
		Message:   in.Text,
		Shortlist: result.Items,
		Delegated: delegated,
	})
	if err != nil {
		return nil, err
	}

	cands := make([]statex.Candidate, 0, len(result.Items))
	for _, it := range result.Items {
		cands = append(cands, statex.Candidate{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Price:     it.Price,
			Allergens: it.Allergens,
		})
	}
	in.Session.SetCandidates(cands)
	in.Shortlist = result.Items
	in.Reply = reply
	return in, nil
}
