package waitressnode

import (
	"context"
	"fmt"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	gatex "github.com/parlaplate/parlaplate/agent/gate"
)

// Classify runs the turn's first external call and applies the gate
// transition to the working copy. Failure aborts the turn before any menu
// access; the stored gate is untouched because nothing gets committed.
func Classify(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	decision, err := gatex.Decide(ctx, classifier, contractx.ClassifyRequest{
		PersonaID: in.Session.PersonaID,
		Gate:      in.Session.Gate,
		History:   in.Session.RecentHistory(maxHistoryTurns),
		Message:   in.Text,
	})
	if err != nil {
		return nil, err
	}

	in.Decision = decision
	in.Session.Gate = decision.NextGate
	return in, nil
}
