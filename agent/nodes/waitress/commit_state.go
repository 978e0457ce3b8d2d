package waitressnode

import (
	"context"
	"fmt"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

// CommitState is the only node that persists anything. It runs after the
// turn's external calls have all succeeded, which is what makes every earlier
// failure a clean rollback.
func CommitState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.AppendTurn(statex.RoleUser, in.Text)
	in.Session.AppendTurn(statex.RoleAssistant, in.Reply)
	in.Session.Touch(in.Now)

	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}

	return in, nil
}

// FinalizeReply projects the committed turn into the graph output.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	return GraphOutput{
		Reply:      in.Reply,
		Intent:     in.Decision.Intent,
		Gate:       in.Session.Gate,
		Shortlist:  in.Shortlist,
		OrderReady: in.OrderReady,
	}, nil
}
