package waitressnode

import (
	"fmt"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
)

// DirectReply finishes turns that never touch the menu. The reply came out of
// the classification call, so the turn stays at one external call total.
func DirectReply(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Decision.DirectReply == "" {
		return nil, fmt.Errorf("%w: direct reply is empty for intent %s", contractx.ErrReplyGeneration, in.Decision.Intent)
	}

	in.Reply = in.Decision.DirectReply
	return in, nil
}
