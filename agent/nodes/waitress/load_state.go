package waitressnode

import (
	"context"
	"fmt"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

// LoadState fetches the session's working copy. Sessions are created
// explicitly before the first turn, so an unknown id is an error rather than
// an implicit create: a fresh state would have no persona or restaurant bound.
func LoadState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	in.Session = st
	in.PriorGate = st.Gate
	return in, nil
}
