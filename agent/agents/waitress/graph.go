package waitress

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/parlaplate/parlaplate/agent/contract"
	nodex "github.com/parlaplate/parlaplate/agent/nodes/waitress"
)

func (w *Waitress) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, w.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadState(ctx, in, w.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_state: %w", err)
	}

	if err := graph.AddLambdaNode("classify",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Classify(ctx, in, w.models.Classifier())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify: %w", err)
	}

	if err := graph.AddLambdaNode("direct_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DirectReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node direct_reply: %w", err)
	}

	if err := graph.AddLambdaNode("search_and_ground",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			if in == nil || in.Session == nil {
				return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
			}
			restaurant, err := w.library.Get(in.Session.RestaurantID)
			if err != nil {
				return nil, err
			}
			return nodex.SearchAndGround(ctx, in, w.engine, restaurant, w.models.Responder())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node search_and_ground: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_confirm",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveConfirm(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_confirm: %w", err)
	}

	if err := graph.AddLambdaNode("commit_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CommitState(ctx, in, w.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node commit_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			switch {
			case in.Decision.Intent.GrantsMenuAccess():
				return "search_and_ground", nil
			case in.Decision.Intent == contractx.IntentConfirm:
				return "resolve_confirm", nil
			default:
				return "direct_reply", nil
			}
		},
		map[string]bool{
			"search_and_ground": true,
			"resolve_confirm":   true,
			"direct_reply":      true,
		},
	)

	if err := graph.AddBranch("classify", branch); err != nil {
		return nil, fmt.Errorf("add turn branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_state"},
		{"load_state", "classify"},
		{"direct_reply", "commit_state"},
		{"search_and_ground", "commit_state"},
		{"resolve_confirm", "commit_state"},
		{"commit_state", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("waitress.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile waitress graph: %w", err)
	}
	return runner, nil
}
