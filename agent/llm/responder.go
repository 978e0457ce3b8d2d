package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/parlaplate/parlaplate/agent/contract"
	personax "github.com/parlaplate/parlaplate/agent/persona"
)

type responderImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newResponder(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*responderImpl, error) {
	runner, err := compileResponderGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile responder graph: %v", contractx.ErrReplyGeneration, err)
	}
	return &responderImpl{runner: runner}, nil
}

func (r *responderImpl) Ground(ctx context.Context, req contractx.GroundRequest) (string, error) {
	p, err := personax.Get(req.PersonaID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	payload := map[string]any{
		"persona":      p.SystemPrompt,
		"history":      summarizeHistory(req.History),
		"user_message": req.Message,
		"shortlist":    req.Shortlist,
		"delegated":    req.Delegated,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal responder payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return "", fmt.Errorf("%w: responder invoke: %v", contractx.ErrReplyGeneration, err)
	}
	if out == nil {
		return "", fmt.Errorf("%w: responder returned nil message", contractx.ErrReplyGeneration)
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: responder returned empty reply", contractx.ErrReplyGeneration)
	}
	return reply, nil
}
