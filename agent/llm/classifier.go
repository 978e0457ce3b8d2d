package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/parlaplate/parlaplate/agent/contract"
	personax "github.com/parlaplate/parlaplate/agent/persona"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

type classifierImpl struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

type classifierLLMOutput struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply,omitempty"`
	Query  struct {
		Keywords        []string `json:"keywords,omitempty"`
		Diet            []string `json:"diet,omitempty"`
		PricePreference string   `json:"price_preference,omitempty"`
		Mood            []string `json:"mood,omitempty"`
	} `json:"query"`
	Finalize bool   `json:"finalize,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func newClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*classifierImpl, error) {
	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrClassification, err)
	}
	return &classifierImpl{runner: runner}, nil
}

func (c *classifierImpl) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	p, err := personax.Get(req.PersonaID)
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	payload := map[string]any{
		"persona":      p.SystemPrompt,
		"gate":         string(req.Gate),
		"history":      summarizeHistory(req.History),
		"user_message": req.Message,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrClassification, err)
	}

	res := contractx.ClassifyResult{
		Intent:      contractx.Intent(strings.ToUpper(strings.TrimSpace(out.Intent))),
		DirectReply: strings.TrimSpace(out.Reply),
		Query: contractx.Query{
			Keywords:        trimAll(out.Query.Keywords),
			DietTags:        trimAll(out.Query.Diet),
			PricePreference: strings.ToLower(strings.TrimSpace(out.Query.PricePreference)),
			Mood:            trimAll(out.Query.Mood),
		},
		Finalize: out.Finalize,
		Notes:    strings.TrimSpace(out.Notes),
	}

	if err := validateClassifyResult(res); err != nil {
		return contractx.ClassifyResult{}, err
	}
	return res, nil
}

func validateClassifyResult(res contractx.ClassifyResult) error {
	if !res.Intent.Known() {
		return fmt.Errorf("%w: unsupported intent=%q", contractx.ErrSchemaViolation, res.Intent)
	}
	switch res.Query.PricePreference {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("%w: unsupported price_preference=%q", contractx.ErrSchemaViolation, res.Query.PricePreference)
	}
	return nil
}

func summarizeHistory(history []statex.Turn) []map[string]string {
	out := make([]map[string]string, 0, len(history))
	for _, t := range history {
		out = append(out, map[string]string{
			"role": string(t.Role),
			"text": t.Content,
		})
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
