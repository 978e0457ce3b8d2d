package llm

import (
	"context"
	"fmt"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	promptx "github.com/parlaplate/parlaplate/agent/prompt"
	openaix "github.com/parlaplate/parlaplate/pkg/openaix"
)

type registryImpl struct {
	classifier contractx.Classifier
	responder  contractx.Responder
	embedder   contractx.Embedder
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) Responder() contractx.Responder {
	return r.responder
}

func (r *registryImpl) Embedder() contractx.Embedder {
	return r.embedder
}

func NewRegistry(ctx context.Context, cfg Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	classifierModelCfg := cfg.OpenAIFor(RoleClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrClassification, err)
	}
	responderModelCfg := cfg.OpenAIFor(RoleResponder)
	responderModel, err := responderModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create responder model: %v", contractx.ErrReplyGeneration, err)
	}

	classifier, err := newClassifier(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, err
	}
	responder, err := newResponder(ctx, responderModel, prompts.Responder)
	if err != nil {
		return nil, err
	}

	embedClient := openaix.NewClient(cfg.OpenAIFor(RoleClassifier))
	embedder := newEmbedder(embedClient, cfg.EmbedModel, cfg.EmbedDimensions)

	return &registryImpl{
		classifier: classifier,
		responder:  responder,
		embedder:   embedder,
	}, nil
}
