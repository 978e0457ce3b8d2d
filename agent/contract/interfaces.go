package contract

import "context"

// Classifier performs the first external call of a turn: intent category plus
// optional direct reply and derived query.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResult, error)
}

// Responder performs the second (and final) external call of a menu turn:
// a persona-styled reply grounded in the supplied shortlist.
type Responder interface {
	Ground(ctx context.Context, req GroundRequest) (string, error)
}

// Embedder turns text into fixed-dimensionality vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
	Dimensions() int
}

// Registry bundles the model-backed collaborators the orchestrator needs.
type Registry interface {
	Classifier() Classifier
	Responder() Responder
	Embedder() Embedder
}
