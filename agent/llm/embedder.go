package llm

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/parlaplate/parlaplate/agent/contract"
)

type embedderImpl struct {
	client *openaisdk.Client
	model  string
	dims   int
}

func newEmbedder(client *openaisdk.Client, model string, dims int) *embedderImpl {
	return &embedderImpl{client: client, model: model, dims: dims}
}

func (e *embedderImpl) Dimensions() int {
	return e.dims
}

// EmbedTexts returns one vector per input text, in input order.
func (e *embedderImpl) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input:      openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openaisdk.EmbeddingModel(e.model),
		Dimensions: openaisdk.Int(int64(e.dims)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings call: %v", contractx.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", contractx.ErrEmbedding, len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, fmt.Errorf("%w: vector index %d out of range", contractx.ErrEmbedding, idx)
		}
		if len(d.Embedding) != e.dims {
			return nil, fmt.Errorf("%w: expected %d dimensions, got %d", contractx.ErrEmbedding, e.dims, len(d.Embedding))
		}
		vectors[idx] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: missing vector for input %d", contractx.ErrEmbedding, i)
		}
	}
	return vectors, nil
}
