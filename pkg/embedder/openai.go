package embedder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
)

const (
	// Provider batch size per embeddings request.
	batchSize = 32
	// Concurrent embeddings requests per EmbedBatch call.
	maxInflight = 4

	retryAttempts = 3
	retryBase     = 500 * time.Millisecond
)

// OpenAI embeds text through the OpenAI embeddings API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds an embedder bound to the given credential and model.
func NewOpenAI(credential, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(credential),
		model:  model,
	}
}

// NewOpenAIWithBaseURL targets an OpenAI-compatible endpoint at baseURL.
func NewOpenAIWithBaseURL(credential, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(credential)
	cfg.BaseURL = baseURL
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Embed generates an embedding vector for a single text.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, errors.New("embedder: cannot embed empty text")
	}
	vecs, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in provider-sized batches, a bounded number of
// requests in flight at a time. Result order matches input order. Any batch
// failure fails the whole call.
func (e *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	type job struct{ start, end int }
	jobs := make([]job, 0, len(texts)/batchSize+1)
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		jobs = append(jobs, job{start, end})
	}

	embeddings := make([][]float32, len(texts))
	errChan := make(chan error, len(jobs))
	sem := make(chan struct{}, maxInflight)

	for _, j := range jobs {
		sem <- struct{}{}
		go func(j job) {
			defer func() { <-sem }()
			vecs, err := e.request(ctx, texts[j.start:j.end])
			if err != nil {
				errChan <- err
				return
			}
			copy(embeddings[j.start:j.end], vecs)
			errChan <- nil
		}(j)
	}

	var firstErr error
	for range jobs {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}

// ModelInfo identifies the embedding configuration.
func (e *OpenAI) ModelInfo() string {
	return "openai-" + e.model
}

// request issues one embeddings call with retry on transient provider
// failures, then L2-normalizes the returned vectors.
func (e *OpenAI) request(ctx context.Context, input []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	backoff := retry.WithMaxRetries(retryAttempts, retry.NewExponential(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: input,
		})
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: create embeddings: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("embedder: expected %d embeddings, got %d", len(input), len(resp.Data))
	}
	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		l2normalize(v)
		vecs[i] = v
	}
	return vecs, nil
}

// isTransient reports whether the provider error is worth retrying:
// rate limits, server-side failures, and network timeouts.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// l2normalize scales v to unit length so cosine similarity reduces to a dot
// product.
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
