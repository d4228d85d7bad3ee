package ragchat

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/julie-berlin/rag-chat-api/pkg/embedder"
	"github.com/julie-berlin/rag-chat-api/pkg/generator"
)

// fakeEmbedder returns canned vectors keyed by text and counts provider
// calls so tests can assert none happened.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    *atomic.Int64
}

func newFakeEmbedder(vectors map[string][]float32, fallback []float32) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, fallback: fallback, calls: &atomic.Int64{}}
}

func (f *fakeEmbedder) factory() embedder.Factory {
	return func(string) embedder.Embedder { return f }
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) ModelInfo() string { return "fake-embedder" }

// fakeGenerator records the request it was given and replays canned
// fragments. stallUntilDeadline emulates a provider that hangs after its
// fragments until the call's deadline expires, surfacing the deadline as a
// Fragment error; stallSilently does the same but closes without one.
type fakeGenerator struct {
	fragments          []string
	preStreamErr       error
	midStreamErr       error
	stallUntilDeadline bool
	stallSilently      bool
	lastRequest        generator.Request
	calls              *atomic.Int64
}

func newFakeGenerator(fragments ...string) *fakeGenerator {
	return &fakeGenerator{fragments: fragments, calls: &atomic.Int64{}}
}

func (f *fakeGenerator) factory() generator.Factory {
	return func(string) generator.Generator { return f }
}

func (f *fakeGenerator) Stream(ctx context.Context, req generator.Request) (<-chan generator.Fragment, error) {
	f.calls.Add(1)
	f.lastRequest = req
	if f.preStreamErr != nil {
		return nil, f.preStreamErr
	}
	out := make(chan generator.Fragment)
	go func() {
		defer close(out)
		for _, frag := range f.fragments {
			select {
			case out <- generator.Fragment{Content: frag}:
			case <-ctx.Done():
				return
			}
		}
		if f.midStreamErr != nil {
			select {
			case out <- generator.Fragment{Err: f.midStreamErr}:
			case <-ctx.Done():
			}
			return
		}
		if f.stallUntilDeadline || f.stallSilently {
			<-ctx.Done()
			if f.stallSilently || errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			out <- generator.Fragment{Err: fmt.Errorf("stream interrupted: %w", ctx.Err())}
		}
	}()
	return out, nil
}

// fakeExtractor returns canned text without touching the file.
type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractFile(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

var errProvider = errors.New("provider said no")
