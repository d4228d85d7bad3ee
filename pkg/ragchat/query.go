package ragchat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julie-berlin/rag-chat-api/pkg/embedder"
	"github.com/julie-berlin/rag-chat-api/pkg/generator"
	"github.com/julie-berlin/rag-chat-api/pkg/logger"
)

// StreamErrorMarker is emitted as the final fragment when the provider
// drops the stream after output has started. The HTTP status is already
// committed at that point, so the marker is the only way to signal the
// truncation in a plain-text stream.
const StreamErrorMarker = "\n\n[error: the response was interrupted before completion]"

const (
	contextHeader = "\n\nRelevant context from uploaded documents:\n"
	contextFooter = "\n\nPlease use this context to answer the user's question when relevant."
)

// ChatExchange is one request-scoped chat turn. Never persisted.
type ChatExchange struct {
	DeveloperMessage string
	UserMessage      string
	Model            string
	Credential       string
}

// RetrievalOutcome is the typed result of the retrieval step: either a
// ranked chunk list, or an explicit unavailable marker with the reason
// retrieval was skipped or failed. Retrieval is best-effort; an unavailable
// outcome never aborts the chat turn.
type RetrievalOutcome struct {
	Chunks      []Scored
	Unavailable bool
	Reason      string
}

// Querier answers one chat turn, grounding it in indexed context when any
// is available.
type Querier struct {
	state           *State
	newEmbedder     embedder.Factory
	newGenerator    generator.Factory
	defaultModel    string
	topK            int
	embedTimeout    time.Duration
	generateTimeout time.Duration
}

// QuerierConfig wires a Querier.
type QuerierConfig struct {
	State        *State
	NewEmbedder  embedder.Factory
	NewGenerator generator.Factory
	DefaultModel string
	TopK         int
	// Zero timeouts mean no bound.
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// NewQuerier builds the query pipeline. TopK defaults to 3 when unset.
func NewQuerier(cfg QuerierConfig) *Querier {
	topK := cfg.TopK
	if topK < 1 {
		topK = 3
	}
	return &Querier{
		state:           cfg.State,
		newEmbedder:     cfg.NewEmbedder,
		newGenerator:    cfg.NewGenerator,
		defaultModel:    cfg.DefaultModel,
		topK:            topK,
		embedTimeout:    cfg.EmbedTimeout,
		generateTimeout: cfg.GenerateTimeout,
	}
}

// Answer retrieves context for the user message, augments the developer
// instruction, and starts a streamed generation. The returned channel is
// lazy, finite, and non-restartable; it closes when the provider completes,
// the stream fails (after the error marker), or ctx is cancelled. A non-nil
// error means the stream never started.
func (q *Querier) Answer(ctx context.Context, ex ChatExchange) (<-chan string, RetrievalOutcome, error) {
	log := logger.FromContext(ctx)

	outcome := q.retrieve(ctx, ex)
	developer := ex.DeveloperMessage
	if len(outcome.Chunks) > 0 {
		developer = augment(developer, outcome.Chunks)
	}

	model := ex.Model
	if model == "" {
		model = q.defaultModel
	}

	genCtx := ctx
	cancel := context.CancelFunc(func() {})
	if q.generateTimeout > 0 {
		genCtx, cancel = context.WithTimeout(ctx, q.generateTimeout)
	}

	gen := q.newGenerator(ex.Credential)
	fragments, err := gen.Stream(genCtx, generator.Request{
		Model:            model,
		DeveloperMessage: developer,
		UserMessage:      ex.UserMessage,
	})
	if err != nil {
		cancel()
		return nil, outcome, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer cancel()
		for frag := range fragments {
			if frag.Err != nil {
				log.Warn("generation stream interrupted", "error", frag.Err)
				// Guard on the request context, not genCtx: a timeout has
				// already expired genCtx and the marker must still go out.
				select {
				case out <- StreamErrorMarker:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- frag.Content:
			case <-ctx.Done():
				// Keep draining so the producer can finish and close.
				go func() {
					for range fragments {
					}
				}()
				return
			}
		}
		// The producer can close without a Fragment.Err when the timeout
		// fires between sends; still surface the truncation.
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			select {
			case out <- StreamErrorMarker:
			case <-ctx.Done():
			}
		}
	}()
	return out, outcome, nil
}

// retrieve embeds the user message and searches the live index. Every
// failure degrades to an unavailable outcome; grounding is an enhancement,
// not a requirement, of a chat answer.
func (q *Querier) retrieve(ctx context.Context, ex ChatExchange) RetrievalOutcome {
	log := logger.FromContext(ctx)

	index := q.state.Current()
	if index.Size() == 0 {
		return RetrievalOutcome{Unavailable: true, Reason: "no documents indexed"}
	}

	embedCtx := ctx
	if q.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, q.embedTimeout)
		defer cancel()
	}
	queryVector, err := q.newEmbedder(ex.Credential).Embed(embedCtx, ex.UserMessage)
	if err != nil {
		log.Warn("query embedding failed, answering without context", "error", err)
		return RetrievalOutcome{Unavailable: true, Reason: "query embedding failed"}
	}

	return RetrievalOutcome{Chunks: index.Search(queryVector, q.topK)}
}

// augment appends the retrieved chunks to the developer instruction as a
// labeled context section, ranked order, blank line between chunks.
func augment(developer string, chunks []Scored) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	var b strings.Builder
	b.WriteString(developer)
	b.WriteString(contextHeader)
	b.WriteString(strings.Join(texts, "\n\n"))
	b.WriteString(contextFooter)
	return b.String()
}
