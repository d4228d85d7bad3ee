package generator

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI streams chat completions from the OpenAI API.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI builds a generator bound to the given credential.
func NewOpenAI(credential string) *OpenAI {
	return &OpenAI{client: openai.NewClient(credential)}
}

// NewOpenAIWithBaseURL targets an OpenAI-compatible endpoint at baseURL.
func NewOpenAIWithBaseURL(credential, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(credential)
	cfg.BaseURL = baseURL
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

// Stream opens a streaming completion and pumps delta fragments into the
// returned channel. Errors establishing the stream are returned
// synchronously; a provider failure after the first token arrives as a
// Fragment with Err set, then the channel closes.
func (g *OpenAI) Stream(ctx context.Context, req Request) (<-chan Fragment, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleDeveloper, Content: req.DeveloperMessage},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: create completion stream: %w", err)
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if errors.Is(ctx.Err(), context.Canceled) {
					// Client went away; nobody is reading.
					return
				}
				// Deadlines and provider drops are failures the consumer
				// still needs to hear about. The channel contract
				// guarantees a draining reader, so this send completes.
				out <- Fragment{Err: fmt.Errorf("generator: stream interrupted: %w", err)}
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case out <- Fragment{Content: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
