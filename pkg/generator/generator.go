// Package generator streams chat-completion output from an LLM provider.
package generator

import "context"

// Request describes one chat completion.
type Request struct {
	Model            string
	DeveloperMessage string
	UserMessage      string
}

// Fragment is one unit of streamed output. Err is set on the final fragment
// when the provider drops the stream mid-generation or the call's deadline
// expires; the channel closes immediately after.
type Fragment struct {
	Content string
	Err     error
}

// Generator produces a finite, non-restartable sequence of text fragments.
// A synchronous error means the stream never started; after a nil error the
// returned channel is drained until closed. Cancelling ctx stops the
// producer promptly.
type Generator interface {
	Stream(ctx context.Context, req Request) (<-chan Fragment, error)
}

// Factory builds a Generator bound to a caller-supplied credential.
type Factory func(credential string) Generator
