package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseHandler(t *testing.T, deltas []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range deltas {
			chunk := map[string]any{
				"id":      "chatcmpl-test",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   req["model"],
				"choices": []map[string]any{
					{"index": 0, "delta": map[string]string{"content": delta}},
				},
			}
			payload, err := json.Marshal(chunk)
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func TestOpenAIStream(t *testing.T) {
	t.Run("ShouldEmitDeltasInOrderAndClose", func(t *testing.T) {
		srv := httptest.NewServer(sseHandler(t, []string{"Hello", ", ", "world"}))
		defer srv.Close()

		g := NewOpenAIWithBaseURL("sk-test", srv.URL)
		fragments, err := g.Stream(context.Background(), Request{
			Model:            "gpt-4.1-mini",
			DeveloperMessage: "be brief",
			UserMessage:      "greet me",
		})
		require.NoError(t, err)

		var got []string
		for frag := range fragments {
			require.NoError(t, frag.Err)
			got = append(got, frag.Content)
		}
		assert.Equal(t, []string{"Hello", ", ", "world"}, got)
	})

	t.Run("ShouldReturnSynchronousErrorWhenStreamNeverStarts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
		}))
		defer srv.Close()

		g := NewOpenAIWithBaseURL("sk-bad", srv.URL)
		fragments, err := g.Stream(context.Background(), Request{Model: "gpt-4.1-mini"})
		require.Error(t, err)
		assert.Nil(t, fragments)
	})

	t.Run("ShouldSurfaceDeadlineAsFragmentError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			chunk := `{"id":"chatcmpl-test","object":"chat.completion.chunk","created":1,` +
				`"model":"gpt-4.1-mini","choices":[{"index":0,"delta":{"content":"tok "}}]}`
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
			// Hold the connection open until the client's deadline kills it.
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		g := NewOpenAIWithBaseURL("sk-test", srv.URL)
		fragments, err := g.Stream(ctx, Request{Model: "gpt-4.1-mini"})
		require.NoError(t, err)

		var got []Fragment
		for frag := range fragments {
			got = append(got, frag)
		}
		require.NotEmpty(t, got)
		last := got[len(got)-1]
		require.Error(t, last.Err)
		for _, frag := range got[:len(got)-1] {
			assert.NoError(t, frag.Err)
		}
	})

	t.Run("ShouldStopPromptlyOnCancelledContext", func(t *testing.T) {
		srv := httptest.NewServer(sseHandler(t, []string{"a", "b", "c", "d"}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		g := NewOpenAIWithBaseURL("sk-test", srv.URL)
		fragments, err := g.Stream(ctx, Request{Model: "gpt-4.1-mini"})
		require.NoError(t, err)

		// Read one fragment, then walk away.
		<-fragments
		cancel()
		for range fragments {
		}
	})
}
