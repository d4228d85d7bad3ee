package ragchat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julie-berlin/rag-chat-api/pkg/chunker"
	"github.com/julie-berlin/rag-chat-api/pkg/embedder"
	"github.com/julie-berlin/rag-chat-api/pkg/logger"
)

// Extractor pulls plain text out of a document on disk.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

// Ingestor turns one uploaded PDF into the service's live index. Each
// ingestion builds a fresh index and replaces the prior one wholesale:
// successive uploads may use different embedding credentials or models, and
// mixing vectors from two embedding spaces would silently corrupt
// similarity scores.
type Ingestor struct {
	extractor    Extractor
	splitter     chunker.Splitter
	newEmbedder  embedder.Factory
	state        *State
	embedTimeout time.Duration
}

// IngestResult reports what an upload produced.
type IngestResult struct {
	DocumentID string
	Filename   string
	ChunkCount int
}

// NewIngestor wires an ingestion pipeline. embedTimeout bounds the whole
// embedding phase of one ingestion; zero means no bound.
func NewIngestor(
	extractor Extractor,
	splitter chunker.Splitter,
	newEmbedder embedder.Factory,
	state *State,
	embedTimeout time.Duration,
) *Ingestor {
	return &Ingestor{
		extractor:    extractor,
		splitter:     splitter,
		newEmbedder:  newEmbedder,
		state:        state,
		embedTimeout: embedTimeout,
	}
}

// Ingest validates, extracts, chunks, and embeds one uploaded document, then
// installs the resulting index. No index mutation happens on any failure
// path. The temporary copy of the upload is removed on every exit.
func (ing *Ingestor) Ingest(ctx context.Context, filename string, data []byte, credential string) (*IngestResult, error) {
	log := logger.FromContext(ctx)

	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}

	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			log.Warn("failed to remove temp upload", "path", tmp.Name(), "error", rmErr)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	text, err := ing.extractor.ExtractFile(ctx, tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	chunks, err := ing.splitter.Split(text)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}

	emb := ing.newEmbedder(credential)
	embedCtx := ctx
	if ing.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, ing.embedTimeout)
		defer cancel()
	}
	vectors, err := emb.EmbedBatch(embedCtx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	index := NewIndex(WithModelInfo(emb.ModelInfo()))
	entries := make([]Entry, len(chunks))
	for i := range chunks {
		entries[i] = Entry{Text: chunks[i], Vector: vectors[i]}
	}
	if err := index.Insert(entries...); err != nil {
		return nil, err
	}
	ing.state.Replace(index)

	result := &IngestResult{
		DocumentID: uuid.NewString(),
		Filename:   filename,
		ChunkCount: len(chunks),
	}
	log.Info("document indexed",
		"document_id", result.DocumentID,
		"filename", filename,
		"chunks", result.ChunkCount,
		"model", emb.ModelInfo(),
	)
	return result, nil
}
