// ragserver is a retrieval-augmented chat backend: upload a PDF, then chat
// with answers grounded in its content.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/julie-berlin/rag-chat-api/pkg/chunker"
	"github.com/julie-berlin/rag-chat-api/pkg/config"
	"github.com/julie-berlin/rag-chat-api/pkg/embedder"
	"github.com/julie-berlin/rag-chat-api/pkg/generator"
	"github.com/julie-berlin/rag-chat-api/pkg/logger"
	"github.com/julie-berlin/rag-chat-api/pkg/pdftext"
	"github.com/julie-berlin/rag-chat-api/pkg/ragchat"
	"github.com/julie-berlin/rag-chat-api/pkg/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ragserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	splitter, err := newSplitter(cfg)
	if err != nil {
		return err
	}

	newEmbedder := embedder.Factory(func(credential string) embedder.Embedder {
		return embedder.NewOpenAI(credential, cfg.EmbeddingModel)
	})
	newGenerator := generator.Factory(func(credential string) generator.Generator {
		return generator.NewOpenAI(credential)
	})

	state := ragchat.NewState()
	ingestor := ragchat.NewIngestor(pdftext.New(), splitter, newEmbedder, state, cfg.EmbedTimeout)
	querier := ragchat.NewQuerier(ragchat.QuerierConfig{
		State:           state,
		NewEmbedder:     newEmbedder,
		NewGenerator:    newGenerator,
		DefaultModel:    cfg.ChatModel,
		TopK:            cfg.TopK,
		EmbedTimeout:    cfg.EmbedTimeout,
		GenerateTimeout: cfg.GenerateTimeout,
	})

	srv := server.New(server.Config{
		Ingestor:       ingestor,
		Querier:        querier,
		State:          state,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting ragserver",
		"addr", cfg.ListenAddr,
		"chat_model", cfg.ChatModel,
		"embedding_model", cfg.EmbeddingModel,
		"split_strategy", cfg.SplitStrategy,
	)
	return srv.Run(ctx, cfg.ListenAddr, cfg.ShutdownTimeout)
}

func newSplitter(cfg *config.Config) (chunker.Splitter, error) {
	switch cfg.SplitStrategy {
	case config.SplitRecursive:
		return chunker.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	default:
		return chunker.NewCharacterSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	}
}
