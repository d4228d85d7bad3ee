// Package server exposes the HTTP surface: streaming chat, document upload,
// and health.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/julie-berlin/rag-chat-api/pkg/logger"
	"github.com/julie-berlin/rag-chat-api/pkg/ragchat"
)

// Server holds the wired pipelines behind the HTTP handlers.
type Server struct {
	engine   *gin.Engine
	ingestor *ragchat.Ingestor
	querier  *ragchat.Querier
	state    *ragchat.State
	log      logger.Logger
}

// Config wires a Server.
type Config struct {
	Ingestor       *ragchat.Ingestor
	Querier        *ragchat.Querier
	State          *ragchat.State
	Log            logger.Logger
	AllowedOrigins []string
}

// New builds the router. Chat and upload require a bearer credential;
// health does not.
func New(cfg Config) *Server {
	s := &Server{
		ingestor: cfg.Ingestor,
		querier:  cfg.Querier,
		state:    cfg.State,
		log:      cfg.Log,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(cfg.Log))
	if len(cfg.AllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.GET("/health", s.handleHealth)

	authed := engine.Group("/", requireBearer())
	authed.POST("/chat", s.handleChat)
	authed.POST("/upload-document", s.handleUpload)

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains connections for up
// to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	s.log.Info("server listening", "addr", addr)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
