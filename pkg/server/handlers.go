package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julie-berlin/rag-chat-api/pkg/logger"
	"github.com/julie-berlin/rag-chat-api/pkg/ragchat"
)

type chatRequest struct {
	DeveloperMessage string `json:"developer_message" binding:"required"`
	UserMessage      string `json:"user_message" binding:"required"`
	Model            string `json:"model"`
}

// handleChat answers one chat turn as a chunked plain-text stream, one
// flush per generated fragment.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	fragments, _, err := s.querier.Answer(c.Request.Context(), ragchat.ChatExchange{
		DeveloperMessage: req.DeveloperMessage,
		UserMessage:      req.UserMessage,
		Model:            req.Model,
		Credential:       c.GetString(credentialKey),
	})
	if err != nil {
		// Nothing has been written yet; a structured error is still possible.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	for fragment := range fragments {
		if _, err := c.Writer.WriteString(fragment); err != nil {
			// Client went away; context cancellation stops the producer.
			logger.FromContext(c.Request.Context()).Debug("client disconnected mid-stream")
			return
		}
		c.Writer.Flush()
	}
}

// handleUpload ingests one PDF into the index, replacing whatever was
// indexed before.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart file field is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open upload"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	result, err := s.ingestor.Ingest(c.Request.Context(), fileHeader.Filename, data, c.GetString(credentialKey))
	if err != nil {
		if errors.Is(err, ragchat.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are allowed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error processing PDF: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("Successfully indexed %s", result.Filename),
		"chunks_created": result.ChunkCount,
		"filename":       result.Filename,
		"document_id":    result.DocumentID,
	})
}

// handleHealth reports liveness and the current index size. No credential,
// no side effects.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"indexed_documents": s.state.Size(),
	})
}
