package web

import (
	"log/slog"
	"net/http"

	"github.com/chris/flightai/internal/chat"
	"github.com/gin-gonic/gin"
)

type brochureRequest struct {
	Company string `json:"company" binding:"required"`
	URL     string `json:"url" binding:"required,url"`
	Stream  bool   `json:"stream"`
}

// handleBrochure answers with JSON, or with server-sent "delta" events of
// the brochure so far when the request asks to stream.
func (s *Server) handleBrochure(c *gin.Context) {
	var req brochureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	results := s.opts.Brochures.Generate(ctx, req.Company, req.URL, req.Stream)

	if !req.Stream {
		text, err := chat.Collect(results)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"brochure": text})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	for text, err := range results {
		if err != nil {
			slog.Error("brochure stream failed", "company", req.Company, "err", err)
			_, msg := statusFor(err)
			c.SSEvent("error", gin.H{"error": msg})
			c.Writer.Flush()
			return
		}
		c.SSEvent("delta", gin.H{"text": text})
		c.Writer.Flush()
	}
	c.SSEvent("done", gin.H{})
	c.Writer.Flush()
}
