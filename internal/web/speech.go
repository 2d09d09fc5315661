package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type speechRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleSpeech(c *gin.Context) {
	if s.opts.Speaker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech is not configured"})
		return
	}
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	audio, err := s.opts.Speaker.SynthesizeSpeech(c.Request.Context(), req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, audio.MIMEType, audio.Data)
}
