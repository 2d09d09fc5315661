package web

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/chris/flightai/internal/agent"
	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/tools"
	"github.com/gin-gonic/gin"
)

const airlineDemo = "airline"

type airlineRequest struct {
	Message string `json:"message" binding:"required"`
}

// displayMessage is what the widget renders: user turns and assistant text.
type displayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type airlineResponse struct {
	Reply   string           `json:"reply"`
	History []displayMessage `json:"history"`
	Image   string           `json:"image,omitempty"`
}

func displayHistory(conv *agent.Conversation) []displayMessage {
	out := []displayMessage{}
	for _, m := range conv.History() {
		switch {
		case m.Role == llm.RoleUser:
		case m.Role == llm.RoleAssistant && m.Content != "":
		default:
			continue
		}
		out = append(out, displayMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func dataURL(a tools.Artifact) string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	conv := agent.NewConversation(s.opts.SystemPrompt)
	id, err := s.opts.Sessions.CreateSession(c.Request.Context(), airlineDemo, conv.Messages())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	defer s.lock(id)()

	if err := s.opts.Sessions.DeleteSession(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) load(ctx context.Context, id string) (*agent.Conversation, error) {
	msgs, err := s.opts.Sessions.LoadConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return agent.ConversationFrom(msgs)
}

func (s *Server) handleHistory(c *gin.Context) {
	id := c.Param("id")
	defer s.lock(id)()

	conv, err := s.load(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": displayHistory(conv)})
}

// handleAirlineMessage runs one exchange. The conversation is saved even when
// the exchange fails, so the user's message is kept.
func (s *Server) handleAirlineMessage(c *gin.Context) {
	var req airlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()
	defer s.lock(id)()

	conv, err := s.load(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	reply, err := s.opts.Engine.Respond(ctx, conv, req.Message)
	if saveErr := s.opts.Sessions.SaveConversation(context.WithoutCancel(ctx), id, conv.Messages()); saveErr != nil {
		slog.Error("saving session", "session", id, "err", saveErr)
		if err == nil {
			err = saveErr
		}
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := airlineResponse{Reply: reply.Text, History: displayHistory(conv)}
	for _, a := range reply.Artifacts {
		if a.Kind == "image" {
			resp.Image = dataURL(a)
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleClear starts the session over with only the system prompt.
func (s *Server) handleClear(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	defer s.lock(id)()

	conv, err := s.load(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	conv.Clear()
	if err := s.opts.Sessions.SaveConversation(ctx, id, conv.Messages()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": displayHistory(conv)})
}
