package web

import (
	"log/slog"

	"github.com/chris/flightai/internal/llm"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type chatRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
}

type chatFrame struct {
	Delta string `json:"delta,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatSocket streams chatbot replies. Each request frame gets a run of
// delta frames carrying the reply so far, then a done frame.
func (s *Server) handleChatSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "err", err)
			}
			return
		}
		if req.Message == "" {
			if conn.WriteJSON(chatFrame{Error: "message is required"}) != nil {
				return
			}
			continue
		}

		for text, err := range s.opts.Chat.Stream(ctx, req.History, req.Message) {
			frame := chatFrame{Delta: text}
			if err != nil {
				slog.Error("chat stream failed", "err", err)
				_, msg := statusFor(err)
				frame = chatFrame{Error: msg}
			}
			if conn.WriteJSON(frame) != nil {
				return
			}
		}
		if conn.WriteJSON(chatFrame{Done: true}) != nil {
			return
		}
	}
}
