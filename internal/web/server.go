// Package web serves the three demos behind one small chat widget.
package web

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chris/flightai/internal/agent"
	"github.com/chris/flightai/internal/brochure"
	"github.com/chris/flightai/internal/chat"
	"github.com/chris/flightai/internal/db"
	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/media"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

//go:embed static/index.html
var indexHTML []byte

// SessionStore is satisfied by *db.DB.
type SessionStore interface {
	CreateSession(ctx context.Context, demo string, messages []llm.Message) (string, error)
	LoadConversation(ctx context.Context, id string) ([]llm.Message, error)
	SaveConversation(ctx context.Context, id string, messages []llm.Message) error
	DeleteSession(ctx context.Context, id string) error
}

type Options struct {
	Chat      *chat.Bot
	Brochures *brochure.Generator
	Engine    *agent.Engine
	Sessions  SessionStore
	// SystemPrompt seeds new airline sessions.
	SystemPrompt string
	// Speaker is optional; without it /api/speech answers 503.
	Speaker media.Speaker
}

type Server struct {
	opts     Options
	router   *gin.Engine
	upgrader websocket.Upgrader

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is held per session id while requests on it are in flight.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func New(opts Options) *Server {
	s := &Server{
		opts:  opts,
		locks: make(map[string]*sessionLock),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws/chat", s.handleChatSocket)
	r.POST("/api/brochure", s.handleBrochure)

	airline := r.Group("/api/airline/sessions")
	airline.POST("", s.handleCreateSession)
	airline.DELETE("/:id", s.handleDeleteSession)
	airline.GET("/:id/messages", s.handleHistory)
	airline.POST("/:id/messages", s.handleAirlineMessage)
	airline.DELETE("/:id/messages", s.handleClear)

	r.POST("/api/speech", s.handleSpeech)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	slog.Info("web server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// lock serializes exchanges on one session. The map entry lives only while
// some request holds or waits for it.
func (s *Server) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// statusFor maps an exchange error to a status and a message safe to show.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, agent.ErrTransport):
		return http.StatusBadGateway, "the model could not be reached, please try again"
	case errors.Is(err, context.Canceled):
		return 499, "request cancelled"
	default:
		return http.StatusInternalServerError, "the assistant could not answer that, please try again"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	slog.Error("request failed", "path", c.FullPath(), "status", status, "err", err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
