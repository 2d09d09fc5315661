package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chris/flightai/internal/agent"
	"github.com/chris/flightai/internal/brochure"
	"github.com/chris/flightai/internal/chat"
	"github.com/chris/flightai/internal/db"
	"github.com/chris/flightai/internal/flight"
	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/scrape"
	"github.com/chris/flightai/internal/tools"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// scripted answers Chat from a queue of responses (an error entry fails
// the call) and streams fixed chunks.
type scripted struct {
	mu      sync.Mutex
	replies []any
	chunks  []string
}

func (s *scripted) Chat(context.Context, []llm.Message, []llm.Tool) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return nil, errors.New("script exhausted")
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	switch v := next.(type) {
	case error:
		return nil, v
	case string:
		return llm.PlainReply{Text: v}, nil
	default:
		return v.(llm.Response), nil
	}
}

func (s *scripted) Stream(context.Context, []llm.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

type painter struct{}

func (painter) GenerateImage(context.Context, string) (*tools.Artifact, error) {
	return &tools.Artifact{Kind: "image", MIMEType: "image/png", Data: []byte("png")}, nil
}

type speaker struct{}

func (speaker) SynthesizeSpeech(_ context.Context, text string) (*tools.Artifact, error) {
	return &tools.Artifact{Kind: "audio", MIMEType: "audio/mpeg", Data: []byte("mp3:" + text)}, nil
}

type pages map[string]*scrape.Website

func (p pages) Fetch(_ context.Context, url string) (*scrape.Website, error) {
	if w, ok := p[url]; ok {
		return w, nil
	}
	return nil, errors.New("HTTP 404")
}

func newTestServer(t *testing.T, client *scripted) (*Server, *db.DB) {
	t.Helper()
	store, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry, err := flight.NewRegistry(flight.DefaultPrices, painter{})
	require.NoError(t, err)

	site := pages{"https://hippo.test": {URL: "https://hippo.test", Title: "Hippo", Text: "Boats"}}
	s := New(Options{
		Chat:         chat.New(client, ""),
		Brochures:    brochure.New(client, site),
		Engine:       agent.NewEngine(client, registry),
		Sessions:     store,
		SystemPrompt: flight.SystemPrompt,
		Speaker:      speaker{},
	})
	return s, store
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/airline/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var out struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.SessionID)
	return out.SessionID
}

func TestHealthAndIndex(t *testing.T) {
	s, _ := newTestServer(t, &scripted{})

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FlightAI")
}

func TestAirline_PlainReply(t *testing.T) {
	s, store := newTestServer(t, &scripted{replies: []any{"Hello! How can I help?"}})
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp airlineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hello! How can I help?", resp.Reply)
	assert.Equal(t, []displayMessage{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "Hello! How can I help?"},
	}, resp.History)
	assert.Empty(t, resp.Image)

	stored, err := store.LoadConversation(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, flight.SystemPrompt, stored[0].Content)
}

func TestAirline_ToolCallWithImage(t *testing.T) {
	call := llm.ToolCall{ID: "call_1", Name: "get_ticket_price", Arguments: json.RawMessage(`{"destination":"Berlin"}`)}
	client := &scripted{replies: []any{
		llm.ToolRequested{Call: call},
		"A return ticket to Berlin costs $499.",
	}}
	s, store := newTestServer(t, client)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{"message": "How much to Berlin?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp airlineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A return ticket to Berlin costs $499.", resp.Reply)
	assert.Equal(t, "data:image/png;base64,cG5n", resp.Image)
	assert.Len(t, resp.History, 2, "tool messages are not displayed")

	stored, err := store.LoadConversation(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	assert.Equal(t, llm.RoleTool, stored[3].Role)
	assert.Contains(t, stored[3].Content, "$499")
}

func TestAirline_TransportFailureKeepsUserMessage(t *testing.T) {
	s, store := newTestServer(t, &scripted{replies: []any{errors.New("connection reset")}})
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")

	stored, err := store.LoadConversation(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "hi", stored[1].Content)
}

func TestAirline_UnknownToolIsServerError(t *testing.T) {
	client := &scripted{replies: []any{llm.ToolRequested{Call: llm.ToolCall{ID: "c", Name: "book_flight", Arguments: json.RawMessage(`{}`)}}}}
	s, _ := newTestServer(t, client)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{"message": "book it"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAirline_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, &scripted{})

	w := do(t, s, http.MethodPost, "/api/airline/sessions/missing/messages", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	id := createSession(t, s)
	w = do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAirline_ClearAndHistory(t *testing.T) {
	s, store := newTestServer(t, &scripted{replies: []any{"Hi there"}})
	id := createSession(t, s)

	do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{"message": "hi"})

	w := do(t, s, http.MethodGet, "/api/airline/sessions/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hi there")

	w = do(t, s, http.MethodDelete, "/api/airline/sessions/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"history":[]}`, w.Body.String())

	stored, err := store.LoadConversation(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, llm.RoleSystem, stored[0].Role)
}

func TestAirline_DeleteSession(t *testing.T) {
	s, _ := newTestServer(t, &scripted{})
	id := createSession(t, s)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/airline/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/airline/sessions/"+id, nil).Code)
}

func TestSpeech(t *testing.T) {
	s, _ := newTestServer(t, &scripted{})

	w := do(t, s, http.MethodPost, "/api/speech", gin.H{"text": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "mp3:hello", w.Body.String())

	s.opts.Speaker = nil
	w = do(t, s, http.MethodPost, "/api/speech", gin.H{"text": "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

const noLinks = `{"links":[]}`

func TestBrochure_JSON(t *testing.T) {
	s, _ := newTestServer(t, &scripted{replies: []any{noLinks, "# Hippo\nWe build boats."}})

	w := do(t, s, http.MethodPost, "/api/brochure", gin.H{"company": "Hippo", "url": "https://hippo.test"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"brochure":"# Hippo\nWe build boats."}`, w.Body.String())
}

func TestBrochure_Stream(t *testing.T) {
	s, _ := newTestServer(t, &scripted{replies: []any{noLinks}, chunks: []string{"# Hip", "po"}})

	w := do(t, s, http.MethodPost, "/api/brochure", gin.H{"company": "Hippo", "url": "https://hippo.test", "stream": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event:delta")
	assert.Contains(t, body, `"text":"# Hippo"`)
	assert.True(t, strings.Index(body, "event:done") > strings.LastIndex(body, "event:delta"))
}

func TestBrochure_Validation(t *testing.T) {
	s, _ := newTestServer(t, &scripted{})

	w := do(t, s, http.MethodPost, "/api/brochure", gin.H{"company": "Hippo", "url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatSocket(t *testing.T) {
	s, _ := newTestServer(t, &scripted{chunks: []string{"Hel", "lo"}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(chatRequest{Message: "hi"}))

	var frames []chatFrame
	for {
		var f chatFrame
		require.NoError(t, conn.ReadJSON(&f))
		frames = append(frames, f)
		if f.Done || f.Error != "" {
			break
		}
	}
	assert.Equal(t, []chatFrame{{Delta: "Hel"}, {Delta: "Hello"}, {Done: true}}, frames)

	require.NoError(t, conn.WriteJSON(chatRequest{}))
	var f chatFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "message is required", f.Error)
}

func TestStatusFor(t *testing.T) {
	code, _ := statusFor(db.ErrSessionNotFound)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = statusFor(errors.Join(agent.ErrTransport, agent.ErrUnexpectedToolCall))
	assert.Equal(t, http.StatusBadGateway, code)

	code, msg := statusFor(tools.ErrMalformedArguments)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, msg, "malformed")
}

func TestSessionLocks_DoNotOutliveRequests(t *testing.T) {
	s, store := newTestServer(t, &scripted{replies: []any{"Hi"}})

	for i := range 100 {
		w := do(t, s, http.MethodGet, fmt.Sprintf("/api/airline/sessions/bogus-%d/messages", i), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Empty(t, s.locks, "unknown ids leave no lock behind")

	id := createSession(t, s)
	do(t, s, http.MethodPost, "/api/airline/sessions/"+id+"/messages", gin.H{"message": "hi"})
	assert.Empty(t, s.locks)

	n, err := store.PruneIdle(context.Background(), -time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/airline/sessions/"+id+"/messages", nil).Code)
	assert.Empty(t, s.locks, "pruned sessions leave no lock behind")
}

func TestSessionLock_SerializesSameSession(t *testing.T) {
	s, _ := newTestServer(t, &scripted{})

	unlock := s.lock("a")
	acquired := make(chan struct{})
	go func() {
		release := s.lock("a")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held session lock")
	case <-time.After(50 * time.Millisecond):
	}

	other := s.lock("b")
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.locks) == 0
	}, time.Second, 10*time.Millisecond)
}
