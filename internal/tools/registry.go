package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/chris/flightai/internal/llm"
)

var (
	// ErrUnknownTool means the model asked for a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMalformedArguments means the arguments do not satisfy the tool schema.
	ErrMalformedArguments = errors.New("malformed tool arguments")
)

// Artifact is a non-text output of a tool, passed through to the display layer.
type Artifact struct {
	Kind     string `json:"kind"` // image, audio
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

type Result struct {
	Content   string
	Artifacts []Artifact
}

// Handler executes a tool against already validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*Result, error)

type entry struct {
	tool    llm.Tool
	handler Handler
}

type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register adds a tool. Descriptors are immutable once registered.
func (r *Registry) Register(tool llm.Tool, h Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if h == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.tools[tool.Name] = entry{tool: tool, handler: h}
	r.order = append(r.order, tool.Name)
	return nil
}

func (r *Registry) Lookup(name string) (llm.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.tool, ok
}

// Descriptors lists the registered tools in registration order.
func (r *Registry) Descriptors() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Execute decodes and validates the call's arguments, then runs the handler.
// The handler never sees arguments that fail validation.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (*Result, error) {
	r.mu.RLock()
	e, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedArguments, call.Name, err)
	}
	if err := Validate(args, e.tool.Parameters); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedArguments, call.Name, err)
	}

	return e.handler(ctx, args)
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, errors.New("arguments have trailing data after the JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
