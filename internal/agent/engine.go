package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/tools"
	"github.com/google/uuid"
)

var (
	// ErrTransport wraps any failure of the model call itself.
	ErrTransport = errors.New("model call failed")
	// ErrToolFailed wraps an error returned by a tool handler.
	ErrToolFailed = errors.New("tool execution failed")
	// ErrUnexpectedToolCall means the model asked for a tool on the call
	// made without tool schemas.
	ErrUnexpectedToolCall = errors.New("model requested a tool after tools were resolved")
)

// minMessageBudget leaves room for at least the current turn.
const minMessageBudget = 1000

type state int

const (
	awaitingModel state = iota
	awaitingFinalReply
	done
)

func (s state) String() string {
	switch s {
	case awaitingModel:
		return "awaiting-model"
	case awaitingFinalReply:
		return "awaiting-final-reply"
	default:
		return "done"
	}
}

// Reply is the outcome of one exchange.
type Reply struct {
	Text      string
	Artifacts []tools.Artifact
	// ToolCall is the invocation that was executed, if any.
	ToolCall *llm.ToolCall
	// IgnoredToolCalls counts extra calls the model made in the same turn.
	IgnoredToolCalls int
}

// Engine drives one user exchange, resolving at most one tool call before
// the final reply.
type Engine struct {
	client   llm.Client
	registry *tools.Registry

	// MaxContextTokens, when positive, trims what is sent to the model.
	// The Conversation itself is never trimmed.
	MaxContextTokens int
}

func NewEngine(client llm.Client, registry *tools.Registry) *Engine {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Engine{client: client, registry: registry}
}

// Respond appends the user's text, runs the model (and a tool if asked) and
// appends the final reply. If anything fails, the user message is the only
// thing added to conv.
func (e *Engine) Respond(ctx context.Context, conv *Conversation, text string) (*Reply, error) {
	if err := conv.Append(llm.Message{Role: llm.RoleUser, Content: text}); err != nil {
		return nil, err
	}

	st := awaitingModel
	slog.Debug("exchange state", "state", st)
	var staged []llm.Message
	reply := &Reply{}

	resp, err := e.call(ctx, conv, staged, e.registry.Descriptors())
	if err != nil {
		return nil, err
	}

	if req, ok := resp.(llm.ToolRequested); ok {
		call := req.Call
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		reply.IgnoredToolCalls = len(req.Ignored)

		res, err := e.execute(ctx, call)
		if err != nil {
			return nil, err
		}

		staged = append(staged,
			llm.Message{Role: llm.RoleAssistant, Content: req.Text, ToolCalls: []llm.ToolCall{call}},
			llm.Message{Role: llm.RoleTool, Content: res.Content, ToolCallID: call.ID},
		)
		reply.ToolCall = &call
		reply.Artifacts = res.Artifacts

		st = awaitingFinalReply
		slog.Debug("exchange state", "state", st, "tool", call.Name)

		resp, err = e.call(ctx, conv, staged, nil)
		if err != nil {
			return nil, err
		}
		if _, again := resp.(llm.ToolRequested); again {
			return nil, fmt.Errorf("%w: %w", ErrTransport, ErrUnexpectedToolCall)
		}
	}

	reply.Text = resp.Content()
	staged = append(staged, llm.Message{Role: llm.RoleAssistant, Content: reply.Text})
	if err := conv.Append(staged...); err != nil {
		return nil, err
	}

	st = done
	slog.Debug("exchange state", "state", st, "messages", conv.Len())
	return reply, nil
}

func (e *Engine) call(ctx context.Context, conv *Conversation, staged []llm.Message, descriptors []llm.Tool) (llm.Response, error) {
	messages := append(conv.Messages(), staged...)

	if e.MaxContextTokens > 0 {
		budget := e.MaxContextTokens - llm.EstimateToolsTokens(descriptors)
		if budget < minMessageBudget {
			budget = minMessageBudget
		}
		trimmed := llm.TrimMessages(messages, budget)
		if len(trimmed) < len(messages) {
			slog.Info("context trimmed", "from", len(messages), "to", len(trimmed))
		}
		messages = trimmed
	}

	resp, err := e.client.Chat(ctx, messages, descriptors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}

func (e *Engine) execute(ctx context.Context, call llm.ToolCall) (*tools.Result, error) {
	if _, ok := e.registry.Lookup(call.Name); !ok {
		slog.Error("model requested a tool that is not registered", "tool", call.Name, "call_id", call.ID)
		return nil, fmt.Errorf("%w: %q", tools.ErrUnknownTool, call.Name)
	}

	res, err := e.registry.Execute(ctx, call)
	switch {
	case errors.Is(err, tools.ErrMalformedArguments):
		slog.Warn("rejected tool arguments", "tool", call.Name, "arguments", truncate(string(call.Arguments), 200), "err", err)
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", ErrToolFailed, call.Name, err)
	case res == nil:
		return nil, fmt.Errorf("%w: %s returned no result", ErrToolFailed, call.Name)
	}

	slog.Info("tool executed", "tool", call.Name, "result", truncate(res.Content, 200), "artifacts", len(res.Artifacts))
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
