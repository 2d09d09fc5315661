package llm

import "log/slog"

// Response is what one model call produced: a PlainReply or a ToolRequested.
type Response interface {
	Content() string
	isResponse()
}

type PlainReply struct {
	Text string
}

func (r PlainReply) Content() string { return r.Text }
func (PlainReply) isResponse()       {}

// ToolRequested carries the single tool invocation honored for this turn.
// Ignored holds any further calls the provider returned in the same turn.
type ToolRequested struct {
	Text    string
	Call    ToolCall
	Ignored []ToolCall
}

func (r ToolRequested) Content() string { return r.Text }
func (ToolRequested) isResponse()       {}

// decodeResponse turns provider output into the tagged Response.
func decodeResponse(provider, text string, calls []ToolCall) Response {
	if len(calls) == 0 {
		return PlainReply{Text: text}
	}
	if len(calls) > 1 {
		names := make([]string, 0, len(calls)-1)
		for _, c := range calls[1:] {
			names = append(names, c.Name)
		}
		slog.Warn("model returned several tool calls, honoring only the first",
			"provider", provider, "honored", calls[0].Name, "ignored", names)
	}
	return ToolRequested{Text: text, Call: calls[0], Ignored: calls[1:]}
}
