package agent

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/openclay/scribe/llm"
)

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnUserText      TurnKind = "user_text"
	TurnModelText     TurnKind = "model_text"
	TurnModelToolCall TurnKind = "model_tool_call"
	TurnToolResult    TurnKind = "tool_result"
)

// Turn is a single entry in the conversation transcript. Turns are
// immutable once appended; their order encodes causal dependency (a
// tool result always follows its matching tool call).
type Turn struct {
	Kind       TurnKind        `json:"kind"`
	Timestamp  time.Time       `json:"timestamp"`
	Text       string          `json:"text,omitempty"`
	ToolCall   *ToolCallTurn   `json:"tool_call,omitempty"`
	ToolResult *ToolResultTurn `json:"tool_result,omitempty"`
}

// ToolCallTurn records one function the model wants invoked.
type ToolCallTurn struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResultTurn records the structured outcome of a dispatched call.
type ToolResultTurn struct {
	CallID  string  `json:"call_id"`
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
}

// NewUserTextTurn creates a Turn wrapping user input.
func NewUserTextTurn(text string) Turn {
	return Turn{Kind: TurnUserText, Timestamp: time.Now(), Text: text}
}

// NewModelTextTurn creates a Turn wrapping model text output.
func NewModelTextTurn(text string) Turn {
	return Turn{Kind: TurnModelText, Timestamp: time.Now(), Text: text}
}

// NewModelToolCallTurn creates a Turn wrapping a model tool call request.
func NewModelToolCallTurn(callID, name string, args json.RawMessage) Turn {
	return Turn{
		Kind:      TurnModelToolCall,
		Timestamp: time.Now(),
		ToolCall:  &ToolCallTurn{CallID: callID, Name: name, Arguments: args},
	}
}

// NewToolResultTurn creates a Turn wrapping a tool outcome.
func NewToolResultTurn(callID, name string, outcome Outcome) Turn {
	return Turn{
		Kind:       TurnToolResult,
		Timestamp:  time.Now(),
		ToolResult: &ToolResultTurn{CallID: callID, Name: name, Outcome: outcome},
	}
}

// Conversation is the strictly ordered, append-only transcript. The
// model is stateless between calls, so the full transcript is resent
// verbatim on every inference round.
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// NewConversation creates an empty Conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a turn to the end of the transcript.
func (c *Conversation) Append(t Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
}

// Snapshot returns a copy of the transcript.
func (c *Conversation) Snapshot() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Messages converts the transcript into LLM messages. A model-text
// turn and the tool-call turns that immediately follow it collapse
// into a single assistant message, because providers require tool
// calls attached to the assistant message that issued them.
func (c *Conversation) Messages() []llm.Message {
	turns := c.Snapshot()

	var messages []llm.Message
	i := 0
	for i < len(turns) {
		turn := turns[i]
		switch turn.Kind {
		case TurnUserText:
			messages = append(messages, llm.UserMessage(turn.Text))
			i++
		case TurnModelText, TurnModelToolCall:
			msg := llm.Message{Role: llm.RoleAssistant}
			if turn.Kind == TurnModelText {
				msg.Content = append(msg.Content, llm.TextPart(turn.Text))
				i++
			}
			for i < len(turns) && turns[i].Kind == TurnModelToolCall {
				tc := turns[i].ToolCall
				msg.Content = append(msg.Content, llm.ToolCallPart(tc.CallID, tc.Name, tc.Arguments))
				i++
			}
			messages = append(messages, msg)
		case TurnToolResult:
			tr := turn.ToolResult
			messages = append(messages, llm.ToolResultMessage(tr.CallID, tr.Outcome.Message, !tr.Outcome.OK))
			i++
		default:
			i++
		}
	}
	return messages
}
