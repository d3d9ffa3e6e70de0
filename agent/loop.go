package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openclay/scribe/llm"
)

// Config is the per-task configuration for a Loop. Credentials and the
// base directory are task-scoped, never ambient state, so concurrent
// tasks cannot cross-contaminate.
type Config struct {
	// BaseDir is the project root all file operations are scoped to.
	BaseDir string
	// Mode selects the write policy and the tool set.
	Mode Mode
	// Model names the model to use. Empty means the provider's default.
	Model string
	// Provider routes inference. Empty means the client's default.
	Provider string
	// MaxRounds is an optional safety ceiling on inference rounds.
	// Zero means no ceiling: the loop stops only on terminal text or
	// a fatal inference error.
	MaxRounds int
	// ScanIncludes optionally narrows the project scan to matching
	// glob patterns.
	ScanIncludes []string
	// Instructions is appended to the mode's system instructions.
	Instructions string
}

// Loop orchestrates one task: it repeatedly sends the conversation and
// the declared tools to the model, dispatches returned tool calls in
// order, and terminates when the model responds with plain text or an
// inference call fails.
type Loop struct {
	id           string
	config       Config
	client       *llm.Client
	conversation *Conversation
	registry     *Registry
	gateway      *Gateway
	gate         *Gate
	emitter      *EventEmitter
}

// New creates a Loop for a single task. The tool set is fixed at
// construction and validated up front; a misdeclared tool is a
// construction error, not a dispatch-time surprise.
func New(config Config, client *llm.Client) (*Loop, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	switch config.Mode {
	case ModeReview, ModeBuild:
	default:
		return nil, fmt.Errorf("unknown mode %q", config.Mode)
	}

	gate := NewGate()
	gateway, err := NewGateway(config.BaseDir, config.Mode, gate)
	if err != nil {
		return nil, err
	}
	gateway.SetIncludes(config.ScanIncludes)
	gate.SetApplier(gateway.ApplyEdit)

	registry, err := NewRegistry(Toolset(config.Mode, gateway)...)
	if err != nil {
		return nil, err
	}

	taskID := uuid.New().String()
	emitter := NewEventEmitter(taskID, 256)
	gate.SetNotifier(func(edit PendingEdit) {
		emitter.Emit(EventEditProposed, map[string]interface{}{
			"edit_id": edit.ID,
			"path":    edit.RelativePath,
			"preview": edit.Preview,
		})
	})

	return &Loop{
		id:           taskID,
		config:       config,
		client:       client,
		conversation: NewConversation(),
		registry:     registry,
		gateway:      gateway,
		gate:         gate,
		emitter:      emitter,
	}, nil
}

// ID returns the task identifier.
func (l *Loop) ID() string { return l.id }

// Events returns the task's event channel.
func (l *Loop) Events() <-chan TaskEvent { return l.emitter.Events() }

// Gate returns the approval gate holding this task's staged edits.
func (l *Loop) Gate() *Gate { return l.gate }

// Conversation returns the task's transcript.
func (l *Loop) Conversation() *Conversation { return l.conversation }

// Run executes the task to completion. It emits exactly one terminal
// event: Completion with the model's summary text, or Failure with the
// reason. The returned error mirrors the Failure event. The event
// channel is closed when Run returns.
func (l *Loop) Run(ctx context.Context, task string) error {
	defer l.emitter.Close()

	if strings.TrimSpace(task) == "" {
		err := fmt.Errorf("task description is empty")
		l.fail(err)
		return err
	}

	l.conversation.Append(NewUserTextTurn(task))
	l.emitter.Emit(EventProgress, map[string]interface{}{
		"label": "analyzing project",
	})

	instructions := Instructions(l.config.Mode, l.gateway.Root())
	if l.config.Instructions != "" {
		instructions += "\n\n# Additional instructions\n\n" + l.config.Instructions
	}
	toolDefs := l.registry.Definitions()

	rounds := 0
	for {
		if err := ctx.Err(); err != nil {
			l.fail(err)
			return err
		}
		if l.config.MaxRounds > 0 && rounds >= l.config.MaxRounds {
			err := fmt.Errorf("round ceiling reached after %d rounds", rounds)
			l.fail(err)
			return err
		}
		rounds++

		request := llm.Request{
			Model:      l.config.Model,
			Provider:   l.config.Provider,
			Messages:   append([]llm.Message{llm.SystemMessage(instructions)}, l.conversation.Messages()...),
			ToolDefs:   toolDefs,
			ToolChoice: &llm.ToolChoice{Mode: "auto"},
		}

		// One attempt per round. An inference failure is fatal to the
		// task; nothing is retried.
		response, err := l.client.Complete(ctx, request)
		if err != nil {
			l.fail(err)
			return err
		}

		toolCalls := response.ToolCalls()
		if len(toolCalls) == 0 {
			text := response.Text()
			l.conversation.Append(NewModelTextTurn(text))
			l.emitter.Emit(EventProgressDone, nil)
			l.emitter.Emit(EventAssistantText, map[string]interface{}{
				"text": text,
			})
			l.emitter.Emit(EventCompletion, map[string]interface{}{
				"summary": text,
			})
			return nil
		}

		// A model-text turn is terminal by contract. Preamble text
		// arriving alongside tool calls is surfaced to the host but
		// not recorded as a turn.
		if text := response.Text(); text != "" {
			l.emitter.Emit(EventAssistantText, map[string]interface{}{
				"text": text,
			})
		}

		// Dispatch in the order the model returned the calls. Each
		// result is appended before the next call starts, so every
		// dispatch sees the transcript its predecessors produced.
		for _, call := range toolCalls {
			l.dispatch(ctx, call)
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, call llm.ToolCall) {
	l.conversation.Append(NewModelToolCallTurn(call.ID, call.Name, call.Arguments))
	l.emitter.Emit(EventToolCallStart, map[string]interface{}{
		"call_id":   call.ID,
		"tool_name": call.Name,
	})

	outcome := l.registry.Dispatch(ctx, call.Name, call.Arguments)

	// The full output reaches the host through the event stream; the
	// transcript copy is bounded.
	data := map[string]interface{}{
		"call_id":   call.ID,
		"tool_name": call.Name,
		"output":    outcome.Message,
	}
	if !outcome.OK {
		data["error"] = outcome.Message
	}
	l.emitter.Emit(EventToolCallEnd, data)

	recorded := outcome
	recorded.Message = TruncateToolOutput(outcome.Message, call.Name)
	l.conversation.Append(NewToolResultTurn(call.ID, call.Name, recorded))
}

func (l *Loop) fail(err error) {
	l.emitter.Emit(EventFailure, map[string]interface{}{
		"reason": err.Error(),
	})
}
