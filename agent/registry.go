package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openclay/scribe/llm"
)

// Outcome is the structured result of a tool dispatch. It is the only
// thing that crosses the dispatch boundary: handler failures are
// converted into an Outcome with OK=false so the model can react, and
// the loop continues.
type Outcome struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
}

// Success creates a successful Outcome.
func Success(format string, args ...interface{}) Outcome {
	return Outcome{OK: true, Message: fmt.Sprintf(format, args...)}
}

// Failure creates a failed Outcome.
func Failure(format string, args ...interface{}) Outcome {
	return Outcome{OK: false, Message: fmt.Sprintf(format, args...)}
}

// Tool is one member of the closed tool set. Each tool carries its
// declaration (sent unchanged to the model every round) and a uniform
// invoke contract.
type Tool interface {
	Definition() llm.ToolDefinition
	Invoke(ctx context.Context, args json.RawMessage) Outcome
}

// Registry holds a fixed set of tools, checked at construction time.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a Registry from a fixed tool set. It rejects
// duplicate or empty names and malformed declarations up front, so a
// bad tool is a construction error rather than a runtime surprise.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		def := tool.Definition()
		if def.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[def.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", def.Name)
		}
		if def.Parameters == nil {
			return nil, fmt.Errorf("tool %q has no parameter schema", def.Name)
		}
		if typ, _ := def.Parameters["type"].(string); typ != "object" {
			return nil, fmt.Errorf("tool %q parameter schema must be an object schema", def.Name)
		}
		r.order = append(r.order, def.Name)
		r.tools[def.Name] = tool
	}
	return r, nil
}

// Definitions returns all tool declarations in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Dispatch routes a tool call to its handler. An unknown name is a
// soft failure. A panicking handler is caught at this boundary and
// converted to a failed Outcome.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (outcome Outcome) {
	tool, ok := r.tools[name]
	if !ok {
		return Failure("unknown tool: %s", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			outcome = Failure("tool %s panicked: %v", name, rec)
		}
	}()

	return tool.Invoke(ctx, args)
}

// ParseArguments unmarshals tool call arguments into a map for
// validation and access.
func ParseArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// StringArg extracts a string argument from parsed tool arguments.
func StringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
