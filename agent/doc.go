// Package agent implements a chat-driven agent loop that lets a
// language model inspect and modify a project's source tree through a
// small set of declared tools, with an approval gate in front of any
// destructive file mutation.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Loop: the orchestrator. It repeatedly sends the conversation and
//     the tool declarations to the model, dispatches returned tool
//     calls, and terminates when the model answers with plain text or
//     when an inference call fails.
//   - Conversation: the append-only ordered transcript of turns that
//     forms the prompt context for every inference call.
//   - Registry: a closed set of tools validated at construction;
//     dispatch of an unknown name is a soft failure, never fatal.
//   - Gateway: sandboxed scan/read/write/command primitives scoped to
//     the project root.
//   - Gate: holds staged edits in review mode until an external apply
//     or discard decision arrives.
//   - EventEmitter: typed event stream consumed by the host layer
//     (progress, assistant text, proposed edits, completion, failure).
//
// # Quick Start
//
//	client := llm.NewClientFromEnv()
//	loop, err := agent.New(agent.Config{
//	    BaseDir: "/path/to/project",
//	    Mode:    agent.ModeReview,
//	}, client)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go func() {
//	    for event := range loop.Events() {
//	        fmt.Printf("[%s] %v\n", event.Kind, event.Data)
//	    }
//	}()
//
//	if err := loop.Run(ctx, "Tidy up the error handling in src/"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, edit := range loop.Gate().Pending() {
//	    loop.Gate().Resolve(edit.ID, agent.DecisionApply)
//	}
package agent
