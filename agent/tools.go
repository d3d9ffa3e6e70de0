package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openclay/scribe/llm"
)

// Tool names. The set is closed per mode and assembled by Toolset.
const (
	ToolListFiles  = "list_files"
	ToolReadFile   = "read_file"
	ToolWriteFile  = "write_file"
	ToolRunCommand = "run_command"
)

// Toolset assembles the fixed tool set for a mode. Review mode gets
// the file tools only; build mode adds shell access.
func Toolset(mode Mode, gw *Gateway) []Tool {
	tools := []Tool{
		&listFilesTool{gw: gw},
		&readFileTool{gw: gw},
		&writeFileTool{gw: gw},
	}
	if mode == ModeBuild {
		tools = append(tools, &runCommandTool{gw: gw})
	}
	return tools
}

type listFilesTool struct {
	gw *Gateway
}

func (t *listFilesTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        ToolListFiles,
		Description: "List the source files in the project. Returns one path per line, relative to the project root.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}
}

func (t *listFilesTool) Invoke(ctx context.Context, arguments json.RawMessage) Outcome {
	paths, err := t.gw.Scan()
	if err != nil {
		return Failure("list files: %v", err)
	}
	if len(paths) == 0 {
		return Success("no source files found")
	}
	rels := make([]string, len(paths))
	for i, p := range paths {
		rels[i] = t.gw.Rel(p)
	}
	return Success("%s", strings.Join(rels, "\n"))
}

type readFileTool struct {
	gw *Gateway
}

func (t *readFileTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        ToolReadFile,
		Description: "Read a file from the project. Returns the full UTF-8 content.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file, relative to the project root.",
				},
			},
			"required": []string{"path"},
		},
	}
}

func (t *readFileTool) Invoke(ctx context.Context, arguments json.RawMessage) Outcome {
	args, err := ParseArguments(arguments)
	if err != nil {
		return Failure("invalid arguments: %v", err)
	}
	path, ok := StringArg(args, "path")
	if !ok || path == "" {
		return Failure("path is required")
	}
	content, err := t.gw.Read(path)
	if err != nil {
		return Failure("%v", err)
	}
	return Success("%s", content)
}

type writeFileTool struct {
	gw *Gateway
}

func (t *writeFileTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        ToolWriteFile,
		Description: "Write the full content of a file. Creates the file and parent directories if needed.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to write, relative to the project root.",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The full file content to write.",
				},
			},
			"required": []string{"path", "content"},
		},
	}
}

func (t *writeFileTool) Invoke(ctx context.Context, arguments json.RawMessage) Outcome {
	args, err := ParseArguments(arguments)
	if err != nil {
		return Failure("invalid arguments: %v", err)
	}
	path, ok := StringArg(args, "path")
	if !ok || path == "" {
		return Failure("path is required")
	}
	content, ok := StringArg(args, "content")
	if !ok {
		return Failure("content is required")
	}
	message, err := t.gw.Write(path, content)
	if err != nil {
		return Failure("%v", err)
	}
	return Success("%s", message)
}

type runCommandTool struct {
	gw *Gateway
}

func (t *runCommandTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        ToolRunCommand,
		Description: "Execute a shell command in the project root. Returns the command's standard output.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The command to run.",
				},
			},
			"required": []string{"command"},
		},
	}
}

func (t *runCommandTool) Invoke(ctx context.Context, arguments json.RawMessage) Outcome {
	args, err := ParseArguments(arguments)
	if err != nil {
		return Failure("invalid arguments: %v", err)
	}
	command, ok := StringArg(args, "command")
	if !ok || strings.TrimSpace(command) == "" {
		return Failure("command is required")
	}
	output, err := t.gw.RunCommand(ctx, command)
	if err != nil {
		return Failure("%v", err)
	}
	if strings.TrimSpace(output) == "" {
		return Success("command completed with no output")
	}
	return Success("%s", output)
}
