package agent

import (
	"fmt"
	"strings"
)

// TruncationMode specifies how oversized tool output is cut down
// before it enters the transcript.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// Default character limits per tool.
var DefaultToolCharLimits = map[string]int{
	ToolListFiles:  20000,
	ToolReadFile:   50000,
	ToolWriteFile:  1000,
	ToolRunCommand: 30000,
}

// Default truncation modes per tool.
var DefaultTruncationModes = map[string]TruncationMode{
	ToolListFiles:  TruncateTail,
	ToolReadFile:   TruncateHeadTail,
	ToolWriteFile:  TruncateTail,
	ToolRunCommand: TruncateHeadTail,
}

// Default line limits per tool, applied after character truncation.
var DefaultToolLineLimits = map[string]int{
	ToolListFiles:  500,
	ToolRunCommand: 256,
}

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if len(output) <= maxChars {
		return output
	}

	removed := len(output) - maxChars
	switch mode {
	case TruncateTail:
		return fmt.Sprintf("[Output truncated. First %d characters were removed. "+
			"The full output is available in the event stream.]\n\n", removed) +
			output[len(output)-maxChars:]
	default:
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[Output truncated. %d characters were removed from the middle. "+
				"The full output is available in the event stream. "+
				"Re-run the tool with more targeted parameters if you need the rest.]\n\n",
				removed) +
			output[len(output)-half:]
	}
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies the per-tool limits to a tool result
// message: character truncation first, then line truncation for tools
// with a line limit. The full untruncated output still reaches the
// host through events; only the transcript copy is bounded.
func TruncateToolOutput(output, toolName string) string {
	maxChars, ok := DefaultToolCharLimits[toolName]
	if !ok {
		maxChars = 30000
	}
	mode, ok := DefaultTruncationModes[toolName]
	if !ok {
		mode = TruncateHeadTail
	}
	result := TruncateOutput(output, maxChars, mode)

	if maxLines, ok := DefaultToolLineLimits[toolName]; ok {
		result = TruncateLines(result, maxLines)
	}
	return result
}
