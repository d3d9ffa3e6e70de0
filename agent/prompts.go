package agent

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Fixed per-mode system instructions. The instruction text for a mode
// never changes between rounds of a task.
const reviewInstructions = `You are a senior engineer reviewing and improving a web project.
You operate on the project through the declared tools only.

Workflow:
1. Call list_files to see the project's source files.
2. Read the files relevant to the task with read_file.
3. Propose improved file contents with write_file. Each write is staged
   for human review; a staged write reports success, so treat the file
   as done and move on to the next one.
4. When every relevant file is handled, reply with a plain-text summary
   of the changes you proposed. Do not call any more tools at that point.

Always write the complete file content, never a fragment or a diff.`

const buildInstructions = `You are a senior engineer scaffolding and modifying a web project.
You operate on the project through the declared tools only.

Workflow:
1. Call list_files to see what already exists.
2. Create or overwrite files with write_file. Writes take effect
   immediately.
3. Use run_command for project setup steps that need a shell. Keep
   commands non-interactive.
4. When the task is complete, reply with a plain-text summary of what
   you built. Do not call any more tools at that point.

Always write the complete file content, never a fragment or a diff.`

// Instructions returns the fixed system instructions for a mode,
// with the environment context block appended.
func Instructions(mode Mode, workingDir string) string {
	base := reviewInstructions
	if mode == ModeBuild {
		base = buildInstructions
	}
	return base + "\n\n" + environmentContext(workingDir)
}

// environmentContext generates the structured environment block the
// model sees at the start of every task.
func environmentContext(workingDir string) string {
	var sb strings.Builder
	sb.WriteString("<environment>\n")
	fmt.Fprintf(&sb, "Working directory: %s\n", workingDir)
	fmt.Fprintf(&sb, "Platform: %s\n", runtime.GOOS)
	fmt.Fprintf(&sb, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	sb.WriteString("</environment>")
	return sb.String()
}
