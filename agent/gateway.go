package agent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Mode selects the write policy for a task.
type Mode string

const (
	// ModeReview stages file mutations behind the approval gate.
	ModeReview Mode = "review"
	// ModeBuild applies file mutations and shell commands immediately.
	ModeBuild Mode = "build"
)

// skipDirFragments are path substrings that exclude a directory and
// everything beneath it from a scan: dependency caches, build output,
// version-control metadata.
var skipDirFragments = []string{"node_modules", "dist", "build", "out", ".git"}

// sourceExtensions is the scan allow-list.
var sourceExtensions = map[string]bool{
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".html": true,
	".css":  true,
}

// benignStderrFragment marks shell stderr output that is not treated
// as a failure. The heuristic is deliberately permissive and may
// misclassify genuine errors; it is preserved as documented behavior.
const benignStderrFragment = "already exists"

// Gateway provides sandboxed file operations scoped to a project
// root. Paths never escape the root; relative inputs resolve against
// it and absolute inputs must fall inside it.
type Gateway struct {
	root     string
	mode     Mode
	gate     *Gate
	includes []string // optional doublestar patterns narrowing the scan
}

// NewGateway creates a Gateway rooted at baseDir. In review mode the
// gate receives staged edits instead of disk writes.
func NewGateway(baseDir string, mode Mode, gate *Gate) (*Gateway, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	if mode == ModeReview && gate == nil {
		return nil, fmt.Errorf("review mode requires an approval gate")
	}
	return &Gateway{root: filepath.Clean(abs), mode: mode, gate: gate}, nil
}

// SetIncludes narrows the scan to paths matching any of the given
// glob patterns (relative to the root), in addition to the extension
// allow-list. Empty means no narrowing.
func (g *Gateway) SetIncludes(patterns []string) {
	g.includes = patterns
}

// Root returns the project root directory.
func (g *Gateway) Root() string { return g.root }

// Mode returns the gateway's write policy.
func (g *Gateway) Mode() Mode { return g.mode }

// resolve turns path into an absolute path inside the root, rejecting
// escapes.
func (g *Gateway) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.Contains(path, "\x00") {
		return "", fmt.Errorf("null byte in path")
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(g.root, resolved)
	}
	resolved = filepath.Clean(resolved)
	if resolved != g.root && !strings.HasPrefix(resolved, g.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the project root", path)
	}
	return resolved, nil
}

// Rel returns path relative to the root, falling back to the input
// when it cannot be made relative.
func (g *Gateway) Rel(path string) string {
	rel, err := filepath.Rel(g.root, path)
	if err != nil {
		return path
	}
	return rel
}

// Scan walks the project tree depth-first and returns the absolute
// paths of source files, in traversal order. Directories matching the
// deny-list are skipped entirely. An unreadable subdirectory does not
// fail the scan; its subtree is skipped and the walk continues.
func (g *Gateway) Scan() ([]string, error) {
	if _, err := os.Stat(g.root); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	var files []string
	g.scanDir(g.root, &files)
	return files, nil
}

func (g *Gateway) scanDir(dir string, files *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable subtree: skip and continue with siblings.
		return
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if g.skippedDir(path) {
				continue
			}
			g.scanDir(path, files)
			continue
		}
		if !sourceExtensions[filepath.Ext(entry.Name())] {
			continue
		}
		if !g.included(path) {
			continue
		}
		*files = append(*files, path)
	}
}

// skippedDir matches deny fragments against the root-relative path,
// so a project root that itself contains a fragment (a checkout under
// some "build" directory, say) does not blank out the whole scan.
func (g *Gateway) skippedDir(path string) bool {
	rel := filepath.ToSlash(g.Rel(path))
	for _, fragment := range skipDirFragments {
		if strings.Contains(rel, fragment) {
			return true
		}
	}
	return false
}

func (g *Gateway) included(path string) bool {
	if len(g.includes) == 0 {
		return true
	}
	rel := filepath.ToSlash(g.Rel(path))
	for _, pattern := range g.includes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Read returns the UTF-8 content of a file inside the root.
func (g *Gateway) Read(path string) (string, error) {
	resolved, err := g.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", g.Rel(resolved), err)
	}
	return string(data), nil
}

// Write applies the mode's write policy.
//
// Build mode writes immediately, creating parent directories as
// needed (pre-existing directories are not an error). Review mode
// never touches disk: identical content short-circuits as a no-op,
// differing content is diffed and staged on the gate for approval.
// Either way the returned message reports success, so the model's
// turn-taking treats the file as handled and moves on.
func (g *Gateway) Write(path, content string) (string, error) {
	resolved, err := g.resolve(path)
	if err != nil {
		return "", err
	}
	rel := g.Rel(resolved)

	if g.mode == ModeBuild {
		if err := g.commitWrite(resolved, content); err != nil {
			return "", err
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(content), rel), nil
	}

	original := ""
	if data, err := os.ReadFile(resolved); err == nil {
		original = string(data)
	}

	if original == content {
		return fmt.Sprintf("no changes needed for %s", rel), nil
	}

	g.gate.Stage(NewPendingEdit(resolved, rel, original, content))
	return fmt.Sprintf("staged changes to %s for approval", rel), nil
}

// commitWrite performs an unconditional write with parent directory
// creation. The gate uses it as the deferred apply step.
func (g *Gateway) commitWrite(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", g.Rel(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", g.Rel(path), err)
	}
	return nil
}

// ApplyEdit is the gate's deferred-write hook: it writes the proposed
// content of a resolved edit verbatim to its target path.
func (g *Gateway) ApplyEdit(edit PendingEdit) error {
	return g.commitWrite(edit.TargetPath, edit.ProposedContent)
}

// RunCommand executes a shell command with the project root as the
// working directory. Build mode only. Non-empty stderr is treated as
// failure unless it matches the benign pattern.
func (g *Gateway) RunCommand(ctx context.Context, command string) (string, error) {
	if g.mode != ModeBuild {
		return "", fmt.Errorf("shell commands are only available in build mode")
	}
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("empty command")
	}

	shell, shellArg := "/bin/bash", "-c"
	if runtime.GOOS == "windows" {
		shell, shellArg = "cmd.exe", "/c"
	}

	cmd := exec.CommandContext(ctx, shell, shellArg, command)
	cmd.Dir = g.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	errText := strings.TrimSpace(stderr.String())

	if runErr != nil {
		if errText != "" {
			return "", fmt.Errorf("command failed: %s", errText)
		}
		return "", fmt.Errorf("command failed: %v", runErr)
	}
	if errText != "" && !strings.Contains(errText, benignStderrFragment) {
		return "", fmt.Errorf("command reported errors: %s", errText)
	}
	return stdout.String(), nil
}
