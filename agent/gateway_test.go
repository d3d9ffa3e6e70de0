package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func buildGateway(t *testing.T, root string) *Gateway {
	t.Helper()
	gw, err := NewGateway(root, ModeBuild, nil)
	if err != nil {
		t.Fatal(err)
	}
	return gw
}

func reviewGateway(t *testing.T, root string) (*Gateway, *Gate) {
	t.Helper()
	gate := NewGate()
	gw, err := NewGateway(root, ModeReview, gate)
	if err != nil {
		t.Fatal(err)
	}
	gate.SetApplier(gw.ApplyEdit)
	return gw, gate
}

func TestScanFiltersExtensions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":    "<html></html>",
		"app.js":        "console.log(1)",
		"style.css":     "body {}",
		"readme.md":     "# readme",
		"data.json":     "{}",
		"src/main.ts":   "export {}",
		"src/view.tsx":  "export {}",
		"src/notes.txt": "notes",
	})

	gw := buildGateway(t, root)
	paths, err := gw.Scan()
	if err != nil {
		t.Fatal(err)
	}

	rels := make(map[string]bool)
	for _, p := range paths {
		rels[filepath.ToSlash(gw.Rel(p))] = true
	}
	for _, want := range []string{"index.html", "app.js", "style.css", "src/main.ts", "src/view.tsx"} {
		if !rels[want] {
			t.Errorf("scan missing %s", want)
		}
	}
	for _, skip := range []string{"readme.md", "data.json", "src/notes.txt"} {
		if rels[skip] {
			t.Errorf("scan included %s", skip)
		}
	}
}

func TestScanSkipsDeniedDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.js":                    "a",
		"node_modules/pkg/index.js": "b",
		"dist/bundle.js":            "c",
		"build/output.js":           "d",
		"out/main.js":               "e",
		".git/hooks/pre-commit.js":  "f",
	})

	gw := buildGateway(t, root)
	paths, err := gw.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || gw.Rel(paths[0]) != "app.js" {
		t.Errorf("scan = %v, want only app.js", paths)
	}
}

func TestScanDenyListIgnoresRootPath(t *testing.T) {
	// The project root's own path containing a deny fragment must not
	// blank out the scan; only fragments inside the tree count.
	base := t.TempDir()
	root := filepath.Join(base, "checkout", "app")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	writeTree(t, root, map[string]string{
		"app.js":         "a",
		"src/main.js":    "b",
		"dist/bundle.js": "c",
	})

	gw := buildGateway(t, root)
	paths, err := gw.Scan()
	if err != nil {
		t.Fatal(err)
	}
	rels := make(map[string]bool)
	for _, p := range paths {
		rels[filepath.ToSlash(gw.Rel(p))] = true
	}
	if !rels["app.js"] || !rels["src/main.js"] {
		t.Errorf("scan = %v, want files under a root path containing %q", paths, "out")
	}
	if rels["dist/bundle.js"] {
		t.Error("deny-listed directory inside the tree was scanned")
	}
}

func TestScanToleratesUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"visible.js":       "a",
		"locked/hidden.js": "b",
	})
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	gw := buildGateway(t, root)
	paths, err := gw.Scan()
	if err != nil {
		t.Fatalf("scan failed on unreadable subtree: %v", err)
	}
	if len(paths) != 1 || gw.Rel(paths[0]) != "visible.js" {
		t.Errorf("scan = %v, want only visible.js", paths)
	}
}

func TestScanIncludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.js":        "a",
		"src/main.ts":   "b",
		"src/helper.ts": "c",
	})

	gw := buildGateway(t, root)
	gw.SetIncludes([]string{"src/**"})
	paths, err := gw.Scan()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range paths {
		if !strings.HasPrefix(filepath.ToSlash(gw.Rel(p)), "src/") {
			t.Errorf("include pattern leaked %s", gw.Rel(p))
		}
	}
	if len(paths) != 2 {
		t.Errorf("got %d paths, want 2", len(paths))
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	gw := buildGateway(t, root)

	for _, path := range []string{
		"../outside.js",
		"../../etc/passwd",
		"/etc/passwd",
		"sub/../../outside.js",
	} {
		if _, err := gw.Read(path); err == nil {
			t.Errorf("Read(%q) succeeded, want escape rejection", path)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	gw := buildGateway(t, t.TempDir())
	if _, err := gw.Read("missing.js"); err == nil {
		t.Error("read of missing file succeeded")
	}
}

func TestBuildWriteCreatesParents(t *testing.T) {
	root := t.TempDir()
	gw := buildGateway(t, root)

	if _, err := gw.Write("deep/nested/file.js", "content"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "deep", "nested", "file.js"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("content = %q", data)
	}

	// Writing again through the existing directories must not error.
	if _, err := gw.Write("deep/nested/file.js", "updated"); err != nil {
		t.Fatalf("second write: %v", err)
	}
}

func TestReviewWriteIdenticalContentIsNoOp(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"app.js": "same"})
	gw, gate := reviewGateway(t, root)

	msg, err := gw.Write("app.js", "same")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "no changes") {
		t.Errorf("message = %q", msg)
	}
	if gate.Len() != 0 {
		t.Errorf("gate holds %d edits, want 0", gate.Len())
	}
}

func TestReviewWriteStagesWithoutTouchingDisk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"app.js": "old"})
	gw, gate := reviewGateway(t, root)

	if _, err := gw.Write("app.js", "new"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "app.js"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old" {
		t.Errorf("disk content mutated to %q before approval", data)
	}

	pending := gate.Pending()
	if len(pending) != 1 {
		t.Fatalf("gate holds %d edits, want 1", len(pending))
	}
	edit := pending[0]
	if edit.ProposedContent != "new" || edit.OriginalContent != "old" {
		t.Errorf("edit = %+v", edit)
	}
	want := ComputeDiff("old", "new")
	if len(edit.Diff.Removed) != len(want.Removed) || len(edit.Diff.Added) != len(want.Added) {
		t.Errorf("edit diff %+v, want %+v", edit.Diff, want)
	}
}

func TestReviewWriteNewFile(t *testing.T) {
	root := t.TempDir()
	gw, gate := reviewGateway(t, root)

	if _, err := gw.Write("fresh.js", "hello"); err != nil {
		t.Fatal(err)
	}
	pending := gate.Pending()
	if len(pending) != 1 {
		t.Fatalf("gate holds %d edits, want 1", len(pending))
	}
	if pending[0].OriginalContent != "" {
		t.Errorf("original = %q, want empty for a new file", pending[0].OriginalContent)
	}
	if _, err := os.Stat(filepath.Join(root, "fresh.js")); !os.IsNotExist(err) {
		t.Error("new file exists on disk before approval")
	}
}

func TestRunCommandReviewModeRejected(t *testing.T) {
	root := t.TempDir()
	gw, _ := reviewGateway(t, root)
	if _, err := gw.RunCommand(context.Background(), "true"); err == nil {
		t.Error("run command succeeded in review mode")
	}
}

func TestRunCommandCapturesStdout(t *testing.T) {
	gw := buildGateway(t, t.TempDir())
	out, err := gw.RunCommand(context.Background(), "printf hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommandStderrIsFailure(t *testing.T) {
	gw := buildGateway(t, t.TempDir())
	if _, err := gw.RunCommand(context.Background(), "printf 'something broke' >&2"); err == nil {
		t.Error("stderr output did not fail the command")
	}
}

func TestRunCommandBenignStderrSucceeds(t *testing.T) {
	gw := buildGateway(t, t.TempDir())
	out, err := gw.RunCommand(context.Background(), "printf ok; printf 'dir already exists' >&2")
	if err != nil {
		t.Fatalf("benign stderr failed the command: %v", err)
	}
	if out != "ok" {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommandNonZeroExit(t *testing.T) {
	gw := buildGateway(t, t.TempDir())
	if _, err := gw.RunCommand(context.Background(), "exit 3"); err == nil {
		t.Error("non-zero exit did not fail the command")
	}
}
