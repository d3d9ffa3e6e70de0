package agent

import (
	"reflect"
	"strings"
	"testing"
)

func TestComputeDiffNoOp(t *testing.T) {
	texts := []string{
		"",
		"single line",
		"a\nb\nc",
		"trailing newline\n",
	}
	for _, text := range texts {
		d := ComputeDiff(text, text)
		if !d.Empty() {
			t.Errorf("diff of identical text %q: got %+v, want empty", text, d)
		}
	}
}

func TestComputeDiffChangedLine(t *testing.T) {
	d := ComputeDiff("a\nb\nc", "a\nB\nc")
	if !reflect.DeepEqual(d.Removed, []string{"b"}) {
		t.Errorf("removed = %v, want [b]", d.Removed)
	}
	if !reflect.DeepEqual(d.Added, []string{"B"}) {
		t.Errorf("added = %v, want [B]", d.Added)
	}
}

func TestComputeDiffAppendedLines(t *testing.T) {
	d := ComputeDiff("a", "a\nb\nc")
	if len(d.Removed) != 0 {
		t.Errorf("removed = %v, want none", d.Removed)
	}
	if !reflect.DeepEqual(d.Added, []string{"b", "c"}) {
		t.Errorf("added = %v, want [b c]", d.Added)
	}
}

func TestComputeDiffTruncatedLines(t *testing.T) {
	d := ComputeDiff("a\nb\nc", "a")
	if !reflect.DeepEqual(d.Removed, []string{"b", "c"}) {
		t.Errorf("removed = %v, want [b c]", d.Removed)
	}
	if len(d.Added) != 0 {
		t.Errorf("added = %v, want none", d.Added)
	}
}

// A single inserted line shifts everything after it, so every
// following line shows as both removed and added. That is the
// positional algorithm's documented shape.
func TestComputeDiffInsertionShiftsTail(t *testing.T) {
	d := ComputeDiff("a\nb\nc", "x\na\nb\nc")
	if !reflect.DeepEqual(d.Removed, []string{"a", "b", "c"}) {
		t.Errorf("removed = %v", d.Removed)
	}
	if !reflect.DeepEqual(d.Added, []string{"x", "a", "b", "c"}) {
		t.Errorf("added = %v", d.Added)
	}
}

// Overlaying the added lines onto the old text at their positional
// indices reproduces the new text.
func TestComputeDiffRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"a\nb\nc", "a\nB\nc"},
		{"a", "a\nb\nc"},
		{"a\nb\nc\nd", "a\nc"},
		{"", "hello\nworld"},
		{"only\nold", ""},
	}
	for _, pair := range pairs {
		oldText, newText := pair[0], pair[1]
		d := ComputeDiff(oldText, newText)

		oldLines := strings.Split(oldText, "\n")
		newLines := strings.Split(newText, "\n")
		rebuilt := make([]string, len(newLines))
		added := d.Added
		for i := range newLines {
			if i < len(oldLines) && oldLines[i] == newLines[i] {
				rebuilt[i] = oldLines[i]
				continue
			}
			if len(added) == 0 {
				t.Fatalf("diff(%q, %q): ran out of added lines at index %d", oldText, newText, i)
			}
			rebuilt[i] = added[0]
			added = added[1:]
		}
		if got := strings.Join(rebuilt, "\n"); got != newText {
			t.Errorf("diff(%q, %q): rebuilt %q", oldText, newText, got)
		}
		if len(added) != 0 {
			t.Errorf("diff(%q, %q): %d unused added lines", oldText, newText, len(added))
		}
	}
}

func TestRenderPreview(t *testing.T) {
	preview := RenderPreview("a\nb\nc\n", "a\nB\nc\n")
	if !strings.Contains(preview, "- b") {
		t.Errorf("preview missing removed line:\n%s", preview)
	}
	if !strings.Contains(preview, "+ B") {
		t.Errorf("preview missing added line:\n%s", preview)
	}
	if !strings.Contains(preview, "  a") {
		t.Errorf("preview missing context line:\n%s", preview)
	}
}
