package agent

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff is a line-level added/removed decomposition of two texts.
//
// The decomposition is positional: both texts are split on line
// boundaries and compared index by index. A line present only in the
// old text goes to Removed, a line present only in the new text goes
// to Added, and a pair that differs at the same index goes to both.
// The algorithm does not detect insertions or deletions that shift
// subsequent lines into alignment: a single inserted line near the
// top of a file makes every following line show as both removed and
// added. That shape is this type's contract, not an accident.
type Diff struct {
	Removed []string `json:"removed"`
	Added   []string `json:"added"`
}

// Empty reports whether the diff records no changes.
func (d Diff) Empty() bool {
	return len(d.Removed) == 0 && len(d.Added) == 0
}

// ComputeDiff decomposes oldText and newText into removed and added
// lines per the positional algorithm. It is a pure function, no I/O.
func ComputeDiff(oldText, newText string) Diff {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	max := len(oldLines)
	if len(newLines) > max {
		max = len(newLines)
	}

	var d Diff
	for i := 0; i < max; i++ {
		hasOld := i < len(oldLines)
		hasNew := i < len(newLines)
		switch {
		case hasOld && !hasNew:
			d.Removed = append(d.Removed, oldLines[i])
		case !hasOld && hasNew:
			d.Added = append(d.Added, newLines[i])
		case oldLines[i] != newLines[i]:
			d.Removed = append(d.Removed, oldLines[i])
			d.Added = append(d.Added, newLines[i])
		}
	}
	return d
}

// RenderPreview renders a human-readable line diff for the approval
// surface. Unlike ComputeDiff this uses a proper edit-distance line
// diff, because the preview is for people; the positional Diff remains
// the canonical decomposition.
func RenderPreview(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitPreviewLines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// splitPreviewLines splits diff segment text into lines, dropping the
// empty trailer produced by a terminating newline.
func splitPreviewLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
