package agent

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EditDecision is the external resolution of a staged edit.
type EditDecision string

const (
	DecisionApply   EditDecision = "apply"
	DecisionDiscard EditDecision = "discard"
)

// PendingEdit is a proposed file mutation held pending external
// approval. Its lifecycle is Staged -> Applied | Discarded; Staged is
// the only non-terminal state. The underlying file is never mutated
// except through the apply resolution.
type PendingEdit struct {
	ID              string `json:"id"`
	TargetPath      string `json:"target_path"` // absolute
	RelativePath    string `json:"relative_path"`
	OriginalContent string `json:"original_content"`
	ProposedContent string `json:"proposed_content"`
	Diff            Diff   `json:"diff"`
	Preview         string `json:"preview"`
}

// NewPendingEdit creates a staged edit with a fresh ID, computing the
// positional diff and the human-readable preview.
func NewPendingEdit(targetPath, relativePath, original, proposed string) PendingEdit {
	return PendingEdit{
		ID:              uuid.New().String(),
		TargetPath:      targetPath,
		RelativePath:    relativePath,
		OriginalContent: original,
		ProposedContent: proposed,
		Diff:            ComputeDiff(original, proposed),
		Preview:         RenderPreview(original, proposed),
	}
}

// Gate holds staged edits until an external apply or discard decision
// arrives. Multiple edits may coexist (one per distinct file produced
// in a review run); each resolves independently, with no batch
// atomicity.
type Gate struct {
	mu     sync.Mutex
	edits  map[string]PendingEdit
	order  []string
	apply  func(PendingEdit) error
	notify func(PendingEdit)
}

// NewGate creates an empty Gate.
func NewGate() *Gate {
	return &Gate{edits: make(map[string]PendingEdit)}
}

// SetApplier sets the deferred-write function invoked when an edit is
// resolved with apply.
func (g *Gate) SetApplier(fn func(PendingEdit) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply = fn
}

// SetNotifier sets the callback invoked when an edit is staged, used
// to surface the edit to the external approval sink.
func (g *Gate) SetNotifier(fn func(PendingEdit)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notify = fn
}

// Stage adds an edit to the pending queue and surfaces it.
func (g *Gate) Stage(edit PendingEdit) {
	g.mu.Lock()
	g.edits[edit.ID] = edit
	g.order = append(g.order, edit.ID)
	notify := g.notify
	g.mu.Unlock()

	if notify != nil {
		notify(edit)
	}
}

// Pending returns all staged edits in staging order.
func (g *Gate) Pending() []PendingEdit {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PendingEdit, 0, len(g.order))
	for _, id := range g.order {
		if edit, ok := g.edits[id]; ok {
			out = append(out, edit)
		}
	}
	return out
}

// Len returns the number of staged edits.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edits)
}

// Resolve settles one staged edit. Apply triggers the deferred disk
// write and removes the record; discard removes the record without
// I/O. Resolving an unknown ID is a no-op, not an error, so abandoned
// or repeated decisions are harmless. If the deferred write fails the
// edit stays staged and the error is returned.
func (g *Gate) Resolve(id string, decision EditDecision) error {
	g.mu.Lock()
	edit, ok := g.edits[id]
	apply := g.apply
	g.mu.Unlock()

	if !ok {
		return nil
	}

	if decision == DecisionApply {
		if apply == nil {
			return fmt.Errorf("no applier configured for edit %s", id)
		}
		if err := apply(edit); err != nil {
			return fmt.Errorf("apply edit %s: %w", edit.RelativePath, err)
		}
	}

	g.mu.Lock()
	delete(g.edits, id)
	for i, queued := range g.order {
		if queued == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.mu.Unlock()
	return nil
}
