package core

// DefaultHistoryLimit caps retained snapshots per editing session. Oldest
// entries are dropped first, the same way room snapshot lists are capped
// on the server side.
const DefaultHistoryLimit = 50

type (
	// Snapshot is an immutable capture of the undoable document state:
	// object sequence plus background. Incidental metadata (timestamps,
	// template key) is not part of undo.
	Snapshot struct {
		objects         []Object
		background      string
		backgroundImage string
	}

	// History is a linear undo/redo stack with a cursor. It performs no
	// I/O and cannot fail.
	History struct {
		snapshots []Snapshot
		cursor    int // index of the snapshot matching the live document
		limit     int
	}
)

// NewHistory returns a history seeded with the document's initial state,
// so the first undo returns to it.
func NewHistory(doc *Document) *History {
	h := &History{limit: DefaultHistoryLimit, cursor: -1}
	h.Record(doc)
	return h
}

// SetLimit changes the snapshot cap. Values below 2 are ignored; a history
// that cannot hold the current state plus one undo target is useless.
func (h *History) SetLimit(n int) {
	if n >= 2 {
		h.limit = n
	}
}

func (h *History) Len() int      { return len(h.snapshots) }
func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }

// Record captures the document after a completed mutation gesture. Any
// snapshots beyond the cursor are discarded first: a fresh edit kills the
// redo branch.
func (h *History) Record(doc *Document) {
	h.snapshots = h.snapshots[:h.cursor+1]
	h.snapshots = append(h.snapshots, capture(doc))
	if len(h.snapshots) > h.limit {
		drop := len(h.snapshots) - h.limit
		h.snapshots = append([]Snapshot(nil), h.snapshots[drop:]...)
	}
	h.cursor = len(h.snapshots) - 1
}

// Undo steps the cursor back and returns the snapshot to apply. Reports
// false (and does nothing) at the beginning of history.
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.cursor--
	return h.snapshots[h.cursor], true
}

// Redo steps the cursor forward and returns the snapshot to apply.
// Reports false (and does nothing) at the tail.
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.cursor++
	return h.snapshots[h.cursor], true
}

// Apply restores the captured state onto a live document. The snapshot's
// objects are cloned again so later edits cannot corrupt history.
func (s Snapshot) Apply(doc *Document) {
	objects := make([]Object, len(s.objects))
	for i, o := range s.objects {
		objects[i] = o.Clone()
	}
	doc.setObjects(objects)
	doc.Background = s.background
	doc.BackgroundImage = s.backgroundImage
	doc.touch()
}

// ObjectCount reports how many objects the snapshot holds.
func (s Snapshot) ObjectCount() int { return len(s.objects) }

func capture(doc *Document) Snapshot {
	objects := make([]Object, len(doc.objects))
	for i, o := range doc.objects {
		objects[i] = o.Clone()
	}
	return Snapshot{
		objects:         objects,
		background:      doc.Background,
		backgroundImage: doc.BackgroundImage,
	}
}
