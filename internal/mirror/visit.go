package mirror

import (
	"sync"

	"go.uber.org/zap"
)

// VisitTracker records which normalized paths have been materialized during
// one crawl session, plus the parent/child adjacency of directories
// discovered so far. One instance per session, never reused across runs.
//
// All mutations go through a mutex so a bounded-parallel walk preserves the
// at-most-once-visit invariant; Visit is a single check-and-set.
type VisitTracker struct {
	mu       sync.Mutex
	visited  map[string]struct{}
	parents  map[string]string
	children map[string][]string
	log      *zap.Logger
}

// NewVisitTracker creates an empty session-scoped tracker
func NewVisitTracker(log *zap.Logger) *VisitTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &VisitTracker{
		visited:  make(map[string]struct{}),
		parents:  make(map[string]string),
		children: make(map[string][]string),
		log:      log,
	}
}

// Visit marks path visited and reports whether this call was the first.
// A false return means two raw paths collapsed to the same normalized path;
// that is a modeling smell worth surfacing, so it is logged, not hidden.
func (t *VisitTracker) Visit(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, seen := t.visited[path]; seen {
		t.log.Warn("duplicate normalized path, skipping", zap.String("path", path))
		return false
	}
	t.visited[path] = struct{}{}
	return true
}

// HasVisited reports whether path was already materialized this session
func (t *VisitTracker) HasVisited(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, seen := t.visited[path]
	return seen
}

// RecordParent sets the parent pointer for child. Called once per
// directory at discovery time, before the walk recurses into it.
func (t *VisitTracker) RecordParent(child, parent string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, known := t.parents[child]; known {
		t.log.Warn("parent pointer overwritten", zap.String("child", child))
		t.removeChildLocked(child)
	}
	t.parents[child] = parent
	t.children[parent] = append(t.children[parent], child)
}

// ChildrenOf returns parent's directories in discovery order. The slice is
// a copy; the persisted record lists subdirectories in exactly this order.
func (t *VisitTracker) ChildrenOf(parent string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	kids := t.children[parent]
	out := make([]string, len(kids))
	copy(out, kids)
	return out
}

// DropSubtree removes a failed child directory from the session: its
// visited mark goes away so a later duplicate may legitimately retry it,
// and its parent pointer goes away so the parent's record omits it.
func (t *VisitTracker) DropSubtree(child string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.visited, child)
	t.removeChildLocked(child)
	delete(t.parents, child)
}

func (t *VisitTracker) removeChildLocked(child string) {
	parent, ok := t.parents[child]
	if !ok {
		return
	}
	kids := t.children[parent]
	for i, c := range kids {
		if c == child {
			t.children[parent] = append(kids[:i], kids[i+1:]...)
			break
		}
	}
}
