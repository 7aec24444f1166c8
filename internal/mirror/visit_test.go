package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitTrackerFirstSeenWins(t *testing.T) {
	tracker := NewVisitTracker(nil)

	assert.True(t, tracker.Visit("utils"))
	assert.False(t, tracker.Visit("utils"))
	assert.True(t, tracker.HasVisited("utils"))
	assert.False(t, tracker.HasVisited("docs"))
}

func TestVisitTrackerChildrenDiscoveryOrder(t *testing.T) {
	tracker := NewVisitTracker(nil)
	tracker.RecordParent("b", "")
	tracker.RecordParent("a", "")
	tracker.RecordParent("a/x", "a")

	assert.Equal(t, []string{"b", "a"}, tracker.ChildrenOf(""))
	assert.Equal(t, []string{"a/x"}, tracker.ChildrenOf("a"))
	assert.Empty(t, tracker.ChildrenOf("b"))
}

func TestVisitTrackerChildrenOfReturnsCopy(t *testing.T) {
	tracker := NewVisitTracker(nil)
	tracker.RecordParent("a", "")

	kids := tracker.ChildrenOf("")
	kids[0] = "mutated"
	assert.Equal(t, []string{"a"}, tracker.ChildrenOf(""))
}

func TestVisitTrackerDropSubtree(t *testing.T) {
	tracker := NewVisitTracker(nil)
	tracker.Visit("a")
	tracker.RecordParent("a", "")
	tracker.Visit("b")
	tracker.RecordParent("b", "")

	tracker.DropSubtree("a")

	assert.False(t, tracker.HasVisited("a"))
	assert.Equal(t, []string{"b"}, tracker.ChildrenOf(""))
	// A later sighting of the same normalized path may retry it
	assert.True(t, tracker.Visit("a"))
}
