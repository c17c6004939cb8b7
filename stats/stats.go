// Package stats collects hierarchical wall-clock timings of an estimation
// run, rendered as a tree of accumulated durations.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Node is one entry of the timing tree. Nodes accumulate elapsed time
// across any number of recordings and lazily create named children. All
// methods are safe for concurrent use.
type Node struct {
	mu       sync.Mutex
	depth    int
	elapsed  time.Duration
	children map[string]*Node
}

// NewRoot creates the root of a timing tree.
func NewRoot() *Node {
	return &Node{depth: 1}
}

// Child returns the named child node, creating it on first use.
func (n *Node) Child(name string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	child, ok := n.children[name]
	if !ok {
		child = &Node{depth: n.depth + 1}
		n.children[name] = child
	}
	return child
}

// Start begins a recording and returns the stop function that adds the
// elapsed time to the node. Meant to be deferred.
func (n *Node) Start() func() {
	t0 := time.Now()
	return func() {
		n.Add(time.Since(t0))
	}
}

// Add accumulates the given duration on the node.
func (n *Node) Add(d time.Duration) {
	n.mu.Lock()
	n.elapsed += d
	n.mu.Unlock()
}

// Elapsed returns the accumulated time of the node.
func (n *Node) Elapsed() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.elapsed
}

// String renders the subtree with children in name order, one node per
// line.
func (n *Node) String() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

func (n *Node) render(sb *strings.Builder) {
	n.mu.Lock()
	elapsed := n.elapsed
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	children := make([]*Node, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		children = append(children, n.children[name])
	}
	n.mu.Unlock()

	if len(children) == 0 {
		fmt.Fprintf(sb, "%d ms,\n", elapsed.Milliseconds())
		return
	}

	if elapsed == 0 {
		sb.WriteString("{\n")
	} else {
		fmt.Fprintf(sb, "%d ms {\n", elapsed.Milliseconds())
	}
	for i, child := range children {
		sb.WriteString(strings.Repeat(" ", n.depth*2))
		sb.WriteString(names[i])
		sb.WriteString(": ")
		child.render(sb)
	}
	sb.WriteString("},\n")
}
