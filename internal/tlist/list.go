// Package tlist implements the intrusive containers the kernel builds its
// ready queues, wait queues and delay list from: a circular doubly-linked
// list of embeddable Nodes, and a fixed-width priority bitmap with a
// constant-time lowest-set-bit lookup.
//
// Both types avoid allocation on insert/remove: a Node lives inside the
// struct it threads (a Task, a Timer, ...) and list operations only ever
// relink pointers.
package tlist

// Node is an intrusive list link. Embed it in any struct that needs to
// live on a List. A zero Node is a valid, empty (self-linked) node once
// Init has been called on it.
//
// Owner recovers the struct the node is embedded in without pointer
// arithmetic ("container-of"): set it once, at construction, to the
// struct's own address. Owner of a Node returns the struct, not a copy,
// so callers can mutate through it.
type Node struct {
	prev, next *Node
	Owner      any
}

// Init makes n a singleton node: not linked into any list.
func (n *Node) Init() {
	n.prev = n
	n.next = n
}

// Linked reports whether n currently sits in some List.
func (n *Node) Linked() bool {
	return n.next != n
}

// List is a circular doubly-linked list with an embedded head sentinel.
// The zero value is not usable; call Init first.
type List struct {
	head Node
}

// Init resets l to the empty list.
func (l *List) Init() {
	l.head.prev = &l.head
	l.head.next = &l.head
}

// Empty reports whether l has no nodes.
func (l *List) Empty() bool {
	return l.head.next == &l.head
}

// Count walks the list and returns the number of nodes in it.
// Callers on a hot path (scheduling) should prefer tracking their own
// count rather than calling this.
func (l *List) Count() int {
	n := 0
	for p := l.head.next; p != &l.head; p = p.next {
		n++
	}
	return n
}

func insertBetween(n, before, after *Node) {
	n.prev = before
	n.next = after
	before.next = n
	after.prev = n
}

// InsertFirst links n in as the new head of l.
func (l *List) InsertFirst(n *Node) {
	insertBetween(n, &l.head, l.head.next)
}

// InsertLast links n in as the new tail of l.
func (l *List) InsertLast(n *Node) {
	insertBetween(n, l.head.prev, &l.head)
}

// Remove unlinks n from whatever list it is on and re-initializes it as
// a singleton. Removing a node that isn't linked into any list is a no-op.
func (l *List) Remove(n *Node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.Init()
}

// First returns the head node, or nil if l is empty.
func (l *List) First() *Node {
	if l.Empty() {
		return nil
	}
	return l.head.next
}

// RemoveFirst unlinks and returns the head node, or nil if l is empty.
func (l *List) RemoveFirst() *Node {
	n := l.First()
	if n == nil {
		return nil
	}
	l.Remove(n)
	return n
}

// MoveToLast unlinks n (which must currently be linked into l) and
// re-inserts it at the tail. Used by the scheduler's round-robin rotation.
func (l *List) MoveToLast(n *Node) {
	l.Remove(n)
	l.InsertLast(n)
}

// Next returns the node following n within its list, or nil once the
// sentinel head is reached.
func (l *List) Next(n *Node) *Node {
	if n.next == &l.head {
		return nil
	}
	return n.next
}

// Owner recovers the T a Node was constructed with, the generic
// counterpart to the C container-of macro the original kernel used.
func Owner[T any](n *Node) T {
	return n.Owner.(T)
}
