// Package sortedmap implements an ordered key/value container backed by a
// randomized treap: a binary search tree ordered by key, heap-ordered by
// an independent random priority so it stays balanced without height or
// color bookkeeping. Every node is augmented with subtree size, which turns
// rank-of/nth into an O(log n) expected-time walk instead of an O(n) scan.
//
// No ready-made ordered-map dependency turned up anywhere in the
// retrieval pack (see DESIGN.md); this is a from-scratch container in the
// pack's plain, no-framework style.
package sortedmap

import "math/rand"

// Comparator orders two keys: negative if a<b, zero if a==b, positive if a>b.
type Comparator[K any] func(a, b K) int

// Test selects which side of a boundary key Nearest/Subrange should
// consider a match.
type Test uint8

const (
	// LT matches keys strictly less than the boundary.
	LT Test = iota
	// LE matches keys less than or equal to the boundary.
	LE
	// GE matches keys greater than or equal to the boundary.
	GE
	// GT matches keys strictly greater than the boundary.
	GT
)

type node[K any, V any] struct {
	key      K
	val      V
	priority uint64
	size     int
	left     *node[K, V]
	right    *node[K, V]
}

func size[K any, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix[K any, V any](n *node[K, V]) {
	if n != nil {
		n.size = 1 + size(n.left) + size(n.right)
	}
}

// Map is an ordered key/value container with a supplied comparator.
// Not safe for concurrent use without external synchronization; the
// orderbook and the limit-order book built on it add none of their own.
type Map[K any, V any] struct {
	root *node[K, V]
	cmp  Comparator[K]
	rnd  *rand.Rand
}

// New creates an empty Map ordered by cmp. Pass a Comparator that flips
// sign for descending order (e.g. bids), and a plain numeric/string
// comparator for ascending order (e.g. asks).
func New[K any, V any](cmp Comparator[K]) *Map[K, V] {
	return &Map[K, V]{cmp: cmp, rnd: rand.New(rand.NewSource(1))}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return size(m.root)
}

func rotateRight[K any, V any](n *node[K, V]) *node[K, V] {
	l := n.left
	n.left = l.right
	l.right = n
	fix(n)
	fix(l)
	return l
}

func rotateLeft[K any, V any](n *node[K, V]) *node[K, V] {
	r := n.right
	n.right = r.left
	r.left = n
	fix(n)
	fix(r)
	return r
}

func (m *Map[K, V]) insert(n *node[K, V], key K, val V) (*node[K, V], bool) {
	if n == nil {
		return &node[K, V]{key: key, val: val, priority: m.rnd.Uint64(), size: 1}, true
	}
	c := m.cmp(key, n.key)
	switch {
	case c == 0:
		n.val = val
		return n, false
	case c < 0:
		var created bool
		n.left, created = m.insert(n.left, key, val)
		if n.left.priority > n.priority {
			n = rotateRight(n)
		}
		fix(n)
		return n, created
	default:
		var created bool
		n.right, created = m.insert(n.right, key, val)
		if n.right.priority > n.priority {
			n = rotateLeft(n)
		}
		fix(n)
		return n, created
	}
}

// Insert adds key/val, overwriting any existing value for key. Returns
// true if key was newly added.
func (m *Map[K, V]) Insert(key K, val V) bool {
	var created bool
	m.root, created = m.insert(m.root, key, val)
	return created
}

// Update is an alias of Insert kept for call-site clarity at upsert
// sites (orderbook patches read more naturally as "update").
func (m *Map[K, V]) Update(key K, val V) bool {
	return m.Insert(key, val)
}

func (m *Map[K, V]) deleteNode(n *node[K, V], key K) (*node[K, V], bool) {
	if n == nil {
		return nil, false
	}
	c := m.cmp(key, n.key)
	switch {
	case c < 0:
		var ok bool
		n.left, ok = m.deleteNode(n.left, key)
		fix(n)
		return n, ok
	case c > 0:
		var ok bool
		n.right, ok = m.deleteNode(n.right, key)
		fix(n)
		return n, ok
	default:
		if n.left == nil {
			return n.right, true
		}
		if n.right == nil {
			return n.left, true
		}
		if n.left.priority > n.right.priority {
			n = rotateRight(n)
			n.right, _ = m.deleteNode(n.right, key)
		} else {
			n = rotateLeft(n)
			n.left, _ = m.deleteNode(n.left, key)
		}
		fix(n)
		return n, true
	}
}

// Delete removes key, reporting whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	var ok bool
	m.root, ok = m.deleteNode(m.root, key)
	return ok
}

// Get returns the value at key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	n := m.root
	for n != nil {
		c := m.cmp(key, n.key)
		switch {
		case c == 0:
			return n.val, true
		case c < 0:
			n = n.left
		default:
			n = n.right
		}
	}
	var zero V
	return zero, false
}

// RankOf returns the zero-based ascending-order index of key, or false
// if key is not present.
func (m *Map[K, V]) RankOf(key K) (int, bool) {
	n := m.root
	rank := 0
	for n != nil {
		c := m.cmp(key, n.key)
		switch {
		case c == 0:
			return rank + size(n.left), true
		case c < 0:
			n = n.left
		default:
			rank += size(n.left) + 1
			n = n.right
		}
	}
	return 0, false
}

// Nth returns the entry at zero-based ascending-order index.
func (m *Map[K, V]) Nth(index int) (K, V, bool) {
	n := m.root
	for n != nil {
		left := size(n.left)
		switch {
		case index < left:
			n = n.left
		case index == left:
			return n.key, n.val, true
		default:
			index -= left + 1
			n = n.right
		}
	}
	var zk K
	var zv V
	return zk, zv, false
}

// First returns the smallest-ordered entry.
func (m *Map[K, V]) First() (K, V, bool) {
	return m.Nth(0)
}

// Last returns the largest-ordered entry.
func (m *Map[K, V]) Last() (K, V, bool) {
	return m.Nth(m.Len() - 1)
}

// Nearest returns the entry closest to key satisfying test, scanning
// toward key from the appropriate side.
func (m *Map[K, V]) Nearest(test Test, key K) (K, V, bool) {
	n := m.root
	var best *node[K, V]
	for n != nil {
		c := m.cmp(n.key, key)
		match := false
		switch test {
		case LT:
			match = c < 0
		case LE:
			match = c <= 0
		case GE:
			match = c >= 0
		case GT:
			match = c > 0
		}
		if match {
			if best == nil || m.closer(test, n.key, best.key, key) {
				best = n
			}
			if test == LT || test == LE {
				n = n.right
			} else {
				n = n.left
			}
		} else {
			if test == LT || test == LE {
				n = n.left
			} else {
				n = n.right
			}
		}
	}
	if best == nil {
		var zk K
		var zv V
		return zk, zv, false
	}
	return best.key, best.val, true
}

// closer reports whether candidate is a better match than current for
// test relative to key (i.e. strictly closer to key on the allowed side).
func (m *Map[K, V]) closer(test Test, candidate, current, key K) bool {
	switch test {
	case LT, LE:
		return m.cmp(candidate, current) > 0
	default:
		return m.cmp(candidate, current) < 0
	}
}

// Entry is one key/value pair returned by range queries.
type Entry[K any, V any] struct {
	Key K
	Val V
}

func (m *Map[K, V]) inorder(n *node[K, V], from func(K) bool, dst *[]Entry[K, V]) bool {
	if n == nil {
		return true
	}
	if !m.inorder(n.left, from, dst) {
		return false
	}
	if from(n.key) {
		*dst = append(*dst, Entry[K, V]{Key: n.key, Val: n.val})
	}
	return m.inorder(n.right, from, dst)
}

// Subrange returns every entry between from/to inclusive/exclusive as
// selected by testFrom/testTo, in ascending map order.
func (m *Map[K, V]) Subrange(from K, testFrom Test, to K, testTo Test) []Entry[K, V] {
	var out []Entry[K, V]
	pred := func(key K) bool {
		if !boundsOK(m.cmp, key, from, testFrom, true) {
			return false
		}
		if !boundsOK(m.cmp, key, to, testTo, false) {
			return false
		}
		return true
	}
	m.inorder(m.root, pred, &out)
	return out
}

func boundsOK[K any](cmp Comparator[K], key, bound K, test Test, isLower bool) bool {
	c := cmp(key, bound)
	switch test {
	case LT:
		return c < 0
	case LE:
		return c <= 0
	case GE:
		return c >= 0
	case GT:
		return c > 0
	default:
		return true
	}
}

// All returns every entry in ascending map order, O(n).
func (m *Map[K, V]) All() []Entry[K, V] {
	var out []Entry[K, V]
	m.inorder(m.root, func(K) bool { return true }, &out)
	return out
}

// Tail returns up to n entries from the high end of the map, in
// ascending order, O(n).
func (m *Map[K, V]) Tail(n int) []Entry[K, V] {
	total := m.Len()
	if n <= 0 || total == 0 {
		return nil
	}
	if n > total {
		n = total
	}
	out := make([]Entry[K, V], 0, n)
	start := total - n
	for i := start; i < total; i++ {
		k, v, ok := m.Nth(i)
		if !ok {
			break
		}
		out = append(out, Entry[K, V]{Key: k, Val: v})
	}
	return out
}

// TailUntil returns up to n entries from the high end, stopping early
// (returning fewer than n) once it reaches boundary, boundary excluded.
func (m *Map[K, V]) TailUntil(boundary K, n int) []Entry[K, V] {
	full := m.Tail(n)
	for i := len(full) - 1; i >= 0; i-- {
		if m.cmp(full[i].Key, boundary) == 0 {
			return full[i+1:]
		}
	}
	return full
}
