// Package pipesync implements the flush-driven, single-threaded event-flow
// pipeline (§4.7): a node/link registry with a pending-output buffer,
// structural changes guarded by compare-and-set instead of a lock (§9,
// "Global mutable pipeline state is replaced by compare-and-set on an
// atomic state cell").
//
// Grounded on internal/bus/queue.go's atomic-flag CAS style and
// internal/og/gateway.go's update-dispatch loop from the retrieval pack.
package pipesync

import (
	"sync/atomic"

	"github.com/quorumtrade/corehft/internal/xerrors"
)

// Output is one (port, event) pair a Node emits from Process.
type Output struct {
	Port  string
	Event any
}

// Node is the single-operation contract every pipeline participant
// implements (§4.7).
type Node interface {
	Process(inputPort string, event any) []Output
}

// Link connects one node's output port to another node's input port.
type Link struct {
	FromID  string
	FromOut string
	ToIn    string
	ToID    string
}

type pendingEvent struct {
	id    string
	port  string
	event any
}

// state is the single atomically-swapped snapshot §9 describes: nodes,
// links and the pending buffer travel together so a reader never
// observes one without the others.
type state struct {
	nodes   map[string]Node
	links   []Link
	pending []pendingEvent
}

func (s *state) clone() *state {
	nodes := make(map[string]Node, len(s.nodes))
	for k, v := range s.nodes {
		nodes[k] = v
	}
	links := make([]Link, len(s.links))
	copy(links, s.links)
	pending := make([]pendingEvent, len(s.pending))
	copy(pending, s.pending)
	return &state{nodes: nodes, links: links, pending: pending}
}

// Pipeline is the synchronous, non-recursive event-flow executor.
type Pipeline struct {
	cell atomic.Pointer[state]
}

// New creates an empty pipeline.
func New() *Pipeline {
	p := &Pipeline{}
	p.cell.Store(&state{nodes: make(map[string]Node)})
	return p
}

// cas retries fn against the current snapshot until it either succeeds
// (fn returns a non-nil next state) or fn signals it doesn't want to
// change anything by returning nil.
func (p *Pipeline) cas(fn func(cur *state) (*state, error)) error {
	for {
		cur := p.cell.Load()
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if p.cell.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// AddNode registers node under id, failing fatally on a duplicate id
// (§7: programmer-fault preconditions fail fatally rather than
// propagate as a value).
func (p *Pipeline) AddNode(id string, node Node) {
	err := p.cas(func(cur *state) (*state, error) {
		if _, exists := cur.nodes[id]; exists {
			return nil, xerrors.ErrDuplicateNodeID
		}
		next := cur.clone()
		next.nodes[id] = node
		return next, nil
	})
	if err != nil {
		panic(err)
	}
}

// RemoveNode removes a node, every link touching it, and every pending
// output originating from it, atomically (§4.7's Pipeline invariant on
// node removal).
func (p *Pipeline) RemoveNode(id string) {
	_ = p.cas(func(cur *state) (*state, error) {
		if _, exists := cur.nodes[id]; !exists {
			return nil, nil
		}
		next := cur.clone()
		delete(next.nodes, id)

		filteredLinks := next.links[:0:0]
		for _, l := range next.links {
			if l.FromID != id && l.ToID != id {
				filteredLinks = append(filteredLinks, l)
			}
		}
		next.links = filteredLinks

		filteredPending := next.pending[:0:0]
		for _, pe := range next.pending {
			if pe.id != id {
				filteredPending = append(filteredPending, pe)
			}
		}
		next.pending = filteredPending
		return next, nil
	})
}

// AddLink connects (fromID,fromOut) to (toID,toIn). Both endpoints must
// already exist and the link must not already be present; either
// violation fails fatally (§7).
func (p *Pipeline) AddLink(l Link) {
	err := p.cas(func(cur *state) (*state, error) {
		if _, ok := cur.nodes[l.FromID]; !ok {
			return nil, xerrors.ErrUnknownNode
		}
		if _, ok := cur.nodes[l.ToID]; !ok {
			return nil, xerrors.ErrUnknownNode
		}
		for _, existing := range cur.links {
			if existing == l {
				return nil, xerrors.ErrDuplicateLink
			}
		}
		next := cur.clone()
		next.links = append(next.links, l)
		return next, nil
	})
	if err != nil {
		panic(err)
	}
}

// RemoveLink detaches l; a missing link is a no-op.
func (p *Pipeline) RemoveLink(l Link) {
	_ = p.cas(func(cur *state) (*state, error) {
		idx := -1
		for i, existing := range cur.links {
			if existing == l {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil
		}
		next := cur.clone()
		next.links = append(next.links[:idx], next.links[idx+1:]...)
		return next, nil
	})
}

// Ingest looks up the node currently registered at id, invokes Process,
// and appends every returned output to the pending buffer. If the node
// was concurrently removed before the outputs could be recorded, the
// outputs are silently dropped (§4.7, §9 Unresolved(c)).
func (p *Pipeline) Ingest(id, input string, event any) {
	cur := p.cell.Load()
	node, ok := cur.nodes[id]
	if !ok {
		return
	}
	outputs := node.Process(input, event)
	if len(outputs) == 0 {
		return
	}
	_ = p.cas(func(cur *state) (*state, error) {
		if _, ok := cur.nodes[id]; !ok {
			return nil, nil
		}
		next := cur.clone()
		for _, out := range outputs {
			next.pending = append(next.pending, pendingEvent{id: id, port: out.Port, event: out.Event})
		}
		return next, nil
	})
}

// Flush atomically drains the pending buffer and, for each buffered
// (id,out,event), dispatches to every link registered at (id,out) as of
// the drain — not recursive: any events those dispatches produce become
// newly pending and require a subsequent Flush (§4.7).
func (p *Pipeline) Flush() {
	var drained []pendingEvent
	var links []Link
	_ = p.cas(func(cur *state) (*state, error) {
		if len(cur.pending) == 0 {
			drained = nil
			links = nil
			return nil, nil
		}
		drained = make([]pendingEvent, len(cur.pending))
		copy(drained, cur.pending)
		links = make([]Link, len(cur.links))
		copy(links, cur.links)
		next := cur.clone()
		next.pending = nil
		return next, nil
	})

	for _, pe := range drained {
		for _, l := range links {
			if l.FromID == pe.id && l.FromOut == pe.port {
				p.Ingest(l.ToID, l.ToIn, pe.event)
			}
		}
	}
}

// Drain repeatedly Flushes until the pending buffer is empty.
func (p *Pipeline) Drain() {
	for p.PendingLen() > 0 {
		p.Flush()
	}
}

// PendingLen reports the current pending-buffer size.
func (p *Pipeline) PendingLen() int {
	return len(p.cell.Load().pending)
}

// Nodes returns the ids of every currently registered node.
func (p *Pipeline) Nodes() []string {
	cur := p.cell.Load()
	ids := make([]string, 0, len(cur.nodes))
	for id := range cur.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Links returns a snapshot of the currently registered links.
func (p *Pipeline) Links() []Link {
	cur := p.cell.Load()
	out := make([]Link, len(cur.links))
	copy(out, cur.links)
	return out
}
