package async

import (
	"fmt"
	"sync"

	"github.com/quorumtrade/corehft/internal/xerrors"
)

// Node exposes the async node contract (§4.8): initialize returns a
// running Process the pipeline wires links onto.
type Node interface {
	Initialize() *Process
}

// Link connects one node's output port to another node's input port.
type Link struct {
	FromID  string
	FromOut string
	ToIn    string
	ToID    string
}

func (l Link) key() string {
	return fmt.Sprintf("%s.%s->%s.%s", l.FromID, l.FromOut, l.ToID, l.ToIn)
}

type nodeEntry struct {
	node    Node
	once    sync.Once
	process *Process
	muxers  map[string]*Multiplexer
}

func (e *nodeEntry) ensure() *nodeEntry {
	e.once.Do(func() {
		e.process = e.node.Initialize()
		e.muxers = make(map[string]*Multiplexer, len(e.process.Outputs))
		for port, ch := range e.process.Outputs {
			e.muxers[port] = NewMultiplexer(ch)
		}
	})
	return e
}

// Pipeline is the channel-backed event-flow executor (§4.8). Structural
// changes are serialized by a plain mutex: unlike pipeline/sync's
// lock-free registry, node initialization here has a side effect
// (spawning goroutines) that must run at most once, so a CAS-and-retry
// scheme would risk double-spawning under contention.
type Pipeline struct {
	mu    sync.Mutex
	nodes map[string]*nodeEntry
	links map[string]Link
}

// New creates an empty asynchronous pipeline.
func New() *Pipeline {
	return &Pipeline{
		nodes: make(map[string]*nodeEntry),
		links: make(map[string]Link),
	}
}

// AddNode registers node under id without initializing it; the node is
// materialized lazily on first structural change touching it (§4.8,
// §9's "delay-based initialization becomes explicit lazy-once
// initialization"). Duplicate ids fail fatally (§7).
func (p *Pipeline) AddNode(id string, node Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.nodes[id]; exists {
		panic(xerrors.ErrDuplicateNodeID)
	}
	p.nodes[id] = &nodeEntry{node: node}
}

// RemoveNode detaches every tap this node feeds or receives, shuts the
// node's process down synchronously if it was ever initialized, and
// removes it and every touching link.
func (p *Pipeline) RemoveNode(id string) {
	p.mu.Lock()
	entry, exists := p.nodes[id]
	if !exists {
		p.mu.Unlock()
		return
	}
	var touching []Link
	for _, l := range p.links {
		if l.FromID == id || l.ToID == id {
			touching = append(touching, l)
		}
	}
	for _, l := range touching {
		p.detachLocked(l)
		delete(p.links, l.key())
	}
	delete(p.nodes, id)
	p.mu.Unlock()

	if entry.process != nil {
		entry.process.Shutdown()
	}
}

// AddLink materializes both endpoint nodes if needed and attaches the
// target's input channel as a tap on the source's output multiplexer.
// Unknown nodes or a duplicate link fail fatally (§7).
func (p *Pipeline) AddLink(l Link) {
	p.mu.Lock()
	defer p.mu.Unlock()

	from, ok := p.nodes[l.FromID]
	if !ok {
		panic(xerrors.ErrUnknownNode)
	}
	to, ok := p.nodes[l.ToID]
	if !ok {
		panic(xerrors.ErrUnknownNode)
	}
	if _, exists := p.links[l.key()]; exists {
		panic(xerrors.ErrDuplicateLink)
	}

	from.ensure()
	to.ensure()

	mux, ok := from.muxers[l.FromOut]
	if !ok {
		panic(xerrors.ErrUnknownLink)
	}
	target, ok := to.process.Inputs[l.ToIn]
	if !ok {
		panic(xerrors.ErrUnknownLink)
	}

	mux.Attach(l.key(), target)
	p.links[l.key()] = l
}

// RemoveLink detaches l; a missing link is a no-op.
func (p *Pipeline) RemoveLink(l Link) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.links[l.key()]; !exists {
		return
	}
	p.detachLocked(l)
	delete(p.links, l.key())
}

func (p *Pipeline) detachLocked(l Link) {
	from, ok := p.nodes[l.FromID]
	if !ok || from.muxers == nil {
		return
	}
	if mux, ok := from.muxers[l.FromOut]; ok {
		mux.Detach(l.key())
	}
}

// Ingest sends event on id's input port, materializing the node on
// first use. It blocks until the bounded input channel accepts the
// event — the suspension point named in §5. A concurrent RemoveNode
// closing that channel underneath a send is tolerated as a no-op rather
// than a fatal panic (§5, "must be tolerated").
func (p *Pipeline) Ingest(id, input string, event any) {
	p.mu.Lock()
	entry, ok := p.nodes[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	entry.ensure()
	ch, ok := entry.process.Inputs[input]
	p.mu.Unlock()
	if !ok {
		return
	}

	defer func() { _ = recover() }()
	ch <- event
}

// Nodes returns the ids of every currently registered node.
func (p *Pipeline) Nodes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Links returns a snapshot of the currently registered links.
func (p *Pipeline) Links() []Link {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Link, 0, len(p.links))
	for _, l := range p.links {
		out = append(out, l)
	}
	return out
}
