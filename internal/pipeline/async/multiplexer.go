package async

import "sync"

// Multiplexer fans a single source channel out to a dynamic set of tap
// channels (§4.8): each add_link attaches a target's input channel as a
// tap; remove_link detaches it. Fan-out is blocking per tap, so a slow
// subscriber applies backpressure to the source.
type Multiplexer struct {
	mu   sync.RWMutex
	taps map[string]chan any
	done chan struct{}
}

// NewMultiplexer starts forwarding every event off source to the
// current tap set until source is closed, at which point every
// currently-attached tap is closed too and the multiplexer stops.
func NewMultiplexer(source <-chan any) *Multiplexer {
	m := &Multiplexer{taps: make(map[string]chan any), done: make(chan struct{})}
	go func() {
		defer close(m.done)
		for event := range source {
			m.mu.RLock()
			targets := make([]chan any, 0, len(m.taps))
			for _, ch := range m.taps {
				targets = append(targets, ch)
			}
			m.mu.RUnlock()
			for _, ch := range targets {
				forwardOrDrop(ch, event)
			}
		}
		m.mu.Lock()
		for id, ch := range m.taps {
			closeOrIgnore(ch)
			delete(m.taps, id)
		}
		m.mu.Unlock()
	}()
	return m
}

// forwardOrDrop sends event on ch, tolerating a tap closed concurrently
// by a fan-in link's other Multiplexer or by the receiving node's own
// Shutdown (§5, "must be tolerated" — the same relaxation
// Pipeline.Ingest applies to its own send).
func forwardOrDrop(ch chan any, event any) {
	defer func() { _ = recover() }()
	ch <- event
}

// closeOrIgnore closes ch, tolerating a tap already closed by another
// Multiplexer: a node with two inbound links shares one input channel
// as a tap on two different upstream multiplexers, so both may try to
// close it when their sources close.
func closeOrIgnore(ch chan any) {
	defer func() { _ = recover() }()
	close(ch)
}

// Attach adds ch as a tap under id, overwriting any existing tap at id.
func (m *Multiplexer) Attach(id string, ch chan any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taps[id] = ch
}

// Detach removes the tap registered under id, if any.
func (m *Multiplexer) Detach(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.taps, id)
}

// Wait blocks until the source channel has closed and every tap
// current at that time has been closed.
func (m *Multiplexer) Wait() {
	<-m.done
}
