package pipesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNode struct {
	received []any
	emit     []Output
}

func (n *recordingNode) Process(inputPort string, event any) []Output {
	n.received = append(n.received, event)
	return n.emit
}

func TestIngestWithoutLinksBuffersNothingOnceDrained(t *testing.T) {
	p := New()
	src := &recordingNode{emit: []Output{{Port: "out", Event: "hello"}}}
	p.AddNode("src", src)

	p.Ingest("src", "in", "trigger")
	assert.Equal(t, 1, p.PendingLen())

	p.Drain()
	assert.Equal(t, 0, p.PendingLen(), "no link consumes the output, but Drain still empties the buffer")
}

func TestFlushDispatchesAcrossLinks(t *testing.T) {
	p := New()
	src := &recordingNode{emit: []Output{{Port: "out", Event: "payload"}}}
	dst := &recordingNode{}
	p.AddNode("src", src)
	p.AddNode("dst", dst)
	p.AddLink(Link{FromID: "src", FromOut: "out", ToID: "dst", ToIn: "in"})

	p.Ingest("src", "in", "trigger")
	p.Flush()

	require.Len(t, dst.received, 1)
	assert.Equal(t, "payload", dst.received[0])
}

func TestDrainFollowsMultiHopChains(t *testing.T) {
	p := New()
	a := &recordingNode{emit: []Output{{Port: "out", Event: "a-out"}}}
	b := &recordingNode{emit: []Output{{Port: "out", Event: "b-out"}}}
	c := &recordingNode{}
	p.AddNode("a", a)
	p.AddNode("b", b)
	p.AddNode("c", c)
	p.AddLink(Link{FromID: "a", FromOut: "out", ToID: "b", ToIn: "in"})
	p.AddLink(Link{FromID: "b", FromOut: "out", ToID: "c", ToIn: "in"})

	p.Ingest("a", "in", "start")
	p.Drain()

	require.Len(t, c.received, 1)
	assert.Equal(t, "b-out", c.received[0])
}

func TestAddNodeDuplicateIDPanics(t *testing.T) {
	p := New()
	p.AddNode("n", &recordingNode{})
	assert.Panics(t, func() { p.AddNode("n", &recordingNode{}) })
}

func TestAddLinkUnknownNodePanics(t *testing.T) {
	p := New()
	p.AddNode("n", &recordingNode{})
	assert.Panics(t, func() { p.AddLink(Link{FromID: "n", FromOut: "out", ToID: "ghost", ToIn: "in"}) })
}

func TestAddLinkDuplicatePanics(t *testing.T) {
	p := New()
	p.AddNode("a", &recordingNode{})
	p.AddNode("b", &recordingNode{})
	link := Link{FromID: "a", FromOut: "out", ToID: "b", ToIn: "in"}
	p.AddLink(link)
	assert.Panics(t, func() { p.AddLink(link) })
}

func TestRemoveNodeDropsItsLinksAndPending(t *testing.T) {
	p := New()
	src := &recordingNode{emit: []Output{{Port: "out", Event: "x"}}}
	dst := &recordingNode{}
	p.AddNode("src", src)
	p.AddNode("dst", dst)
	p.AddLink(Link{FromID: "src", FromOut: "out", ToID: "dst", ToIn: "in"})
	p.Ingest("src", "in", "trigger")

	p.RemoveNode("src")
	assert.Empty(t, p.Links())
	assert.ElementsMatch(t, []string{"dst"}, p.Nodes())
	assert.Equal(t, 0, p.PendingLen())
}

func TestIngestOnUnknownNodeIsNoOp(t *testing.T) {
	p := New()
	assert.NotPanics(t, func() { p.Ingest("ghost", "in", "event") })
	assert.Equal(t, 0, p.PendingLen())
}
