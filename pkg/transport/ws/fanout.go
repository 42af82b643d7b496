package ws

import "sync"

// FanOut builds a topic-keyed publish/subscribe layer on top of a
// Connection (§4.9): incoming messages are parsed to topic+payload and
// delivered to per-subscriber channels; the desired topic set is
// re-sent on every reconnect.
//
// Grounded on pkg/websocket/subscriptions.go's desired/active topic
// bookkeeping from the retrieval pack.
type FanOut struct {
	conn   *Connection
	parse  func(Message) (Topic, []byte, bool)
	encode func(topic Topic, subscribe bool) (MessageType, []byte)

	mu   sync.Mutex
	subs map[Topic]map[int]chan []byte
	next int
}

// NewFanOut wires a FanOut over conn. parse extracts a topic and raw
// payload from an inbound message (false if the message carries no
// topic, e.g. a control frame). encode builds the venue-specific
// subscribe/unsubscribe frame for one topic.
func NewFanOut(conn *Connection, parse func(Message) (Topic, []byte, bool), encode func(Topic, bool) (MessageType, []byte)) *FanOut {
	f := &FanOut{
		conn:   conn,
		parse:  parse,
		encode: encode,
		subs:   make(map[Topic]map[int]chan []byte),
	}
	return f
}

// HandleMessage is wired as the underlying Connection's OnMessage
// callback.
func (f *FanOut) HandleMessage(msg Message) {
	topic, payload, ok := f.parse(msg)
	if !ok {
		return
	}
	f.mu.Lock()
	targets := make([]chan []byte, 0, len(f.subs[topic]))
	for _, ch := range f.subs[topic] {
		targets = append(targets, ch)
	}
	f.mu.Unlock()
	for _, ch := range targets {
		select {
		case ch <- payload:
		default:
			// A slow subscriber drops the frame rather than stalling the
			// shared read path for every other subscriber.
		}
	}
}

// HandleReconnect is wired as the underlying Connection's
// OnNewConnection callback: it re-sends a subscribe frame for every
// topic that currently has at least one subscriber (§4.9, "the full
// topic set is re-sent").
func (f *FanOut) HandleReconnect() {
	f.mu.Lock()
	topics := make([]Topic, 0, len(f.subs))
	for topic := range f.subs {
		topics = append(topics, topic)
	}
	f.mu.Unlock()

	for _, topic := range topics {
		msgType, payload := f.encode(topic, true)
		f.conn.Send(msgType, payload)
	}
}

// Subscribe registers a new per-subscriber channel for topic, issuing
// the venue subscribe frame if this is the topic's first subscriber.
// The returned unsubscribe func removes just this subscriber and, once
// the topic has none left, issues the venue unsubscribe frame.
func (f *FanOut) Subscribe(topic Topic, bufSize int) (<-chan []byte, func()) {
	ch := make(chan []byte, bufSize)

	f.mu.Lock()
	subs, ok := f.subs[topic]
	if !ok {
		subs = make(map[int]chan []byte)
		f.subs[topic] = subs
	}
	id := f.next
	f.next++
	subs[id] = ch
	first := len(subs) == 1
	f.mu.Unlock()

	if first {
		msgType, payload := f.encode(topic, true)
		f.conn.Send(msgType, payload)
	}

	unsubscribe := func() {
		f.mu.Lock()
		subs, ok := f.subs[topic]
		if !ok {
			f.mu.Unlock()
			return
		}
		delete(subs, id)
		last := len(subs) == 0
		if last {
			delete(f.subs, topic)
		}
		f.mu.Unlock()
		close(ch)
		if last {
			msgType, payload := f.encode(topic, false)
			f.conn.Send(msgType, payload)
		}
	}
	return ch, unsubscribe
}
