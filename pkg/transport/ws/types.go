// Package ws implements the resilient WebSocket transport (§4.9): an
// agent-serialized connection state machine with ping/pong liveness and
// exponential backoff, and a topic-keyed fan-out built on top of it.
//
// Grounded on pkg/websocket/{types.go,manager.go,dialer.go} from the
// retrieval pack: the frame/message vocabulary is kept, but the
// reconnect loop is rebuilt as the named connect+/retry+/keep_alive+/
// check_alive+/terminate+/cleanup+/reset_retries+ operations §4.9
// specifies instead of the teacher's straight-line Run loop.
package ws

import "time"

// MessageType mirrors the RFC 6455 opcodes the transport cares about.
type MessageType uint8

const (
	MessageText   MessageType = 1
	MessageBinary MessageType = 2
	MessageClose  MessageType = 8
	MessagePing   MessageType = 9
	MessagePong   MessageType = 10
)

// Topic is the fan-out key parsed out of an inbound message (§4.9).
type Topic string

// Message is one inbound frame handed to Config.OnMessage.
type Message struct {
	Type    MessageType
	Payload []byte
}

// defaultPingInterval, defaultPongAckTimeout and defaultAbortTimeout
// are used when a Config leaves the corresponding field at zero.
const (
	defaultPingInterval   = 15 * time.Second
	defaultPongAckTimeout = 5 * time.Second
	defaultAbortTimeout   = 2 * time.Second
)
