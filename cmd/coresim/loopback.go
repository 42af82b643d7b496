package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/pkg/transport/ws"
)

// tickFrame is the wire shape a real venue would send on its trade
// print channel; loopbackConn emits it to exercise the transport
// without a live network endpoint.
type tickFrame struct {
	Topic string `json:"topic"`
	Price string `json:"price"`
	Seq   int    `json:"seq"`
}

// loopbackConn is an in-process stand-in for a venue socket: it answers
// pings with pongs and periodically emits a synthetic trade tick, so
// pkg/transport/ws's state machine and fan-out can be driven end to end
// in a demonstrator binary without a live network endpoint.
type loopbackConn struct {
	mu     sync.Mutex
	closed bool
	msgs   chan ws.Message
	stop   chan struct{}
}

func newLoopbackConn(topic string, price decimal.Decimal, interval time.Duration) *loopbackConn {
	c := &loopbackConn{msgs: make(chan ws.Message, 16), stop: make(chan struct{})}
	go c.tick(topic, price, interval)
	return c
}

func (c *loopbackConn) tick(topic string, price decimal.Decimal, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	seq := 0
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			seq++
			payload, err := json.Marshal(tickFrame{Topic: topic, Price: price.String(), Seq: seq})
			if err != nil {
				continue
			}
			select {
			case c.msgs <- ws.Message{Type: ws.MessageText, Payload: payload}:
			default:
			}
		}
	}
}

func (c *loopbackConn) Read(ctx context.Context) (ws.Message, error) {
	select {
	case <-ctx.Done():
		return ws.Message{}, ctx.Err()
	case <-c.stop:
		return ws.Message{}, io.EOF
	case m := <-c.msgs:
		return m, nil
	}
}

func (c *loopbackConn) Write(ctx context.Context, msgType ws.MessageType, payload []byte) error {
	if msgType == ws.MessagePing {
		select {
		case c.msgs <- ws.Message{Type: ws.MessagePong}:
		default:
		}
	}
	return nil
}

func (c *loopbackConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stop)
	return nil
}

// loopbackDialer builds a ws.Dialer that always hands back a fresh
// loopbackConn ticking synthetic prints for topic.
func loopbackDialer(topic string, price decimal.Decimal, interval time.Duration) ws.Dialer {
	return ws.DialerFunc(func(ctx context.Context, url string) (ws.Conn, error) {
		return newLoopbackConn(topic, price, interval), nil
	})
}
