package ws

import "context"

// Conn is the minimal transport socket the agent drives. Real dialers
// (gorilla/websocket, nhooyr.io/websocket, an exchange SDK's own
// client) are adapted to this interface at the edge.
type Conn interface {
	Read(ctx context.Context) (Message, error)
	Write(ctx context.Context, msgType MessageType, payload []byte) error
	Close() error
}

// Dialer opens a Conn against a URL computed just-in-time, which lets
// the caller re-sign authentication on every attempt (§4.9).
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a plain function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}
