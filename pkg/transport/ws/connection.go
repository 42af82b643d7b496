package ws

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config wires the caller-supplied collaborators the state machine
// needs (§4.9): a just-in-time URL function (so authentication can be
// re-signed on every attempt), a Dialer, a retry-delay function, and
// three external callbacks. All three callbacks run on the connection's
// agent goroutine, serialized with the state machine's commands; none of
// them runs on the transport's own read goroutine.
type Config struct {
	URLFn             func(ctx context.Context) (string, error)
	Dialer            Dialer
	RetryDelay        func(attempt int) time.Duration
	PingPongEnabled   bool
	PingInterval      time.Duration
	PongAckTimeout    time.Duration
	AbortTimeout      time.Duration
	OnNewConnection   func()
	OnMessage         func(Message)
	OnConnectionError func(error)
}

func (c Config) withDefaults() Config {
	if c.RetryDelay == nil {
		d := DefaultRetryDelay()
		c.RetryDelay = d.Next
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.PongAckTimeout <= 0 {
		c.PongAckTimeout = defaultPongAckTimeout
	}
	if c.AbortTimeout <= 0 {
		c.AbortTimeout = defaultAbortTimeout
	}
	if c.OnNewConnection == nil {
		c.OnNewConnection = func() {}
	}
	if c.OnMessage == nil {
		c.OnMessage = func(Message) {}
	}
	if c.OnConnectionError == nil {
		c.OnConnectionError = func(error) {}
	}
	return c
}

// state is the mutable cell the agent owns exclusively; every field is
// only ever touched from the agent goroutine (§4.9, §9's "single-
// consumer command queue feeding a worker task that owns the mutable
// state exclusively").
type state struct {
	conn        Conn
	token       uint64
	pendingPong bool
	attempt     int
	closed      bool
	closeDone   chan struct{}
}

// command is one named operation queued onto the agent (connect+,
// retry+, keep_alive+, ...).
type command func(*state)

// Connection is the agent-serialized resilient socket state machine
// (§4.9). All exported methods are safe to call from any goroutine;
// they only ever enqueue a command for the single agent goroutine to
// run.
type Connection struct {
	cfg     Config
	cmds    chan command
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// Dial starts the connection and immediately issues connect+.
func Dial(cfg Config) *Connection {
	c := &Connection{cfg: cfg.withDefaults(), cmds: make(chan command, 64)}
	c.wg.Add(1)
	go c.run()
	c.submit(c.connectPlus)
	return c
}

func (c *Connection) run() {
	defer c.wg.Done()
	st := &state{}
	for cmd := range c.cmds {
		cmd(st)
	}
}

func (c *Connection) submit(cmd command) {
	defer func() { recover() }() // tolerate a submit racing Close's channel teardown
	c.cmds <- cmd
}

// connectPlus dials a fresh socket if none is live and the connection
// isn't closed (§4.9's connect+).
func (c *Connection) connectPlus(s *state) {
	if s.conn != nil || s.closed {
		return
	}
	s.token++
	token := s.token

	url, err := c.cfg.URLFn(context.Background())
	if err != nil {
		c.cfg.OnConnectionError(err)
		c.retryPlus(s)
		return
	}
	conn, err := c.cfg.Dialer.Dial(context.Background(), url)
	if err != nil {
		c.cfg.OnConnectionError(err)
		c.retryPlus(s)
		return
	}

	s.conn = conn
	s.pendingPong = false
	c.installReader(conn, token)
	c.cfg.OnNewConnection()
	if c.cfg.PingPongEnabled {
		c.keepAlivePlus(s)
	}
}

// installReader spawns the transport's own read loop; every callback it
// fires is closed over token, so a socket superseded by a later
// connect+ or cleanup+ has its late callbacks silently dropped (§4.9).
func (c *Connection) installReader(conn Conn, token uint64) {
	go func() {
		for {
			msg, err := conn.Read(context.Background())
			if err != nil {
				c.submit(func(s *state) {
					if s.token != token {
						return
					}
					c.cfg.OnConnectionError(err)
					c.terminatePlus(s)
				})
				return
			}
			c.submit(func(s *state) {
				if s.token != token {
					return
				}
				c.resetRetriesPlus(s)
				if msg.Type == MessagePong {
					s.pendingPong = false
					return
				}
				c.cfg.OnMessage(msg)
			})
		}
	}()
}

// retryPlus increments the attempt counter and schedules connect+ after
// RetryDelay(attempt) (§4.9's retry+).
func (c *Connection) retryPlus(s *state) {
	if s.closed {
		return
	}
	s.attempt++
	delay := c.cfg.RetryDelay(s.attempt)
	time.AfterFunc(delay, func() { c.submit(c.connectPlus) })
}

// keepAlivePlus sends a ping and schedules check_alive+ after
// pong_ack_ms (§4.9's keep_alive+).
func (c *Connection) keepAlivePlus(s *state) {
	if s.conn == nil || s.closed {
		return
	}
	s.pendingPong = true
	token := s.token
	_ = s.conn.Write(context.Background(), MessagePing, nil)
	time.AfterFunc(c.cfg.PongAckTimeout, func() {
		c.submit(func(s *state) {
			if s.token != token {
				return
			}
			c.checkAlivePlus(s)
		})
	})
}

// checkAlivePlus forces a reconnect if the pong from the last ping
// never arrived (§4.9's check_alive+), otherwise reschedules the next
// keep_alive+.
func (c *Connection) checkAlivePlus(s *state) {
	if s.pendingPong {
		c.terminatePlus(s)
		return
	}
	token := s.token
	time.AfterFunc(c.cfg.PingInterval, func() {
		c.submit(func(s *state) {
			if s.token != token {
				return
			}
			c.keepAlivePlus(s)
		})
	})
}

// terminatePlus closes the live socket (if any) and, after
// abort_ms, runs cleanup+ and — unless the connection is closed —
// retry+ (§4.9's terminate+/abort+).
func (c *Connection) terminatePlus(s *state) {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	token := s.token
	time.AfterFunc(c.cfg.AbortTimeout, func() {
		c.submit(func(s *state) {
			if s.token != token {
				return
			}
			c.cleanupPlus(s)
			if !s.closed {
				c.retryPlus(s)
			}
		})
	})
}

// cleanupPlus nulls the socket handle, resets pending_pong and rotates
// the token so any callback still in flight from the old socket is
// dropped (§4.9's cleanup+).
func (c *Connection) cleanupPlus(s *state) {
	s.conn = nil
	s.pendingPong = false
	s.token++
	if s.closed && s.closeDone != nil {
		close(s.closeDone)
		s.closeDone = nil
	}
}

// resetRetriesPlus zeroes the attempt counter on receipt of a complete
// message from the current socket (§4.9's reset_retries+).
func (c *Connection) resetRetriesPlus(s *state) {
	s.attempt = 0
}

// Send best-effort writes to the current socket; if no socket is live
// the write is silently dropped (a caller building a fan-out on top
// re-sends desired state on the next OnNewConnection instead of relying
// on delivery here).
func (c *Connection) Send(msgType MessageType, payload []byte) {
	c.submit(func(s *state) {
		if s.conn == nil || s.closed {
			return
		}
		_ = s.conn.Write(context.Background(), msgType, payload)
	})
}

// Close is synchronous (§4.9): it flips closed, issues terminate+, and
// waits for the eventual cleanup+ to complete before returning. Close
// is not safe to call concurrently with itself; a second call after the
// first has returned is a no-op.
func (c *Connection) Close() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	done := make(chan struct{})
	c.submit(func(s *state) {
		s.closed = true
		s.closeDone = done
		if s.conn == nil {
			// No live socket to terminate; cleanup+ runs immediately.
			c.cleanupPlus(s)
			return
		}
		c.terminatePlus(s)
	})
	<-done
	close(c.cmds)
	c.wg.Wait()
}
