// Package rpcclient is the shared WebSocket JSON-RPC transport used by
// backends and the reference music-provider adapter to talk to a remote
// host: connect-lazily, heartbeat, reconnect-with-backoff, correlate
// responses by message id. It is modeled on the teacher's
// streams.Supervisor/ALSALoop process-supervision idiom, generalized from a
// supervised subprocess to a supervised websocket connection.
package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// State is the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	heartbeatInterval = 10 * time.Second
	livenessTimeout   = 30 * time.Second
	reconnectMinDelay = 2 * time.Second
	reconnectMaxDelay = 4 * time.Second
	maxRetries        = 3
	retryMinDelay     = 300 * time.Millisecond
	retryMaxDelay     = 1000 * time.Millisecond
)

// Frame is one JSON-RPC message, request or response, correlated by ID.
type Frame struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
	Partial bool           `json:"-"`
}

// RPCError is a JSON-RPC error payload.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// notConnectedError marks errors that qualify for the "not connected" retry
// class spec'd for the reference adapter.
type notConnectedError struct{ err error }

func (e *notConnectedError) Error() string { return e.err.Error() }
func (e *notConnectedError) Unwrap() error  { return e.err }

// IsNotConnected reports whether err belongs to the retryable "not
// connected" class.
func IsNotConnected(err error) bool {
	_, ok := err.(*notConnectedError)
	return ok
}

// EventHandler receives server-pushed frames (no matching pending request).
type EventHandler func(Frame)

// Client is a long-lived WebSocket JSON-RPC connection with connect
// memoization, heartbeat liveness, and jittered reconnect backoff.
type Client struct {
	url          string
	onEvent      EventHandler
	dialer       *websocket.Dialer
	limiter      *rate.Limiter

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	connectOnce chan struct{} // non-nil while a connect is in flight
	pending     map[string]chan Frame
	lastPong    time.Time
	idSeq       int64
}

// New creates a Client targeting url. onEvent is invoked for every frame
// that doesn't correlate to a pending request id.
func New(url string, onEvent EventHandler) *Client {
	return &Client{
		url:     url,
		onEvent: onEvent,
		dialer:  websocket.DefaultDialer,
		limiter: rate.NewLimiter(rate.Every(reconnectMinDelay), 1),
		pending: make(map[string]chan Frame),
	}
}

// State returns the client's current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the connection if not already connected or
// connecting. Concurrent callers share the single in-flight attempt.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	if c.connectOnce != nil {
		ch := c.connectOnce
		c.mu.Unlock()
		select {
		case <-ch:
			c.mu.Lock()
			connected := c.state == StateConnected
			c.mu.Unlock()
			if !connected {
				return &notConnectedError{err: fmt.Errorf("shared connect attempt failed")}
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ch := make(chan struct{})
	c.connectOnce = ch
	c.state = StateConnecting
	c.mu.Unlock()

	err := c.dial(ctx)

	c.mu.Lock()
	c.connectOnce = nil
	if err == nil {
		c.state = StateConnected
		c.lastPong = time.Now()
	} else {
		c.state = StateDisconnected
	}
	c.mu.Unlock()
	close(ch)

	if err == nil {
		go c.readLoop()
		go c.heartbeatLoop(ctx)
	}
	return err
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return &notConnectedError{err: err}
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Call sends a request and waits for its correlated response, retrying up
// to maxRetries times if the failure is in the "not connected" class.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (Frame, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		frame, err := c.callOnce(ctx, method, params)
		if err == nil {
			return frame, nil
		}
		lastErr = err
		if !IsNotConnected(err) {
			return Frame{}, err
		}
		if attempt < maxRetries {
			time.Sleep(jitter(retryMinDelay, retryMaxDelay))
		}
	}
	return Frame{}, lastErr
}

func (c *Client) callOnce(ctx context.Context, method string, params interface{}) (Frame, error) {
	if err := c.Connect(ctx); err != nil {
		return Frame{}, err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	c.idSeq++
	id := fmt.Sprintf("%d", c.idSeq)
	respCh := make(chan Frame, 1)
	c.pending[id] = respCh
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return Frame{}, &notConnectedError{err: fmt.Errorf("no active connection")}
	}

	req := Frame{ID: id, Method: method, Params: raw}
	if err := conn.WriteJSON(req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return Frame{}, &notConnectedError{err: err}
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return resp, resp.Error
		}
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return Frame{}, ctx.Err()
	}
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			c.handleDisconnect()
			return
		}
		if frame.Method == "pong" {
			c.mu.Lock()
			c.lastPong = time.Now()
			c.mu.Unlock()
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[frame.ID]
		if ok {
			delete(c.pending, frame.ID)
		}
		c.mu.Unlock()

		if ok {
			ch <- frame
		} else if c.onEvent != nil {
			c.onEvent(frame)
		}
	}
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			lastPong := c.lastPong
			c.mu.Unlock()
			if conn == nil {
				return
			}
			if time.Since(lastPong) > livenessTimeout {
				c.handleDisconnect()
				return
			}
			_ = conn.WriteJSON(Frame{Method: "ping"})
		}
	}
}

func (c *Client) handleDisconnect() {
	c.mu.Lock()
	// A nil conn means Close (or an earlier disconnect) already tore the
	// connection down; no reconnect is scheduled for it.
	wasOpen := c.conn != nil
	if wasOpen {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !wasOpen {
		return
	}

	go func() {
		ctx := context.Background()
		c.limiter.Wait(ctx) // paces consecutive reconnect storms to one per reconnectMinDelay
		time.Sleep(jitter(reconnectMinDelay, reconnectMaxDelay))
		c.Connect(ctx)
	}()
}

// Close tears down the connection without scheduling a reconnect.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
