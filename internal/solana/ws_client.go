package solana

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
// It does not reconnect: a lost connection fails every pending wait.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	writeMu   sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	mu sync.Mutex
	// pending maps request ID to a subscription awaiting its ID
	pending map[uint64]*pendingSub
	// subs maps subscription ID to the channel of its single notification
	subs    map[int64]chan SignatureResult
	readErr error

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

type pendingSub struct {
	confirm chan subscribeReply
	notify  chan SignatureResult
}

type subscribeReply struct {
	subID int64
	err   error
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultWSConfig().PingInterval
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(redactURLError(err), "websocket dial")
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		conn:     conn,
		pending:  make(map[uint64]*pendingSub),
		subs:     make(map[int64]chan SignatureResult),
		done:     make(chan struct{}),
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// WaitForSignature subscribes with signatureSubscribe and waits for the
// notification. An empty commitment means finalized.
func (c *WSClientImpl) WaitForSignature(ctx context.Context, signature, commitment string) (*SignatureResult, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if commitment == "" {
		commitment = CommitmentFinalized
	}

	reqID := c.requestID.Add(1)
	p := &pendingSub{
		confirm: make(chan subscribeReply, 1),
		notify:  make(chan SignatureResult, 1),
	}
	c.mu.Lock()
	c.pending[reqID] = p
	c.mu.Unlock()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]interface{}{"commitment": commitment},
		},
	}
	if err := c.writeJSON(req); err != nil {
		c.dropPending(reqID)
		return nil, errors.Wrap(err, "write subscribe")
	}

	var subID int64
	select {
	case reply := <-p.confirm:
		if reply.err != nil {
			return nil, errors.Wrap(reply.err, "signatureSubscribe")
		}
		subID = reply.subID
	case <-c.done:
		c.dropPending(reqID)
		return nil, c.doneErr()
	case <-ctx.Done():
		c.dropPending(reqID)
		return nil, ctx.Err()
	}

	select {
	case res := <-p.notify:
		return &res, nil
	case <-c.done:
		return nil, c.doneErr()
	case <-ctx.Done():
		c.unsubscribe(subID)
		return nil, ctx.Err()
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	c.shutdown()

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.writeMu.Unlock()

	c.wg.Wait()
	return err
}

func (c *WSClientImpl) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *WSClientImpl) doneErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return errors.Wrap(c.readErr, "websocket connection lost")
	}
	return ErrClientClosed
}

func (c *WSClientImpl) dropPending(reqID uint64) {
	c.mu.Lock()
	delete(c.pending, reqID)
	c.mu.Unlock()
}

// unsubscribe is best effort; the server drops the subscription on disconnect anyway.
func (c *WSClientImpl) unsubscribe(subID int64) {
	c.mu.Lock()
	delete(c.subs, subID)
	c.mu.Unlock()

	_ = c.writeJSON(wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "signatureUnsubscribe",
		Params:  []interface{}{subID},
	})
}

func (c *WSClientImpl) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
			}
			c.shutdown()
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch {
	case msg.Method == "signatureNotification" && msg.Params != nil:
		c.handleSignatureNotification(msg.Params)
	case msg.ID != nil:
		c.handleResponse(*msg.ID, msg.Result, msg.Error)
	}
}

// handleResponse resolves a pending subscription. The notification channel is
// registered before the waiter is released so an immediate notification is not lost.
func (c *WSClientImpl) handleResponse(id uint64, result json.RawMessage, rpcErr *RPCError) {
	c.mu.Lock()
	p, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)

	var reply subscribeReply
	if rpcErr != nil {
		reply.err = rpcErr
	} else {
		if err := json.Unmarshal(result, &reply.subID); err != nil {
			reply.err = errors.Wrap(err, "unmarshal subscription id")
		} else {
			c.subs[reply.subID] = p.notify
		}
	}
	c.mu.Unlock()

	p.confirm <- reply
}

// handleSignatureNotification delivers the one notification a subscription receives.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	var value wsSignatureValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		// "receivedSignature" string notifications are not requested
		return
	}

	c.mu.Lock()
	ch, ok := c.subs[params.Subscription]
	delete(c.subs, params.Subscription)
	c.mu.Unlock()

	if !ok {
		return
	}

	res := SignatureResult{Err: value.Err}
	if params.Result.Context != nil {
		res.Slot = params.Result.Context.Slot
	}
	ch <- res
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			if !c.closed.Load() {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in readLoop.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.writeMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsMessage covers both responses (ID set) and notifications (Method set).
type wsMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id"`
	Method  string                `json:"method"`
	Result  json.RawMessage       `json:"result"`
	Error   *RPCError             `json:"error"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext      `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
