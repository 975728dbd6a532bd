// Package messaging connects the agent to its messaging relay: conversation
// sync, the inbound message stream, inbox lookups and outbound sends.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/coocood/freecache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"golang.org/x/time/rate"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxMsgSize   = 1 << 20 // 1MB
	streamBuffer = 256

	minInboxCacheSize = 512 * 1024
)

// Signer answers the relay's connect challenge.
type Signer interface {
	Address() common.Address
	SignRelayChallenge(nonce, env string, signedAt int64) (string, error)
}

type Config struct {
	URL string
	Env string

	RequestTimeout   time.Duration
	HandshakeTimeout time.Duration

	SendRatePerSecond float64
	SendBurst         int

	InboxCacheBytes int
	InboxCacheTTL   time.Duration
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.SendRatePerSecond <= 0 {
		c.SendRatePerSecond = 5
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 10
	}
	if c.InboxCacheBytes < minInboxCacheSize {
		c.InboxCacheBytes = minInboxCacheSize
	}
	if c.InboxCacheTTL <= 0 {
		c.InboxCacheTTL = 10 * time.Minute
	}
	return c
}

type Client struct {
	cfg    Config
	signer Signer
	store  *StateStore
	dialer *websocket.Dialer

	limiter *rate.Limiter
	inboxes *freecache.Cache

	mu      sync.Mutex
	conn    *websocket.Conn
	authed  bool
	done    chan struct{}
	inboxID string
	cursor  int64
	seenAt  map[string]struct{}
	stream  chan frame

	writeMu sync.Mutex
	nextID  atomic.Int64

	pendingMu sync.Mutex
	pending   map[string]chan frame
}

// NewClient prepares a relay client. store may be nil, in which case nothing is persisted.
func NewClient(cfg Config, signer Signer, store *StateStore) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("messaging: relay url is required")
	}
	if signer == nil {
		return nil, errors.New("messaging: signer is required")
	}
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:     cfg,
		signer:  signer,
		store:   store,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendBurst),
		inboxes: freecache.NewCache(cfg.InboxCacheBytes),
		pending: make(map[string]chan frame),
	}

	if store != nil {
		st, err := store.Load()
		if err != nil {
			return nil, err
		}
		c.inboxID = st.InboxID
		c.cursor = st.CursorNs
		c.seenAt = make(map[string]struct{}, len(st.CursorIDs))
		for _, id := range st.CursorIDs {
			c.seenAt[id] = struct{}{}
		}
	}
	return c, nil
}

func (c *Client) Address() common.Address { return c.signer.Address() }

func (c *Client) InboxID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inboxID
}

func (c *Client) Cursor() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.authed
}

// Connect dials the relay and authenticates, unless already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "dial relay %s", c.cfg.URL)
	}

	done := make(chan struct{})
	challenges := make(chan frame, 1)

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.authed = false
	c.done = done
	c.mu.Unlock()

	go c.readLoop(conn, done, challenges)
	go c.pingLoop(conn, done)

	if err := c.authenticate(ctx, done, challenges); err != nil {
		c.dropConn(conn)
		return errors.Wrap(err, "relay auth")
	}

	log.Info("connected to relay", "url", c.cfg.URL, "inboxId", c.InboxID(), "address", c.signer.Address().Hex())
	return nil
}

// Close drops the relay connection. Pending requests fail with ErrNotConnected.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		c.dropConn(conn)
	}
}

func (c *Client) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.authed = false
	}
	c.mu.Unlock()
	_ = conn.Close()
}

func (c *Client) authenticate(ctx context.Context, done <-chan struct{}, challenges <-chan frame) error {
	timer := time.NewTimer(c.cfg.HandshakeTimeout)
	defer timer.Stop()

	var nonce string
	select {
	case evt := <-challenges:
		var p challengePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.Nonce == "" {
			return errors.New("malformed connect challenge")
		}
		nonce = p.Nonce
	case <-timer.C:
		return errors.New("timeout waiting for challenge")
	case <-done:
		return errors.New("connection closed before challenge")
	case <-ctx.Done():
		return ctx.Err()
	}

	signedAt := time.Now().UnixMilli()
	sig, err := c.signer.SignRelayChallenge(nonce, c.cfg.Env, signedAt)
	if err != nil {
		return err
	}

	var res connectResult
	if err := c.request(ctx, MethodConnect, connectParams{
		Address:   strings.ToLower(c.signer.Address().Hex()),
		Env:       c.cfg.Env,
		SignedAt:  signedAt,
		Signature: sig,
	}, &res); err != nil {
		return err
	}
	if res.InboxID == "" {
		return errors.New("relay returned no inbox id")
	}

	c.mu.Lock()
	changed := c.inboxID != res.InboxID
	c.inboxID = res.InboxID
	c.authed = true
	c.mu.Unlock()

	if changed {
		c.persist()
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}, challenges chan<- frame) {
	defer func() {
		close(done)
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
			c.authed = false
		}
		c.mu.Unlock()
	}()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("relay connection lost", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Warn("dropping malformed relay frame", "error", err)
			continue
		}

		switch f.Type {
		case FrameResponse:
			c.pendingMu.Lock()
			ch, ok := c.pending[f.ID]
			if ok {
				delete(c.pending, f.ID)
			}
			c.pendingMu.Unlock()
			if ok {
				ch <- f
			}
		case FrameEvent:
			switch f.Event {
			case EventChallenge:
				select {
				case challenges <- f:
				default:
				}
			case EventMessage, EventStreamError:
				c.deliverStream(f)
			}
		}
	}
}

// deliverStream hands f to the active stream. A full buffer ends the stream;
// the consumer resumes from its cursor after reopening it.
func (c *Client) deliverStream(f frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := c.stream
	if ch == nil {
		return
	}
	select {
	case ch <- f:
	default:
		log.Warn("message stream overflow, closing stream", "buffer", streamBuffer)
		c.stream = nil
		close(ch)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// request sends one req frame and waits for its res. out, when non-nil, receives the payload.
func (c *Client) request(ctx context.Context, method string, params any, out any) error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	id := fmt.Sprintf("go-%d", c.nextID.Add(1))
	ch := make(chan frame, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	data, err := json.Marshal(frame{Type: FrameRequest, ID: id, Method: method, Params: params})
	if err != nil {
		return errors.Wrapf(err, "marshal %s", method)
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "write %s", method), ErrNotConnected)
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			return relayError(method, resp.Error)
		}
		if out != nil && len(resp.Payload) > 0 {
			if err := json.Unmarshal(resp.Payload, out); err != nil {
				return errors.Wrapf(err, "decode %s response", method)
			}
		}
		return nil
	case <-done:
		return errors.Wrapf(ErrNotConnected, "connection closed during %s", method)
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "waiting for %s response", method)
	}
}

// Sync asks the relay to refresh the agent's conversation list and returns how many it knows.
func (c *Client) Sync(ctx context.Context) (int, error) {
	if err := c.Connect(ctx); err != nil {
		return 0, err
	}
	var res syncResult
	if err := c.request(ctx, MethodSync, sinceParams{Since: c.Cursor()}, &res); err != nil {
		return 0, err
	}
	return res.Conversations, nil
}

// consumed reports whether msg was already delivered, by position and id.
func (c *Client) consumed(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.SentAtNs < c.cursor {
		return true
	}
	if msg.SentAtNs > c.cursor {
		return false
	}
	_, seen := c.seenAt[msg.ID]
	return seen
}

// advanceCursor records msg as delivered.
func (c *Client) advanceCursor(msg Message) {
	c.mu.Lock()
	switch {
	case msg.SentAtNs < c.cursor:
		c.mu.Unlock()
		return
	case msg.SentAtNs > c.cursor:
		c.cursor = msg.SentAtNs
		c.seenAt = map[string]struct{}{msg.ID: {}}
	default:
		if c.seenAt == nil {
			c.seenAt = make(map[string]struct{})
		}
		c.seenAt[msg.ID] = struct{}{}
	}
	c.mu.Unlock()
	c.persist()
}

func (c *Client) persist() {
	if c.store == nil {
		return
	}
	c.mu.Lock()
	st := State{InboxID: c.inboxID, CursorNs: c.cursor}
	for id := range c.seenAt {
		st.CursorIDs = append(st.CursorIDs, id)
	}
	c.mu.Unlock()
	sort.Strings(st.CursorIDs)
	if err := c.store.Save(st); err != nil {
		log.Error("failed to save agent state", "path", c.store.Path(), "error", err)
	}
}
