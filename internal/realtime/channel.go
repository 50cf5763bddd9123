package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ametov/bookline/internal/config"
	"github.com/ametov/bookline/internal/logger"
)

// State of the channel connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

type wsChannel struct {
	wsURL            string
	handshakeTimeout time.Duration

	mu               sync.Mutex
	conn             *websocket.Conn
	state            State
	token            string
	intentionalClose bool
	cancelFn         context.CancelFunc

	dispatcher *eventDispatcher
	recon      *reconnector

	logger *logger.Logger
}

// NewChannel constructs a websocket [Channel] for the given endpoint. If
// cfg.Address is empty the websocket URL is derived from apiAddress by
// swapping the scheme and appending /ws.
func NewChannel(cfg config.ClientRealtime, apiAddress string, log *logger.Logger) (Channel, error) {
	raw := cfg.Address
	if raw == "" {
		raw = apiAddress
	}

	wsURL, err := normalizeWSURL(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime address: %w", err)
	}

	return &wsChannel{
		wsURL:            wsURL,
		handshakeTimeout: cfg.HandshakeTimeout,
		state:            StateDisconnected,
		dispatcher:       newEventDispatcher(),
		recon:            newReconnector(),
		logger:           log,
	}, nil
}

func normalizeWSURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("address must include host")
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Connect implements [Channel].
func (c *wsChannel) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.intentionalClose = false
	c.token = token
	c.mu.Unlock()

	return c.dial(ctx, token)
}

func (c *wsChannel) dial(ctx context.Context, token string) error {
	dialCtx := ctx
	if c.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.handshakeTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(dialCtx, c.wsURL+"?token="+url.QueryEscape(token), nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()

		c.logger.Err(err).
			Str("func", "wsChannel.dial").
			Msg("websocket dial failed, continuing without realtime")
		return fmt.Errorf("websocket dial: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.cancelFn = cancel
	c.mu.Unlock()
	c.recon.markConnected()

	c.dispatcher.dispatch(Envelope{Event: EventConnect})

	go c.readLoop(readCtx, conn)

	return nil
}

// Disconnect implements [Channel].
func (c *wsChannel) Disconnect() error {
	c.mu.Lock()
	c.intentionalClose = true
	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}
	conn := c.conn
	c.conn = nil
	alreadyDown := c.state == StateDisconnected
	c.state = StateDisconnected
	c.mu.Unlock()

	c.recon.reset()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	if !alreadyDown {
		c.dispatcher.dispatch(Envelope{Event: EventDisconnect})
	}

	return nil
}

// Connected implements [Channel].
func (c *wsChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// Emit implements [Channel]. Frames emitted while disconnected are
// dropped without error.
func (c *wsChannel) Emit(ctx context.Context, event string, payload any) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.Err(err).
			Str("func", "wsChannel.Emit").
			Str("event", event).
			Msg("failed to encode outbound frame")
		return
	}

	frame, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		return
	}

	if err = conn.Write(ctx, websocket.MessageText, frame); err != nil {
		c.logger.Err(err).
			Str("func", "wsChannel.Emit").
			Str("event", event).
			Msg("failed to write outbound frame")
	}
}

// Subscribe implements [Channel].
func (c *wsChannel) Subscribe(event string, h Handler) Subscription {
	return c.dispatcher.subscribe(event, h)
}

// Unsubscribe implements [Channel].
func (c *wsChannel) Unsubscribe(event string, sub Subscription) {
	c.dispatcher.unsubscribe(event, sub)
}

func (c *wsChannel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			intentional := c.intentionalClose
			c.conn = nil
			c.state = StateDisconnected
			token := c.token
			c.mu.Unlock()

			if intentional {
				return
			}

			c.logger.Err(err).
				Str("func", "wsChannel.readLoop").
				Msg("websocket closed unexpectedly")
			c.dispatcher.dispatch(Envelope{Event: EventDisconnect})

			if c.recon.shouldReconnect() {
				go c.scheduleReconnect(token)
			}
			return
		}

		var env Envelope
		if err = json.Unmarshal(data, &env); err != nil {
			c.logger.Err(err).
				Str("func", "wsChannel.readLoop").
				Msg("discarding malformed frame")
			continue
		}
		if err = env.Validate(); err != nil {
			continue
		}

		c.dispatcher.dispatch(env)
	}
}

func (c *wsChannel) scheduleReconnect(token string) {
	delay := c.recon.nextDelay()

	c.mu.Lock()
	if c.intentionalClose {
		c.mu.Unlock()
		return
	}
	c.state = StateReconnecting
	c.mu.Unlock()

	c.logger.Info().
		Str("func", "wsChannel.scheduleReconnect").
		Dur("delay", delay).
		Msg("reconnecting websocket")

	time.Sleep(delay)

	c.mu.Lock()
	if c.intentionalClose {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	if err := c.dial(context.Background(), token); err != nil && c.recon.shouldReconnect() {
		c.scheduleReconnect(token)
	}
}
