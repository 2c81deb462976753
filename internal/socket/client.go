package socket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/config"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/socketio"
)

const (
	// writeTimeout bounds control writes that have no caller context.
	writeTimeout = 5 * time.Second
	// fallbackHeartbeat is used when the server announces no ping timing.
	fallbackHeartbeat = 45 * time.Second
)

// Client implements config.Transport over a Socket.IO websocket connection.
type Client struct {
	log            *slog.Logger
	serverURL      string
	socketPath     string
	namespace      string
	connectTimeout time.Duration
	dialer         *websocket.Dialer

	conn      *websocket.Conn
	handlers  config.EventHandlers
	heartbeat time.Duration
	eg        *errgroup.Group

	mu        sync.Mutex // Protects websocket writes and the fields below
	connected bool
	closing   bool // Whether Disconnect() has been called (intentional shutdown)
	used      bool // Whether Connect() has been called

	done     chan struct{}
	doneOnce sync.Once
}

// Compile-time verification that Client implements the Transport interface.
var _ config.Transport = (*Client)(nil)

// New creates a websocket transport for the server described by opts.
//
// The connection is not opened until Connect is called.
func New(opts *config.Options) *Client {
	opts = opts.WithDefaults()

	return &Client{
		log:            opts.Logger.With("component", "socket_transport"),
		serverURL:      opts.ServerURL,
		socketPath:     opts.SocketPath,
		namespace:      opts.Namespace,
		connectTimeout: opts.ConnectTimeout,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.ConnectTimeout,
		},
		done: make(chan struct{}),
	}
}

// Factory is a config.TransportFactory building websocket transports.
func Factory(opts *config.Options) config.Transport {
	return New(opts)
}

// EndpointURL derives the websocket endpoint from a server URL.
//
// http and https map to ws and wss. The socket path and Engine.IO query
// parameters are appended.
func EndpointURL(serverURL, socketPath string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("server URL %q has no host", serverURL)
	}

	if socketPath == "" {
		socketPath = config.DefaultSocketPath
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.Trim(socketPath, "/") + "/"

	q := u.Query()
	q.Set("EIO", socketio.EngineIOVersion)
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Connect dials the server, performs the Engine.IO and namespace handshake
// and starts the reader goroutine.
//
// Returns ConnectionError if the server cannot be reached or refuses the
// namespace.
func (c *Client) Connect(ctx context.Context, handlers config.EventHandlers) error {
	c.mu.Lock()
	if c.used {
		c.mu.Unlock()

		return errors.ErrTransportClosed
	}

	c.used = true
	c.mu.Unlock()

	endpoint, err := EndpointURL(c.serverURL, c.socketPath)
	if err != nil {
		return &errors.ConnectionError{URL: c.serverURL, Err: err}
	}

	c.log.Debug("Dialing search server", "url", endpoint)

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, _, err := c.dialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		c.log.Error("Failed to dial search server", "url", endpoint, "error", err)
		c.closeDone()

		return &errors.ConnectionError{URL: endpoint, Err: err}
	}

	c.conn = conn
	c.handlers = handlers

	deadline := time.Now().Add(c.connectTimeout)
	if d, ok := dialCtx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.handshake(deadline); err != nil {
		_ = conn.Close()
		c.closeDone()

		return &errors.ConnectionError{URL: endpoint, Err: err}
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.eg = &errgroup.Group{}
	c.eg.Go(c.readLoop)

	c.log.Info("Connected to search server", "url", endpoint, "namespace", c.namespace)

	return nil
}

// handshake reads the Engine.IO open packet, joins the namespace and waits
// for the server to acknowledge it.
func (c *Client) handshake(deadline time.Time) error {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return err
	}

	frame, err := c.readText()
	if err != nil {
		return fmt.Errorf("read open packet: %w", err)
	}

	packet, err := socketio.DecodeEngine(frame)
	if err != nil {
		return err
	}

	open, err := socketio.ParseOpen(packet)
	if err != nil {
		return err
	}

	c.heartbeat = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	if c.heartbeat <= 0 {
		c.heartbeat = fallbackHeartbeat
	}

	c.log.Debug("Engine.IO session opened", "sid", open.SID, "heartbeat", c.heartbeat)

	if err := c.writePacket(socketio.NewPacket(socketio.Connect, c.namespace, nil), deadline); err != nil {
		return fmt.Errorf("send namespace connect: %w", err)
	}

	for {
		frame, err := c.readText()
		if err != nil {
			return fmt.Errorf("await namespace connect: %w", err)
		}

		packet, err := socketio.DecodeEngine(frame)
		if err != nil {
			return err
		}

		switch packet.Type {
		case socketio.EnginePing:
			if err := c.writeEngine(socketio.EnginePacket{Type: socketio.EnginePong, Data: packet.Data}, deadline); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}

			continue
		case socketio.EngineMessage:
		case socketio.EngineClose:
			return fmt.Errorf("server closed the session during handshake")
		default:
			continue
		}

		p, err := socketio.Decode(packet.Data)
		if err != nil {
			return err
		}

		if p.Namespace != c.namespace {
			continue
		}

		switch p.Type {
		case socketio.Connect:
			c.log.Debug("Namespace connected", "namespace", p.Namespace)

			return nil
		case socketio.ConnectError:
			return &errors.NamespaceError{Namespace: p.Namespace, Message: p.ErrorMessage()}
		default:
			c.log.Debug("Ignoring packet before namespace connect", "type", p.Type.String())
		}
	}
}

// readText reads frames until a text frame arrives.
func (c *Client) readText() (string, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}

		if mt == websocket.TextMessage {
			return string(data), nil
		}
	}
}

// readLoop dispatches inbound events until the connection ends.
func (c *Client) readLoop() error {
	defer c.closeDone()
	defer c.log.Debug("Socket read loop stopped")

	var pending *binaryEvent

	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.heartbeat)); err != nil {
			return c.readFailed(err)
		}

		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return c.readFailed(err)
		}

		if mt == websocket.BinaryMessage {
			if pending == nil {
				c.log.Warn("Dropping unannounced binary frame", "size", len(data))

				continue
			}

			pending.attachments = append(pending.attachments, data)
			if len(pending.attachments) == pending.expected {
				c.dispatch(pending.name, config.BinaryPayload(bytes.Join(pending.attachments, nil)))
				pending = nil
			}

			continue
		}

		packet, err := socketio.DecodeEngine(string(data))
		if err != nil {
			c.log.Warn("Dropping undecodable frame", "error", err)

			continue
		}

		switch packet.Type {
		case socketio.EnginePing:
			if err := c.writeEngine(socketio.EnginePacket{Type: socketio.EnginePong, Data: packet.Data}, time.Now().Add(writeTimeout)); err != nil {
				return c.readFailed(fmt.Errorf("send pong: %w", err))
			}
		case socketio.EngineClose:
			return c.serverGone("server closed the session")
		case socketio.EngineMessage:
			next, err := c.handlePacket(packet.Data)
			if err != nil {
				return err
			}

			if next != nil {
				pending = next
			}
		default:
			c.log.Debug("Ignoring engine packet", "type", packet.Type.String())
		}
	}
}

// binaryEvent collects the attachments announced by a BINARY_EVENT packet.
type binaryEvent struct {
	name        string
	expected    int
	attachments [][]byte
}

// handlePacket routes one Socket.IO packet. A BINARY_EVENT returns the
// collector for its attachments.
func (c *Client) handlePacket(data string) (*binaryEvent, error) {
	p, err := socketio.Decode(data)
	if err != nil {
		c.log.Warn("Dropping undecodable packet", "error", err)

		return nil, nil
	}

	if p.Namespace != c.namespace {
		c.log.Debug("Ignoring packet for other namespace", "namespace", p.Namespace)

		return nil, nil
	}

	switch p.Type {
	case socketio.Event:
		name, args, err := p.Event()
		if err != nil {
			c.log.Warn("Dropping malformed event", "error", err)

			return nil, nil
		}

		c.dispatch(name, config.TextPayload(argumentText(args)))
	case socketio.BinaryEvent:
		name, _, err := p.Event()
		if err != nil {
			c.log.Warn("Dropping malformed binary event", "error", err)

			return nil, nil
		}

		if p.Attachments == 0 {
			c.dispatch(name, config.BinaryPayload(nil))

			return nil, nil
		}

		return &binaryEvent{name: name, expected: p.Attachments}, nil
	case socketio.Disconnect:
		return nil, c.serverGone("server disconnected the namespace")
	case socketio.ConnectError:
		c.dispatch(config.ErrorEvent, config.TextPayload(p.ErrorMessage()))
	default:
		c.log.Debug("Ignoring packet", "type", p.Type.String())
	}

	return nil, nil
}

// argumentText renders event arguments as the text handed to handlers.
//
// A single string argument is unquoted, a single argument of any other type
// is passed as raw JSON, and several arguments are passed as a JSON array.
func argumentText(args []json.RawMessage) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		var text string
		if err := json.Unmarshal(args[0], &text); err == nil {
			return text
		}

		return string(args[0])
	default:
		data, err := json.Marshal(args)
		if err != nil {
			return ""
		}

		return string(data)
	}
}

// dispatch invokes the handler registered for event, if any.
func (c *Client) dispatch(event string, payload config.Payload) {
	handler, ok := c.handlers[event]
	if !ok {
		c.log.Debug("No handler registered for event", "event", event)

		return
	}

	c.log.Debug("Dispatching event", "event", event, "payload_kind", payload.Kind.String())
	handler(payload)
}

// readFailed ends the read loop after a read or write error.
// Errors caused by Disconnect() are expected and not reported.
func (c *Client) readFailed(err error) error {
	if c.isClosing() {
		return nil
	}

	c.log.Error("Socket read failed", "error", err)
	c.markDisconnected()
	c.dispatch(config.ErrorEvent, config.TextPayload(err.Error()))

	return fmt.Errorf("read: %w", err)
}

// serverGone ends the read loop after the server closed the session.
func (c *Client) serverGone(reason string) error {
	if c.isClosing() {
		return nil
	}

	c.log.Warn("Search server ended the connection", "reason", reason)
	c.markDisconnected()
	c.dispatch(config.ErrorEvent, config.TextPayload(reason))

	return fmt.Errorf("%s: %w", reason, errors.ErrConnectionLost)
}

// Emit sends one event to the server.
// This method is safe for concurrent use.
func (c *Client) Emit(ctx context.Context, event string, data any) error {
	packet, err := socketio.NewEvent(c.namespace, event, data)
	if err != nil {
		return err
	}

	if !c.IsConnected() {
		return errors.ErrTransportNotConnected
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.log.Debug("Emitting event", "event", event)

	if err := c.writePacket(packet, deadline); err != nil {
		c.log.Error("Failed to emit event", "event", event, "error", err)

		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// writePacket writes a Socket.IO packet wrapped in an Engine.IO message.
func (c *Client) writePacket(p *socketio.Packet, deadline time.Time) error {
	return c.writeEngine(socketio.EnginePacket{Type: socketio.EngineMessage, Data: p.Encode()}, deadline)
}

// writeEngine serialises writes; gorilla/websocket allows one concurrent writer.
func (c *Client) writeEngine(p socketio.EnginePacket, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, []byte(p.Encode()))
}

// Disconnect leaves the namespace, closes the websocket and waits for the
// reader goroutine to exit. It's safe to call Disconnect multiple times,
// but not from inside an event handler.
func (c *Client) Disconnect() error {
	c.mu.Lock()

	if c.closing || c.conn == nil {
		c.mu.Unlock()

		return nil
	}

	c.closing = true
	wasConnected := c.connected
	c.connected = false

	deadline := time.Now().Add(writeTimeout)

	if wasConnected {
		leave := socketio.EnginePacket{
			Type: socketio.EngineMessage,
			Data: socketio.NewPacket(socketio.Disconnect, c.namespace, nil).Encode(),
		}

		if err := c.conn.SetWriteDeadline(deadline); err == nil {
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(leave.Encode())); err != nil {
				c.log.Debug("Could not send namespace disconnect", "error", err)
			}
		}

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.conn.WriteControl(websocket.CloseMessage, closeMsg, deadline); err != nil {
			c.log.Debug("Could not send close frame", "error", err)
		}
	}

	err := c.conn.Close()
	c.mu.Unlock()

	if c.eg != nil {
		if waitErr := c.eg.Wait(); waitErr != nil {
			c.log.Debug("Read loop ended with error", "error", waitErr)
		}
	}

	c.closeDone()
	c.log.Info("Disconnected from search server")

	if err != nil {
		return fmt.Errorf("close websocket: %w", err)
	}

	return nil
}

// Done returns a channel that is closed when the connection terminates.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// IsConnected returns true if the namespace handshake completed and the
// connection has not ended.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

func (c *Client) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closing
}

func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
}

func (c *Client) closeDone() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}
