package handshake

import (
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Native data keys stored on a Client.
const (
	NativeHTTPResponse   = "http_response"
	NativeConnectionInfo = "connection_info"
)

var errNotConnected = errors.New("websocket client is not connected")

// Client is the caller-facing endpoint of one connection. Native data holds
// the handshake response and the connection info; endpoint fields are filled
// once the handshake succeeds.
type Client struct {
	mu     sync.RWMutex
	native map[string]any

	id          string
	subprotocol string
	secure      bool
	open        bool

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func NewClient() *Client {
	return &Client{native: make(map[string]any)}
}

func (c *Client) SetNative(key string, v any) {
	c.mu.Lock()
	c.native[key] = v
	c.mu.Unlock()
}

func (c *Client) Native(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.native[key]
	return v, ok
}

// HTTPResponse returns the handshake response, if the server sent one.
func (c *Client) HTTPResponse() *http.Response {
	v, _ := c.Native(NativeHTTPResponse)
	resp, _ := v.(*http.Response)
	return resp
}

func (c *Client) ConnectionInfo() *ConnectionInfo {
	v, _ := c.Native(NativeConnectionInfo)
	info, _ := v.(*ConnectionInfo)
	return info
}

func (c *Client) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Client) Subprotocol() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subprotocol
}

func (c *Client) Secure() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secure
}

func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// populate fills the endpoint fields from an established connection.
func (c *Client) populate(conn *websocket.Conn, resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.id = uuid.NewString()
	c.subprotocol = conn.Subprotocol()
	c.secure = resp != nil && resp.Request != nil && resp.Request.URL != nil && resp.Request.URL.Scheme == "wss"
	c.open = true
}

func (c *Client) connection() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// WriteText sends a text frame.
func (c *Client) WriteText(data string) error {
	return c.write(websocket.TextMessage, []byte(data))
}

// WriteBinary sends a binary frame.
func (c *Client) WriteBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *Client) write(kind int, data []byte) error {
	conn := c.connection()
	if conn == nil {
		return errNotConnected
	}
	// gorilla allows one concurrent writer
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(kind, data)
}

// Close sends a close frame with code and reason and closes the connection.
func (c *Client) Close(code int, reason string) error {
	conn := c.connection()
	if conn == nil {
		return nil
	}
	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()
	if !wasOpen {
		return nil
	}

	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	c.writeMu.Unlock()
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Client) markClosed() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// ConnectionInfo ties a connection to the service handling it. Conn is nil
// when the handshake failed.
type ConnectionInfo struct {
	Service *Service
	Conn    *websocket.Conn
	Client  *Client
}
