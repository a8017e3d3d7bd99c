package handshake

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Listener receives the outcome of a client handshake.
type Listener struct {
	client    *Client
	service   *Service
	connector *ConnectorListener
	future    *Future
	obs       Observer
}

func NewListener(client *Client, svc *Service, connector *ConnectorListener, future *Future, obs Observer) *Listener {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Listener{client: client, service: svc, connector: connector, future: future, obs: obs}
}

// OnSuccess stores the handshake response, opens the client endpoint, hands
// the connection to the connector listener and completes the future.
func (l *Listener) OnSuccess(conn *websocket.Conn, resp *http.Response) {
	l.client.SetNative(NativeHTTPResponse, resp)
	l.client.populate(conn, resp)
	info := l.setConnectionInfo(conn)
	l.connector.SetConnectionInfo(info)
	l.future.Complete(nil)
	l.obs.ObserveConnection(info)
}

// OnError stores the response when the server sent one and completes the
// future with err. The connection info is recorded without a connection.
func (l *Listener) OnError(err error, resp *http.Response) {
	if resp != nil {
		l.client.SetNative(NativeHTTPResponse, resp)
	}
	l.setConnectionInfo(nil)
	l.obs.ObserveHandshakeError(err)
	l.future.Complete(err)
}

func (l *Listener) setConnectionInfo(conn *websocket.Conn) *ConnectionInfo {
	info := &ConnectionInfo{Service: l.service, Conn: conn, Client: l.client}
	l.client.SetNative(NativeConnectionInfo, info)
	return info
}

// DialOptions tune the client handshake.
type DialOptions struct {
	Header           http.Header
	Subprotocols     []string
	HandshakeTimeout time.Duration // 0: 10s
	Observer         Observer
}

// Dial performs the handshake against url for svc and returns the client
// together with the connector listener that serves its frames.
func Dial(ctx context.Context, url string, svc *Service, opts DialOptions) (*Client, *ConnectorListener, error) {
	timeout := opts.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		Subprotocols:     opts.Subprotocols,
	}

	client := NewClient()
	connector := NewConnectorListener(opts.Observer)
	future := NewFuture()
	l := NewListener(client, svc, connector, future, opts.Observer)

	go func() {
		conn, resp, err := dialer.DialContext(ctx, url, opts.Header)
		if err == nil && ctx.Err() != nil {
			// the caller is gone, nobody would serve this connection
			_ = conn.Close()
			err = ctx.Err()
		}
		if err != nil {
			l.OnError(err, resp)
			return
		}
		l.OnSuccess(conn, resp)
	}()

	if err := future.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			// the handshake may still complete after the cancel
			go func() {
				<-future.Done()
				_ = client.Close(websocket.CloseGoingAway, "")
			}()
		}
		return client, nil, fmt.Errorf("websocket handshake with %s: %w", url, err)
	}
	return client, connector, nil
}
