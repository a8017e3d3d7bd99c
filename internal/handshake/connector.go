package handshake

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"wscheck/internal/contract"
)

var errNoConnection = errors.New("connector has no open connection")

// ConnectorListener reads frames of one connection and dispatches them to
// the handlers of its service.
type ConnectorListener struct {
	mu   sync.RWMutex
	info *ConnectionInfo
	obs  Observer
}

func NewConnectorListener(obs Observer) *ConnectorListener {
	if obs == nil {
		obs = NopObserver{}
	}
	return &ConnectorListener{obs: obs}
}

func (cl *ConnectorListener) SetConnectionInfo(info *ConnectionInfo) {
	cl.mu.Lock()
	cl.info = info
	cl.mu.Unlock()
}

func (cl *ConnectorListener) ConnectionInfo() *ConnectionInfo {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.info
}

// Serve dispatches onOpen, then every frame, until the peer closes the
// connection, a read fails or ctx ends. A handler error is passed to the
// onError handler when the service has one and otherwise ends Serve.
// A normal close returns nil.
func (cl *ConnectorListener) Serve(ctx context.Context) error {
	info := cl.ConnectionInfo()
	if info == nil || info.Conn == nil {
		return errNoConnection
	}
	conn, svc, client := info.Conn, info.Service, info.Client
	defer client.markClosed()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		// unblocks ReadMessage
		_ = conn.Close()
	}()

	var handlerErr error
	deliver := func(msg Message) bool {
		cl.obs.ObserveMessage(msg.Kind)
		err := svc.dispatch(ctx, client, msg)
		if err == nil {
			return true
		}
		if msg.Kind != contract.EventError && svc.Handles(contract.EventError) {
			err = svc.dispatch(ctx, client, Message{Kind: contract.EventError, Err: err})
		}
		if err != nil {
			handlerErr = err
			cancel()
			return false
		}
		return true
	}

	conn.SetPingHandler(func(data string) error {
		deliver(Message{Kind: contract.EventPing, Data: []byte(data)})
		client.writeMu.Lock()
		defer client.writeMu.Unlock()
		err := conn.WriteMessage(websocket.PongMessage, []byte(data))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	conn.SetPongHandler(func(data string) error {
		deliver(Message{Kind: contract.EventPong, Data: []byte(data)})
		return nil
	})

	if !deliver(Message{Kind: contract.EventOpen}) {
		return handlerErr
	}

	for {
		frame, data, err := conn.ReadMessage()
		if err != nil {
			if handlerErr != nil {
				return handlerErr
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				deliver(Message{Kind: contract.EventClose, CloseCode: ce.Code, CloseText: ce.Text})
				return handlerErr
			}
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			deliver(Message{Kind: contract.EventError, Err: err})
			return err
		}
		var ok bool
		switch frame {
		case websocket.TextMessage:
			ok = deliver(Message{Kind: contract.EventText, Data: data})
		case websocket.BinaryMessage:
			ok = deliver(Message{Kind: contract.EventBinary, Data: data})
		default:
			ok = true
		}
		if !ok {
			return handlerErr
		}
	}
}
