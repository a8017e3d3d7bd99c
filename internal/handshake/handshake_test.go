package handshake

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wscheck/internal/ast"
	"wscheck/internal/contract"
	"wscheck/internal/diag"
	"wscheck/internal/source"
)

func echoService(names ...string) *ast.Service {
	svc := &ast.Service{Kind: ast.ServiceEvent, Name: "Echo"}
	for _, n := range names {
		svc.Functions = append(svc.Functions, ast.Function{Qualifier: ast.QualRemote, Name: n})
	}
	svc.Functions = append(svc.Functions, ast.Function{Qualifier: ast.QualPlain, Name: "helper"})
	return svc
}

func noop(context.Context, *Client, Message) error { return nil }

func TestBindRejectsInvalidService(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.WSContract, source.Span{}, contract.InvalidReturnTypes))

	_, err := Bind(echoService("onText"), bag, Handlers{contract.EventText: noop})
	require.ErrorIs(t, err, ErrRejected)

	assert.NotPanics(t, func() {
		_, err = Bind(nil, bag, nil)
	})
	require.ErrorIs(t, err, errNoService)
}

func TestBindRequiresHandlerPerEvent(t *testing.T) {
	_, err := Bind(echoService("onOpen", "onTextMessage"), diag.NewBag(0), Handlers{contract.EventOpen: noop})
	require.ErrorIs(t, err, ErrNotAccepted)
	assert.Contains(t, err.Error(), "onTextMessage")

	// warnings do not reject; unknown remote names and helpers are not events
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevWarning, diag.ProjUnknownListener, source.Span{}, "unknown listener"))
	svc, err := Bind(echoService("onOpen", "onTextMessage", "onSomething"), bag, Handlers{
		contract.EventOpen:   noop,
		contract.EventText:   noop,
		contract.EventBinary: noop,
	})
	require.NoError(t, err)
	assert.Equal(t, []contract.EventKind{contract.EventOpen, contract.EventText}, svc.Events())
	assert.False(t, svc.Handles(contract.EventBinary))
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// scriptedServer greets the client, waits for one reply and closes.
func scriptedServer(t *testing.T, replies chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2})
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		replies <- string(data)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_, _, _ = conn.ReadMessage()
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialAndServe(t *testing.T) {
	replies := make(chan string, 1)
	srv := scriptedServer(t, replies)
	defer srv.Close()

	rec := &recorder{}
	svc, err := Bind(echoService("onOpen", "onText", "onBinary", "onClose"), nil, Handlers{
		contract.EventOpen: func(context.Context, *Client, Message) error {
			rec.add("open")
			return nil
		},
		contract.EventText: func(_ context.Context, c *Client, m Message) error {
			rec.add("text:" + string(m.Data))
			return c.WriteText("ack:" + string(m.Data))
		},
		contract.EventBinary: func(_ context.Context, _ *Client, m Message) error {
			rec.add("binary:" + strconv.Itoa(len(m.Data)))
			return nil
		},
		contract.EventClose: func(_ context.Context, _ *Client, m Message) error {
			rec.add("close:" + m.CloseText)
			assert.Equal(t, websocket.CloseNormalClosure, m.CloseCode)
			return nil
		},
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics("", reg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, connector, err := Dial(ctx, wsURL(srv), svc, DialOptions{Observer: metrics})
	require.NoError(t, err)

	assert.True(t, client.IsOpen())
	_, err = uuid.Parse(client.ID())
	assert.NoError(t, err)
	require.NotNil(t, client.HTTPResponse())
	assert.Equal(t, http.StatusSwitchingProtocols, client.HTTPResponse().StatusCode)
	info := client.ConnectionInfo()
	require.NotNil(t, info)
	assert.Same(t, svc, info.Service)
	assert.Same(t, info, connector.ConnectionInfo())

	require.NoError(t, connector.Serve(ctx))
	assert.Equal(t, "ack:hello", <-replies)
	assert.Equal(t, []string{"open", "text:hello", "binary:2", "close:bye"}, rec.list())
	assert.False(t, client.IsOpen())

	// the connection is observed after the future completes
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.connections.WithLabelValues("Echo")) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.messages.WithLabelValues(contract.EventText.String())))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.handshakeErrors))
}

func TestHandlerErrorGoesToOnError(t *testing.T) {
	replies := make(chan string, 1)
	srv := scriptedServer(t, replies)
	defer srv.Close()

	rec := &recorder{}
	boom := errors.New("boom")
	svc, err := Bind(echoService("onText", "onBinary", "onError"), nil, Handlers{
		contract.EventText: func(context.Context, *Client, Message) error {
			return boom
		},
		contract.EventBinary: func(_ context.Context, c *Client, _ Message) error {
			return c.WriteBinary([]byte("ok"))
		},
		contract.EventError: func(_ context.Context, _ *Client, m Message) error {
			rec.add("error:" + m.Err.Error())
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, connector, err := Dial(ctx, wsURL(srv), svc, DialOptions{})
	require.NoError(t, err)
	require.NoError(t, connector.Serve(ctx))
	assert.Equal(t, "ok", <-replies)
	assert.Equal(t, []string{"error:boom"}, rec.list())
}

func TestUnhandledErrorEndsServe(t *testing.T) {
	replies := make(chan string, 1)
	srv := scriptedServer(t, replies)
	defer srv.Close()

	boom := errors.New("boom")
	svc, err := Bind(echoService("onText"), nil, Handlers{
		contract.EventText: func(context.Context, *Client, Message) error { return boom },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, connector, err := Dial(ctx, wsURL(srv), svc, DialOptions{})
	require.NoError(t, err)
	require.ErrorIs(t, connector.Serve(ctx), boom)
}

func TestDialHandshakeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no upgrade for you", http.StatusForbidden)
	}))
	defer srv.Close()

	svc, err := Bind(echoService(), nil, nil)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics("test", reg)
	require.NoError(t, err)

	client, connector, err := Dial(context.Background(), wsURL(srv), svc, DialOptions{Observer: metrics})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Nil(t, connector)
	require.NotNil(t, client.HTTPResponse())
	assert.Equal(t, http.StatusForbidden, client.HTTPResponse().StatusCode)
	require.NotNil(t, client.ConnectionInfo())
	assert.Nil(t, client.ConnectionInfo().Conn)
	assert.False(t, client.IsOpen())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.handshakeErrors))
}

func TestDialCancelledDuringHandshake(t *testing.T) {
	svc, err := Bind(echoService(), nil, nil)
	require.NoError(t, err)

	arrived := make(chan struct{})
	release := make(chan struct{})
	closed := make(chan error, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			closed <- err
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, _, err = conn.ReadMessage()
		closed <- err
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()
	client, connector, err := Dial(ctx, wsURL(srv), svc, DialOptions{})
	close(release)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, connector)

	// the upgrade answered after the cancel must not stay open
	select {
	case err := <-closed:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server side of the cancelled handshake is still open")
	}
	assert.Eventually(t, func() bool { return !client.IsOpen() }, time.Second, 10*time.Millisecond)
}

func TestServeWithoutConnection(t *testing.T) {
	cl := NewConnectorListener(nil)
	require.Error(t, cl.Serve(context.Background()))
}

func TestClientWriteWithoutConnection(t *testing.T) {
	c := NewClient()
	require.Error(t, c.WriteText("x"))
	require.NoError(t, c.Close(websocket.CloseNormalClosure, ""))
}

func TestFuture(t *testing.T) {
	f := NewFuture()
	first := errors.New("first")
	f.Complete(first)
	f.Complete(nil)
	require.ErrorIs(t, f.Wait(context.Background()), first)
	select {
	case <-f.Done():
	default:
		t.Fatal("done channel must be closed")
	}

	pending := NewFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pending.Wait(ctx), context.Canceled)
}

func TestMetricsRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics("", reg)
	require.NoError(t, err)
	_, err = NewMetrics("", reg)
	require.Error(t, err)
}
