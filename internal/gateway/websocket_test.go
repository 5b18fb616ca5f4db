package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/pkg/logutil"
	"github.com/cheildo/game-of-three/internal/protocol"
)

type testServer struct {
	srv         *httptest.Server
	registry    *game.Registry
	connections *ConnectionManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logutil.NewNoop()
	cm := NewConnectionManager()
	registry := game.NewRegistry(logger, NewDispatcher(logger, cm), nil)
	ws := NewWebsocketHandler(logger, registry, cm, NewIdentityIssuer("secret", time.Hour), WebsocketConfig{})
	srv := httptest.NewServer(NewRouter(ws, NewHTTPHandler(logger, registry, cm)))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, registry: registry, connections: cm}
}

type testClient struct {
	t        *testing.T
	conn     *websocket.Conn
	identity string
	cookies  []*http.Cookie
}

func (s *testServer) dial(t *testing.T, header http.Header) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/websocket"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &testClient{t: t, conn: conn, cookies: resp.Cookies()}
	frame := c.read()
	require.Equal(t, protocol.DestinationConnected, frame.Destination)
	var connected protocol.Connected
	require.NoError(t, frame.Decode(&connected))
	require.NotEmpty(t, connected.UserName)
	c.identity = connected.UserName
	return c
}

func (c *testClient) read() protocol.Frame {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame protocol.Frame
	require.NoError(c.t, c.conn.ReadJSON(&frame))
	return frame
}

func (c *testClient) send(destination string, payload any) {
	c.t.Helper()

	frame, err := protocol.NewFrame(destination, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(frame))
}

func (c *testClient) expectMove(resultingNumber int, added *int) {
	c.t.Helper()

	frame := c.read()
	require.Equal(c.t, protocol.DestinationGameMoves, frame.Destination)
	var move protocol.AppliedMove
	require.NoError(c.t, frame.Decode(&move))
	assert.Equal(c.t, protocol.AppliedMove{ResultingNumber: resultingNumber, Added: added}, move)
}

func (c *testClient) expectNotification(code string) {
	c.t.Helper()

	frame := c.read()
	require.Equal(c.t, protocol.DestinationNotifications, frame.Destination)
	var n protocol.Notification
	require.NoError(c.t, frame.Decode(&n))
	assert.Equal(c.t, code, n.Code)
}

func (c *testClient) expectError(code game.Code) {
	c.t.Helper()

	frame := c.read()
	require.Equal(c.t, protocol.DestinationErrors, frame.Destination)
	var e protocol.ErrorEvent
	require.NoError(c.t, frame.Decode(&e))
	assert.Equal(c.t, string(code), e.ErrorCode)
}

// seatPair connects two participants and waits until both are seated.
func (s *testServer) seatPair(t *testing.T) (*testClient, *testClient) {
	t.Helper()

	a := s.dial(t, nil)
	a.send(protocol.DestinationAfterConnect, nil)
	a.expectNotification(protocol.NotificationWaitForOpponent)

	b := s.dial(t, nil)
	require.Eventually(t, func() bool {
		return s.registry.Snapshot().Participants == 2
	}, 5*time.Second, 10*time.Millisecond)
	return a, b
}

func TestWebsocket_Scenario(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a, b := s.seatPair(t)

	first, err := s.registry.IsFirstToPlay(a.identity)
	require.NoError(t, err)
	assert.True(t, first)

	a.send(protocol.DestinationSend, protocol.Move{ResultingNumber: protocol.Int(6)})
	b.expectMove(6, nil)
	a.expectMove(6, nil)

	b.send(protocol.DestinationSend, protocol.Move{Added: protocol.Int(0)})
	a.expectMove(6, protocol.Int(0))
	b.expectMove(6, protocol.Int(0))

	a.send(protocol.DestinationSend, protocol.Move{Added: protocol.Int(1)})
	b.expectMove(2, protocol.Int(1))
	a.expectMove(2, protocol.Int(1))
	a.expectNotification(protocol.NotificationYouWon)
	b.expectNotification(protocol.NotificationYouLost)

	assert.Equal(t, game.StateEmpty, s.registry.Snapshot().State)
}

func TestWebsocket_Rejections(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a, b := s.seatPair(t)

	b.send(protocol.DestinationSend, protocol.Move{ResultingNumber: protocol.Int(10)})
	b.expectError(game.CodeNotYourTurn)

	a.send(protocol.DestinationSend, protocol.Move{ResultingNumber: protocol.Int(1)})
	a.expectError(game.CodeResultingNumberTooSmall)

	require.NoError(t, a.conn.WriteMessage(websocket.TextMessage, []byte(`{"destination":"/app/send","payload":{"resultingNumber":2.5}}`)))
	a.expectError(game.CodeResultingNumberNotInteger)

	require.NoError(t, a.conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	a.expectError(game.CodeMalformedMessage)

	a.send("/app/unknown", nil)
	a.expectError(game.CodeMalformedMessage)

	assert.Zero(t, s.registry.Snapshot().MoveCount)
}

func TestWebsocket_GameBusy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a, b := s.seatPair(t)

	c := s.dial(t, nil)
	c.send(protocol.DestinationAfterConnect, nil)
	c.expectNotification(protocol.NotificationGameBusy)

	snap := s.registry.Snapshot()
	assert.Equal(t, a.identity, snap.ParticipantA)
	assert.Equal(t, b.identity, snap.ParticipantB)
}

func TestWebsocket_Disconnect(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a, b := s.seatPair(t)

	a.send(protocol.DestinationSend, protocol.Move{ResultingNumber: protocol.Int(30)})
	b.expectMove(30, nil)

	require.NoError(t, a.conn.Close())
	b.expectNotification(protocol.NotificationOpponentDisconnected)

	c := s.dial(t, nil)
	require.Eventually(t, func() bool {
		return s.registry.Snapshot().ParticipantA == c.identity
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebsocket_LeavesBeforeUnregistering(t *testing.T) {
	t.Parallel()

	logger := logutil.NewNoop()
	cm := NewConnectionManager()
	registeredOnLeave := make(chan bool, 1)
	mm := &matchmakerMock{
		disconnectFunc: func(ctx context.Context, identity string) {
			registeredOnLeave <- cm.Has(identity)
		},
	}
	ws := NewWebsocketHandler(logger, mm, cm, NewIdentityIssuer("secret", time.Hour), WebsocketConfig{})
	srv := httptest.NewServer(NewRouter(ws, NewHTTPHandler(logger, &querierMock{}, cm)))
	t.Cleanup(srv.Close)

	s := &testServer{srv: srv, connections: cm}
	a := s.dial(t, nil)
	require.NoError(t, a.conn.Close())

	select {
	case registered := <-registeredOnLeave:
		assert.True(t, registered, "identity must stay registered until it left the session")
	case <-time.After(5 * time.Second):
		t.Fatal("participant never left the session")
	}
	require.Eventually(t, func() bool {
		return !cm.Has(a.identity)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebsocket_CatchUpAfterConnect(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a := s.dial(t, nil)
	a.send(protocol.DestinationAfterConnect, nil)
	a.expectNotification(protocol.NotificationWaitForOpponent)

	a.send(protocol.DestinationSend, protocol.Move{ResultingNumber: protocol.Int(42)})
	a.expectMove(42, nil)

	b := s.dial(t, nil)
	b.send(protocol.DestinationAfterConnect, nil)
	b.expectMove(42, nil)
}

func TestWebsocket_IdentityIsSticky(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a := s.dial(t, nil)
	require.NotEmpty(t, a.cookies)

	header := http.Header{}
	for _, c := range a.cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}

	// While the first connection is live the cookie identity is taken.
	other := s.dial(t, header)
	assert.NotEqual(t, a.identity, other.identity)

	require.NoError(t, a.conn.Close())
	require.Eventually(t, func() bool {
		return !s.connections.Has(a.identity)
	}, 5*time.Second, 10*time.Millisecond)

	again := s.dial(t, header)
	assert.Equal(t, a.identity, again.identity)
}

func TestWebsocket_FirstPlayerEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	a, b := s.seatPair(t)

	for identity, expected := range map[string]bool{a.identity: true, b.identity: false} {
		req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/game/first-player", nil)
		require.NoError(t, err)
		req.Header.Set(protocol.HeaderSocketUserName, identity)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		var body protocol.FirstToPlayResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, expected, body.IsFirstToPlay)
	}
}
