package queryrpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/pkg/logutil"
)

type checkerMock struct {
	isFirstToPlayFunc func(identity string) (bool, error)
}

func (m *checkerMock) IsFirstToPlay(identity string) (bool, error) {
	return m.isFirstToPlayFunc(identity)
}

func newTestClient(t *testing.T, checker FirstPlayerChecker) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterQueryServer(srv, NewGRPCHandler(logutil.NewNoop(), checker))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func TestQueryService_IsFirstToPlay(t *testing.T) {
	t.Parallel()

	registry := game.NewRegistry(logutil.NewNoop(), discardDispatcher{}, nil)
	ctx := context.Background()
	require.NoError(t, registry.Connect(ctx, "A"))
	require.NoError(t, registry.Connect(ctx, "B"))

	client := newTestClient(t, registry)

	first, err := client.IsFirstToPlay(ctx, "A")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = client.IsFirstToPlay(ctx, "B")
	require.NoError(t, err)
	assert.False(t, first)

	_, err = client.IsFirstToPlay(ctx, "")
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Contains(t, st.Message(), "The parameter 'user' can't be null.")
}

func TestQueryService_InternalError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &checkerMock{
		isFirstToPlayFunc: func(identity string) (bool, error) { return false, assert.AnError },
	})

	_, err := client.IsFirstToPlay(context.Background(), "A")
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

type discardDispatcher struct{}

func (discardDispatcher) SendMove(string, game.AppliedMove) {}
func (discardDispatcher) SendNotification(string, game.Notification) {}
func (discardDispatcher) SendError(string, game.ErrorEvent) {}
