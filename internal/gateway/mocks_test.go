package gateway

import (
	"context"
	"sync"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/protocol"
)

var (
	_ Sink       = &sinkMock{}
	_ Querier    = &querierMock{}
	_ Matchmaker = &matchmakerMock{}
)

type delivered struct {
	to    string
	frame protocol.Frame
}

type sinkMock struct {
	mu        sync.Mutex
	delivered []delivered
	refuse    bool
}

func (m *sinkMock) Deliver(identity string, frame protocol.Frame) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refuse {
		return false
	}
	m.delivered = append(m.delivered, delivered{to: identity, frame: frame})
	return true
}

type querierMock struct {
	isFirstToPlayFunc func(identity string) (bool, error)
	snapshotFunc      func() game.Snapshot
}

func (m *querierMock) IsFirstToPlay(identity string) (bool, error) {
	return m.isFirstToPlayFunc(identity)
}

func (m *querierMock) Snapshot() game.Snapshot {
	if m.snapshotFunc == nil {
		return game.Snapshot{}
	}
	return m.snapshotFunc()
}

// discardDispatcher drops everything.
type discardDispatcher struct{}

func (discardDispatcher) SendMove(string, game.AppliedMove) {}
func (discardDispatcher) SendNotification(string, game.Notification) {}
func (discardDispatcher) SendError(string, game.ErrorEvent) {}

type matchmakerMock struct {
	connectFunc    func(ctx context.Context, identity string) error
	disconnectFunc func(ctx context.Context, identity string)
}

func (m *matchmakerMock) Connect(ctx context.Context, identity string) error {
	if m.connectFunc == nil {
		return nil
	}
	return m.connectFunc(ctx, identity)
}

func (m *matchmakerMock) AfterConnect(context.Context, string) error {
	return nil
}

func (m *matchmakerMock) SubmitMove(context.Context, string, game.Move) error {
	return nil
}

func (m *matchmakerMock) Disconnect(ctx context.Context, identity string) {
	if m.disconnectFunc != nil {
		m.disconnectFunc(ctx, identity)
	}
}
