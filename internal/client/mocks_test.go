package client

import (
	"context"
	"sync"

	"github.com/cheildo/game-of-three/internal/protocol"
)

var (
	_ Listener           = &listenerMock{}
	_ Sender             = &senderMock{}
	_ FirstPlayerQuerier = &querierMock{}
)

type listenerMock struct {
	mu         sync.Mutex
	identities []string
	moves      []protocol.AppliedMove
	notices    []protocol.Notification
	errors     []protocol.ErrorEvent

	onConnectedFunc func(ctx context.Context, s Sender, identity string) error
}

func (m *listenerMock) OnConnected(ctx context.Context, s Sender, identity string) error {
	m.mu.Lock()
	m.identities = append(m.identities, identity)
	m.mu.Unlock()
	if m.onConnectedFunc != nil {
		return m.onConnectedFunc(ctx, s, identity)
	}
	return nil
}

func (m *listenerMock) OnMove(ctx context.Context, s Sender, move protocol.AppliedMove) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, move)
	return nil
}

func (m *listenerMock) OnNotification(ctx context.Context, s Sender, n protocol.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
	return nil
}

func (m *listenerMock) OnError(ctx context.Context, s Sender, e protocol.ErrorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, e)
	return nil
}

type senderMock struct {
	mu    sync.Mutex
	moves []protocol.Move
}

func (m *senderMock) SendMove(move protocol.Move) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, move)
	return nil
}

type querierMock struct {
	isFirstToPlayFunc func(ctx context.Context, identity string) (bool, error)
}

func (m *querierMock) IsFirstToPlay(ctx context.Context, identity string) (bool, error) {
	return m.isFirstToPlayFunc(ctx, identity)
}
