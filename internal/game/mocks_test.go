package game

import (
	"context"
	"sync"
)

var (
	_ Dispatcher     = &dispatcherMock{}
	_ EventPublisher = &publisherMock{}
)

type sent struct {
	to           string
	move         *AppliedMove
	notification *Notification
	errorEvent   *ErrorEvent
}

type dispatcherMock struct {
	mu   sync.Mutex
	sent []sent
}

func (m *dispatcherMock) SendMove(to string, move AppliedMove) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{to: to, move: &move})
}

func (m *dispatcherMock) SendNotification(to string, notification Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{to: to, notification: &notification})
}

func (m *dispatcherMock) SendError(to string, event ErrorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{to: to, errorEvent: &event})
}

// drain returns everything sent since the last call.
func (m *dispatcherMock) drain() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sent
	m.sent = nil
	return out
}

func (m *dispatcherMock) notificationsFor(to string) []NotificationCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	var codes []NotificationCode
	for _, s := range m.sent {
		if s.to == to && s.notification != nil {
			codes = append(codes, s.notification.Code)
		}
	}
	return codes
}

type publisherMock struct {
	mu          sync.Mutex
	events      []Event
	publishFunc func(ctx context.Context, event Event) error
}

func (m *publisherMock) Publish(ctx context.Context, event Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.publishFunc != nil {
		return m.publishFunc(ctx, event)
	}
	return nil
}

func (m *publisherMock) types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]EventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

func intPtr(v int) *int {
	return &v
}
