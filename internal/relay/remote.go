package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cheildo/game-of-three/internal/game"
)

const defaultRequestTimeout = 3 * time.Second

var (
	// ErrOwnerUnavailable is returned when no instance answered a forwarded
	// call in time, typically while the lease changes hands.
	ErrOwnerUnavailable = errors.New("session owner unavailable")

	errUnknownOp = errors.New("unknown relay command")
)

var _ Matchmaker = (*Remote)(nil)

// Remote is a Matchmaker that forwards every call to the session owner and
// waits for its answer on this instance's reply channel.
type Remote struct {
	logger   *slog.Logger
	client   pubSub
	prefix   string
	instance string
	timeout  time.Duration

	mu      sync.Mutex
	pending map[string]chan reply
	ready   chan struct{}
}

func NewRemote(logger *slog.Logger, client pubSub, prefix, instance string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Remote{
		logger:   logger.WithGroup("relay_remote"),
		client:   client,
		prefix:   prefix,
		instance: instance,
		timeout:  timeout,
		pending:  make(map[string]chan reply),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once replies can be received.
func (r *Remote) Ready() <-chan struct{} {
	return r.ready
}

// Run receives replies until ctx is cancelled.
func (r *Remote) Run(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, replyChannel(r.prefix, r.instance))
	defer pubsub.Close()

	messages, err := listen(ctx, pubsub)
	if err != nil {
		r.logger.Error("Reply subscription failed", "error", err)
		return
	}
	close(r.ready)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				r.logger.Warn("Reply subscription closed")
				return
			}
			r.resolve(msg)
		}
	}
}

func (r *Remote) resolve(msg *redis.Message) {
	var rep reply
	if err := json.Unmarshal([]byte(msg.Payload), &rep); err != nil {
		r.logger.Error("Failed to unmarshal reply", "error", err)
		return
	}

	r.mu.Lock()
	waiter, ok := r.pending[rep.ID]
	delete(r.pending, rep.ID)
	r.mu.Unlock()

	if ok {
		waiter <- rep
	}
}

func (r *Remote) call(ctx context.Context, req request) (reply, error) {
	req.ID = uuid.NewString()
	req.ReplyTo = replyChannel(r.prefix, r.instance)

	data, err := json.Marshal(req)
	if err != nil {
		return reply{}, fmt.Errorf("could not encode %s command: %w", req.Op, err)
	}

	waiter := make(chan reply, 1)
	r.mu.Lock()
	r.pending[req.ID] = waiter
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, req.ID)
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Publish(ctx, commandChannel(r.prefix), data).Err(); err != nil {
		return reply{}, fmt.Errorf("could not forward %s command: %w", req.Op, err)
	}

	select {
	case rep := <-waiter:
		return rep, nil
	case <-ctx.Done():
		return reply{}, fmt.Errorf("%s for %q: %w", req.Op, req.Identity, ErrOwnerUnavailable)
	}
}

func (r *Remote) Connect(ctx context.Context, identity string) error {
	rep, err := r.call(ctx, request{Op: opConnect, Identity: identity})
	if err != nil {
		return err
	}
	return rep.err()
}

func (r *Remote) AfterConnect(ctx context.Context, identity string) error {
	rep, err := r.call(ctx, request{Op: opAfterConnect, Identity: identity})
	if err != nil {
		return err
	}
	return rep.err()
}

func (r *Remote) SubmitMove(ctx context.Context, identity string, move game.Move) error {
	rep, err := r.call(ctx, request{
		Op:              opSubmitMove,
		Identity:        identity,
		ResultingNumber: move.ResultingNumber,
		Added:           move.Added,
	})
	if err != nil {
		return err
	}
	return rep.err()
}

// Disconnect waits for the owner to drop identity, so the caller can release
// local resources only after the seat is gone.
func (r *Remote) Disconnect(ctx context.Context, identity string) {
	if _, err := r.call(ctx, request{Op: opDisconnect, Identity: identity}); err != nil {
		r.logger.Warn("Could not forward disconnect", "user", identity, "error", err)
	}
}

func (r *Remote) IsFirstToPlay(identity string) (bool, error) {
	rep, err := r.call(context.Background(), request{Op: opIsFirstToPlay, Identity: identity})
	if err != nil {
		return false, err
	}
	if err := rep.err(); err != nil {
		return false, err
	}
	return rep.First, nil
}

// Snapshot returns an empty snapshot when the owner cannot be reached.
func (r *Remote) Snapshot() game.Snapshot {
	rep, err := r.call(context.Background(), request{Op: opSnapshot})
	if err != nil || rep.Snapshot == nil {
		r.logger.Warn("Could not fetch session snapshot", "error", err)
		return game.Snapshot{}
	}
	return *rep.Snapshot
}
