package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/cheildo/game-of-three/internal/gateway"
)

// Matchmaker is the full registry surface: what the websocket handler drives
// and what the queries read.
type Matchmaker interface {
	gateway.Matchmaker
	gateway.Querier
}

type owner interface {
	Held() bool
}

// Server applies forwarded commands to the registry while this instance
// holds the lease. Every time ownership is gained it starts from a fresh
// registry, so state left from an earlier term never resurfaces.
type Server struct {
	logger      *slog.Logger
	client      pubSub
	prefix      string
	lease       owner
	newRegistry func() Matchmaker

	registry Matchmaker
	ready    chan struct{}
}

func NewServer(logger *slog.Logger, client pubSub, prefix string, lease owner, newRegistry func() Matchmaker) *Server {
	return &Server{
		logger:      logger.WithGroup("relay_server"),
		client:      client,
		prefix:      prefix,
		lease:       lease,
		newRegistry: newRegistry,
		ready:       make(chan struct{}),
	}
}

// Ready is closed once the command subscription is active.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Run consumes commands until ctx is cancelled. Commands are applied one at a
// time in arrival order.
func (s *Server) Run(ctx context.Context) {
	pubsub := s.client.Subscribe(ctx, commandChannel(s.prefix))
	defer pubsub.Close()

	messages, err := listen(ctx, pubsub)
	if err != nil {
		s.logger.Error("Command subscription failed", "error", err)
		return
	}
	close(s.ready)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				s.logger.Warn("Command subscription closed")
				return
			}
			s.handle(ctx, msg)
		}
	}
}

func (s *Server) handle(ctx context.Context, msg *redis.Message) {
	if !s.lease.Held() {
		s.registry = nil
		return
	}
	if s.registry == nil {
		s.registry = s.newRegistry()
		s.logger.Info("Serving the live session")
	}

	var req request
	if err := json.Unmarshal([]byte(msg.Payload), &req); err != nil {
		s.logger.Error("Failed to unmarshal command", "error", err)
		return
	}

	rep := s.apply(ctx, req)
	data, err := json.Marshal(rep)
	if err != nil {
		s.logger.Error("Failed to marshal reply", "id", req.ID, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.client.Publish(pubCtx, req.ReplyTo, data).Err(); err != nil {
		s.logger.Warn("Could not publish reply", "id", req.ID, "reply_to", req.ReplyTo, "error", err)
	}
}

func (s *Server) apply(ctx context.Context, req request) reply {
	var err error
	rep := reply{ID: req.ID}

	switch req.Op {
	case opConnect:
		err = s.registry.Connect(ctx, req.Identity)
	case opAfterConnect:
		err = s.registry.AfterConnect(ctx, req.Identity)
	case opSubmitMove:
		err = s.registry.SubmitMove(ctx, req.Identity, req.move())
	case opDisconnect:
		s.registry.Disconnect(ctx, req.Identity)
	case opIsFirstToPlay:
		rep.First, err = s.registry.IsFirstToPlay(req.Identity)
	case opSnapshot:
		snap := s.registry.Snapshot()
		rep.Snapshot = &snap
	default:
		s.logger.Warn("Unknown command", "op", req.Op)
		return failed(req.ID, errUnknownOp)
	}

	if err != nil {
		return failed(req.ID, err)
	}
	return rep
}
