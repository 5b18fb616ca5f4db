// Package relay lets several game server instances share one live session
// through Redis.
//
// One instance holds the owner lease and runs the only Registry. Every
// instance forwards matchmaker commands to it through a Remote, and the
// owner's frames travel back over per-user channels to whichever instance
// hosts the participant's socket.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cheildo/game-of-three/internal/gateway"
	"github.com/cheildo/game-of-three/internal/protocol"
)

const publishTimeout = 2 * time.Second

var _ gateway.Sink = (*Publisher)(nil)

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type subscriber interface {
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// pubSub is what the command relay needs from *redis.Client.
type pubSub interface {
	publisher
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Channel is the pub/sub channel carrying frames for identity.
func Channel(prefix, identity string) string {
	return userPrefix(prefix) + identity
}

func userPrefix(prefix string) string {
	return prefix + ":user:"
}

func commandChannel(prefix string) string {
	return prefix + ":commands"
}

func replyChannel(prefix, instance string) string {
	return prefix + ":reply:" + instance
}

// listen waits for the subscription to be confirmed, so nothing published
// afterwards is missed.
func listen(ctx context.Context, pubsub *redis.PubSub) (<-chan *redis.Message, error) {
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("could not subscribe: %w", err)
	}
	return pubsub.Channel(), nil
}

// Publisher is a gateway.Sink that publishes frames instead of writing them
// to a local socket.
type Publisher struct {
	logger *slog.Logger
	client publisher
	prefix string
}

func NewPublisher(logger *slog.Logger, client publisher, prefix string) *Publisher {
	return &Publisher{
		logger: logger.WithGroup("relay"),
		client: client,
		prefix: prefix,
	}
}

// Deliver publishes frame on the channel of identity. It reports false when
// the publish failed or no gateway is listening.
func (p *Publisher) Deliver(identity string, frame protocol.Frame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		p.logger.Error("Could not encode frame", "user", identity, "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	receivers, err := p.client.Publish(ctx, Channel(p.prefix, identity), data).Result()
	if err != nil {
		p.logger.Warn("Could not publish frame", "user", identity, "error", err)
		return false
	}
	return receivers > 0
}

// Subscriber forwards relayed frames to the sockets hosted by this instance.
type Subscriber struct {
	logger *slog.Logger
	client subscriber
	prefix string
	sink   gateway.Sink
	ready  chan struct{}
}

func NewSubscriber(logger *slog.Logger, client subscriber, prefix string, sink gateway.Sink) *Subscriber {
	return &Subscriber{
		logger: logger.WithGroup("relay"),
		client: client,
		prefix: prefix,
		sink:   sink,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the subscription is active.
func (s *Subscriber) Ready() <-chan struct{} {
	return s.ready
}

// Run starts the subscription loop. It should be run in a goroutine and
// returns when ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	pattern := userPrefix(s.prefix) + "*"
	pubsub := s.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	messages, err := listen(ctx, pubsub)
	if err != nil {
		s.logger.Error("Redis relay subscriber failed", "pattern", pattern, "error", err)
		return
	}
	close(s.ready)

	s.logger.Info("Redis relay subscriber started", "pattern", pattern)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Redis relay subscriber stopped")
			return
		case msg, ok := <-messages:
			if !ok {
				s.logger.Warn("Redis relay subscription closed")
				return
			}
			s.handle(msg)
		}
	}
}

func (s *Subscriber) handle(msg *redis.Message) {
	identity, ok := strings.CutPrefix(msg.Channel, userPrefix(s.prefix))
	if !ok || identity == "" {
		s.logger.Warn("Unexpected relay channel", "channel", msg.Channel)
		return
	}

	var frame protocol.Frame
	if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
		s.logger.Error("Failed to unmarshal relayed frame", "user", identity, "error", err)
		return
	}

	// Every instance sees every frame; only the one hosting identity delivers.
	if !s.sink.Deliver(identity, frame) {
		s.logger.Debug("Relayed frame not delivered here", "user", identity, "destination", frame.Destination)
	}
}
