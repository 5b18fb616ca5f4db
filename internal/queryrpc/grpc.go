package queryrpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cheildo/game-of-three/internal/game"
)

var _ QueryServer = (*GRPCHandler)(nil)

// FirstPlayerChecker is the registry query the handler needs.
type FirstPlayerChecker interface {
	IsFirstToPlay(identity string) (bool, error)
}

// GRPCHandler implements QueryServer on top of the game registry.
type GRPCHandler struct {
	logger  *slog.Logger
	checker FirstPlayerChecker
}

func NewGRPCHandler(logger *slog.Logger, checker FirstPlayerChecker) *GRPCHandler {
	return &GRPCHandler{
		logger:  logger.WithGroup("grpc"),
		checker: checker,
	}
}

// IsFirstToPlay handles the incoming gRPC first-player query.
func (h *GRPCHandler) IsFirstToPlay(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	h.logger.Debug("gRPC IsFirstToPlay request received", "user", req.GetValue())

	first, err := h.checker.IsFirstToPlay(req.GetValue())
	if err != nil {
		if errors.Is(err, game.ErrParameterMissing) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		h.logger.Error("First player query failed", "error", err)
		return nil, status.Error(codes.Internal, "an unexpected error occurred")
	}

	return wrapperspb.Bool(first), nil
}
