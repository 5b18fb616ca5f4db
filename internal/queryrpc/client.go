package queryrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls GameQueryService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to addr. The connection is established
// lazily on the first call.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not create grpc client for %s: %w", addr, err)
	}
	return conn, nil
}

// IsFirstToPlay asks whether identity holds the first slot.
func (c *Client) IsFirstToPlay(ctx context.Context, identity string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, isFirstToPlayMethod, wrapperspb.String(identity), out); err != nil {
		return false, fmt.Errorf("could not query first player: %w", err)
	}
	return out.GetValue(), nil
}
