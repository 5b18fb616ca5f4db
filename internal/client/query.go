package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cheildo/game-of-three/internal/protocol"
)

// FirstPlayerQuerier asks the server whether an identity plays first.
type FirstPlayerQuerier interface {
	IsFirstToPlay(ctx context.Context, identity string) (bool, error)
}

// HTTPQuery queries GET /game/first-player.
type HTTPQuery struct {
	baseURL string
	client  *http.Client
}

func NewHTTPQuery(baseURL string) *HTTPQuery {
	return &HTTPQuery{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (q *HTTPQuery) IsFirstToPlay(ctx context.Context, identity string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+"/game/first-player", nil)
	if err != nil {
		return false, fmt.Errorf("could not build first player request: %w", err)
	}
	req.Header.Set(protocol.HeaderSocketUserName, identity)

	resp, err := q.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("could not query first player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e protocol.ErrorEvent
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.ErrorCode != "" {
			return false, fmt.Errorf("first player query rejected: %s: %s", e.ErrorCode, e.ErrorMessage)
		}
		return false, fmt.Errorf("first player query failed with status %d", resp.StatusCode)
	}

	var body protocol.FirstToPlayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("could not decode first player response: %w", err)
	}
	return body.IsFirstToPlay, nil
}
