package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/cheildo/game-of-three/internal/game"
)

// decodeMove reads a move payload. Each field must be absent, null or a JSON
// integer.
func decodeMove(payload json.RawMessage) (game.Move, error) {
	if len(payload) == 0 {
		return game.Move{}, nil
	}

	var fields struct {
		ResultingNumber json.RawMessage `json:"resultingNumber"`
		Added           json.RawMessage `json:"added"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return game.Move{}, game.MalformedMessage()
	}

	var move game.Move
	var err error
	if move.ResultingNumber, err = decodeInt(fields.ResultingNumber); err != nil {
		return game.Move{}, game.ResultingNumberNotInteger(string(fields.ResultingNumber))
	}
	if move.Added, err = decodeInt(fields.Added); err != nil {
		return game.Move{}, game.AddedNotInteger(string(fields.Added))
	}
	return move, nil
}

func decodeInt(raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
