// Package snapshot keeps the most recently published face state for clients
// that poll instead of streaming.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transient fields removed by ClearPlayed once a client has played them.
var playedFields = []string{"subtitle", "audioFile"}

// State is a published face state. Its shape is owned by the publisher.
type State map[string]any

// Store persists a single State.
type Store interface {
	Save(ctx context.Context, s State) error
	// Load returns an empty State when nothing has been saved.
	Load(ctx context.Context) (State, error)
	// ClearPlayed removes subtitle and audio references, keeping the rest.
	ClearPlayed(ctx context.Context) error
}

func decode(data []byte) (State, error) {
	s := State{}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

func clearPlayed(s State) {
	for _, f := range playedFields {
		delete(s, f)
	}
}
