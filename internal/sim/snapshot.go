package sim

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes the complete state, network weights and pending
// ledgers included, into a msgpack snapshot.
func (s *State) Encode() ([]byte, error) {
	raw, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return raw, nil
}

// DecodeState restores a state from a snapshot produced by Encode.
func DecodeState(raw []byte) (*State, error) {
	s := &State{}
	if err := msgpack.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return s, nil
}
