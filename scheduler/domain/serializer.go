package domain

import "encoding/json"

// Serialize DriverState to a byte slice for the persistence engine. An error
// is returned if the state cannot be encoded.
func (s *DriverState) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// DeserializeDriverState decodes a byte slice produced by Serialize.
func DeserializeDriverState(input []byte) (*DriverState, error) {
	state := &DriverState{}
	if err := json.Unmarshal(input, state); err != nil {
		return nil, err
	}
	return state, nil
}
