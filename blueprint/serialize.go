package blueprint

import "encoding/json"

// Marshal serialises a Blueprint to JSON.
func Marshal(b *Blueprint) ([]byte, error) {
	return json.Marshal(b)
}

// MarshalIndent serialises a Blueprint to indented JSON for humans.
func MarshalIndent(b *Blueprint) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Unmarshal deserialises a Blueprint from JSON.
func Unmarshal(data []byte) (*Blueprint, error) {
	var b Blueprint
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
