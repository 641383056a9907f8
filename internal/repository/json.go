package repository

import (
	"bytes"
	"encoding/json"
)

// jsonArray encodes a slice for a jsonb column, writing nil as [].
func jsonArray(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(b, []byte("null")) {
		return []byte("[]"), nil
	}
	return b, nil
}
