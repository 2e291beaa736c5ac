package cache

import "encoding/json"

// GetJSON reads and decodes a JSON value. An undecodable entry counts as a
// miss.
func GetJSON[T any](c Cache, key string) (T, bool) {
	var zero T
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

// SetJSON encodes v as JSON and stores it.
func SetJSON[T any](c Cache, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Set(key, raw)
	return nil
}
