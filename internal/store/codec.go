// ABOUTME: JSON codec over the KV interface
// ABOUTME: Load/Save/Mutate decode collections with a default for absent keys

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var jsonNull = []byte("null")

// Load decodes the value under key into a T. An absent key, or a stored
// JSON null, yields def.
func Load[T any](ctx context.Context, kv KV, key string, def T) (T, error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("reading %s: %w", key, err)
	}
	return decode(key, data, def)
}

// Save encodes value and stores it under key, replacing any previous value.
func Save[T any](ctx context.Context, kv KV, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Mutate decodes the value under key, hands it to fn and stores what fn
// returns, all inside one KV transaction. If fn fails the stored value is
// left untouched and fn's error is returned as is.
func Mutate[T any](ctx context.Context, kv KV, key string, def T, fn func(T) (T, error)) error {
	return kv.Update(ctx, key, func(current []byte) ([]byte, error) {
		value := def
		if current != nil {
			var err error
			value, err = decode(key, current, def)
			if err != nil {
				return nil, err
			}
		}

		next, err := fn(value)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		return data, nil
	})
}

func decode[T any](key string, data []byte, def T) (T, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return def, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return def, fmt.Errorf("decoding %s: %w", key, err)
	}
	return out, nil
}
