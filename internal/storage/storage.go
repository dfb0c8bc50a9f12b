// Package storage persists named JSON documents. Readers never see an
// error: a missing or unreadable document yields the caller's fallback.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

const (
	KeyProducts = "products"
	KeyOrders   = "orders"
)

var ErrNotFound = errors.New("document not found")

// Backend is a durable key/value medium. Get returns ErrNotFound for a
// key that was never written.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

func Load[T any](ctx context.Context, b Backend, key string, fallback T) T {
	data, err := b.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.WarnContext(ctx, "failed to read document, using fallback", "key", key, "error", err)
		}
		return fallback
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		slog.WarnContext(ctx, "failed to decode document, using fallback", "key", key, "error", err)
		return fallback
	}

	return value
}

func Save[T any](ctx context.Context, b Backend, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := b.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}
