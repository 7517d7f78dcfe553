package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

// SlotStore is a durable key-value store where each value is written whole.
type SlotStore interface {
	GetSlot(ctx context.Context, key string) (string, error)
	PutSlot(ctx context.Context, key, value string) error
	DeleteSlot(ctx context.Context, key string) error
}
