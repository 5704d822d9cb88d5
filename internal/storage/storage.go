// Package storage is the durable key-value layer behind the session history.
//
// An Adapter is scoped to one profile: two profiles never see each other's
// keys, the same way two browser profiles never share local storage.
package storage

import (
	"errors"
	"fmt"
)

const (
	// HistoryKey holds the serialized session array.
	HistoryKey = "chatHistory"
	// LocationKey holds the last navigated location.
	LocationKey = "location"

	// DefaultQuota mirrors the per-origin limit browsers put on local storage.
	DefaultQuota = 5 << 20
)

var (
	ErrStorage       = errors.New("storage error")
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrStorage)
	ErrClosed        = fmt.Errorf("%w: adapter closed", ErrStorage)
)

type Adapter interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

func checkQuota(quota int, key string, value []byte) error {
	if quota > 0 && len(value) > quota {
		return fmt.Errorf("set %s (%d bytes > %d): %w", key, len(value), quota, ErrQuotaExceeded)
	}
	return nil
}
