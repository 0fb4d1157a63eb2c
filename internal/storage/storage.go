// Package storage provides the durable key-value medium behind the
// conversation store. All backends are capacity-bounded: Set reports
// ErrQuotaExceeded when a value would overflow the configured budget,
// mirroring the quota behaviour of browser local storage.
package storage

import "errors"

var (
	// ErrNotFound is returned by Get for absent keys.
	ErrNotFound = errors.New("storage: key not found")

	// ErrQuotaExceeded is returned by Set when the write would exceed
	// the capacity budget.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// KV exposes the minimal durable medium contract.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}
