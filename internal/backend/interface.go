// Package backend selects and constructs the data source the pages run
// against: the remote HamsterWallet API, a local sqlite database, or the
// in-memory demo store.
package backend

import (
	"context"

	"hamsterwallet/internal/upstream"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result carries the constructed backend and its optional cleanup.
type Result struct {
	Backend upstream.Backend
	Cleanup CleanupFunc
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds everything any backend type might need; validation enforces
// the fields the chosen type actually requires.
type Config struct {
	Type Type

	// remote
	APIBaseURL string

	// sqlite
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type selects the backend implementation.
type Type string

const (
	RemoteBackend Type = "remote"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case RemoteBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
