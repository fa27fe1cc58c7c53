// Package sqlite provides the public API for the SQLite mention ledger.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/mentions/internal/sqlite"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// NewBackend creates a new SQLite ledger instance.
// The ledger is not attached; call Attach with a LedgerConfig to initialize.
//
// Example:
//
//	ledger := sqlite.NewBackend()
//	err := ledger.Attach(types.LedgerConfig{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".mentions-db",
//	})
//	defer ledger.Detach()
func NewBackend() types.Ledger {
	return sqlite.NewBackend()
}
