package types

import (
	"context"
	"errors"
	"time"
)

// Ledger stores committed metadata records and the blocks their CIDs
// resolve to. Callers attach to a backend, read snapshots, commit the
// mutations of successful transitions, and detach when done.
type Ledger interface {
	// Attach connects the Ledger to the backend described by config.
	// Creates the DataDir if it does not exist; returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config LedgerConfig) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrLedgerDetached.
	Detach() error

	// Snapshot returns the records filed for dataKey in commit order.
	Snapshot(ctx context.Context, dataKey string) ([]MetadataRecord, error)

	// Commit files the mutations produced by tx and returns the new records.
	Commit(ctx context.Context, tx Transaction, mutations []MetadataMutation) ([]MetadataRecord, error)

	// Get resolves cid to its stored block. address and timeout are accepted
	// so a Ledger can stand in for the remote content store.
	Get(ctx context.Context, cid, address string, timeout time.Duration) (StoredBlock, error)

	// Records returns every committed record in commit order.
	Records(ctx context.Context) ([]MetadataRecord, error)
}

// LedgerConfig selects and parameterizes the local ledger backend.
type LedgerConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported ledger backend names.
const (
	BackendSQLite = "sqlite"
)

// Ledger config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the LedgerConfig is well-formed.
func (c LedgerConfig) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}
