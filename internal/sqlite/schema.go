package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL for the ledger tables. seq preserves commit order, which is
// the iteration order of snapshots.
const (
	createMetadata = `CREATE TABLE metadata (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    hash TEXT NOT NULL UNIQUE,
    token_key TEXT NOT NULL DEFAULT '',
    data_key TEXT NOT NULL DEFAULT '',
    meta_contract_id TEXT NOT NULL DEFAULT '',
    token_id TEXT NOT NULL DEFAULT '',
    alias TEXT NOT NULL DEFAULT '',
    cid TEXT NOT NULL,
    public_key TEXT NOT NULL DEFAULT '',
    version TEXT NOT NULL DEFAULT '',
    loose INTEGER NOT NULL DEFAULT 0
);`

	createBlocks = `CREATE TABLE blocks (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    cid TEXT NOT NULL UNIQUE,
    body TEXT NOT NULL
);`
)

// Index DDL.
const (
	indexMetadataDataKey = `CREATE INDEX idx_metadata_data_key ON metadata (data_key);`
	indexMetadataVersion = `CREATE INDEX idx_metadata_version ON metadata (version);`
	indexMetadataOwner   = `CREATE INDEX idx_metadata_contract ON metadata (meta_contract_id, alias);`
)

// schemaStatements lists DDL in execution order.
var schemaStatements = []string{
	createMetadata,
	createBlocks,
	indexMetadataDataKey,
	indexMetadataVersion,
	indexMetadataOwner,
}

// metadataColumns are the persisted record columns, in JSONL and SELECT order.
var metadataColumns = []string{
	"hash", "token_key", "data_key", "meta_contract_id", "token_id",
	"alias", "cid", "public_key", "version", "loose",
}

// createSchema executes all DDL against db.
func createSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
