package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// cidPrefix marks identifiers minted by the local ledger.
const cidPrefix = "sha256-"

// BlockCID derives the content identifier of an encoded block.
func BlockCID(body []byte) string {
	sum := sha256.Sum256(body)
	return cidPrefix + hex.EncodeToString(sum[:])
}

// selectMetadata is the column list shared by record queries.
var selectMetadata = "SELECT " + strings.Join(metadataColumns, ", ") + " FROM metadata"

// Snapshot returns every record filed for dataKey in commit order. The
// slice is a copy the caller owns.
func (b *Backend) Snapshot(ctx context.Context, dataKey string) ([]types.MetadataRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrLedgerDetached
	}

	rows, err := b.db.QueryContext(ctx, selectMetadata+" WHERE data_key = ? ORDER BY seq ASC", dataKey)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return scanRecords(rows)
}

// Commit files mutations produced by tx. Each mutation's content is wrapped
// in a block that links to the previous block for the same contract, alias,
// subject and version; the record is filed under the mutation's contract
// and authored by tx.PublicKey. Records are returned in mutation order.
func (b *Backend) Commit(ctx context.Context, tx types.Transaction, mutations []types.MetadataMutation) ([]types.MetadataRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrLedgerDetached
	}

	txJSON, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}

	dbtx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning commit: %w", err)
	}
	defer dbtx.Rollback()

	now := uint64(b.now().UnixMilli())
	records := make([]types.MetadataRecord, 0, len(mutations))
	for _, m := range mutations {
		previous, err := previousCID(ctx, dbtx, m.PublicKey, m.Alias, tx.DataKey, m.Version)
		if err != nil {
			return nil, err
		}

		body, err := json.Marshal(types.StoredBlock{
			Timestamp:   now,
			Content:     contentJSON(m.Alias, m.Content),
			Previous:    previous,
			Transaction: txJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal block: %w", err)
		}
		cid := BlockCID(body)

		if _, err := dbtx.ExecContext(ctx, "INSERT OR IGNORE INTO blocks (cid, body) VALUES (?, ?)", cid, string(body)); err != nil {
			return nil, fmt.Errorf("insert block: %w", err)
		}

		rec := types.MetadataRecord{
			Hash:           generateHash(),
			TokenKey:       tx.TokenKey,
			DataKey:        tx.DataKey,
			MetaContractID: m.PublicKey,
			TokenID:        tx.TokenID,
			Alias:          m.Alias,
			CID:            cid,
			PublicKey:      tx.PublicKey,
			Version:        m.Version,
			Loose:          m.Loose,
		}
		if _, err := dbtx.ExecContext(ctx,
			"INSERT INTO metadata ("+strings.Join(metadataColumns, ", ")+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			rec.Hash, rec.TokenKey, rec.DataKey, rec.MetaContractID, rec.TokenID,
			rec.Alias, rec.CID, rec.PublicKey, rec.Version, rec.Loose,
		); err != nil {
			return nil, fmt.Errorf("insert metadata: %w", err)
		}
		records = append(records, rec)
	}

	// JSONL is written from inside the transaction so a failed write
	// leaves the database untouched.
	if err := b.persistLocked(ctx, dbtx); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("committing mutations: %w", err)
	}
	return records, nil
}

// Get resolves cid to the block stored in the ledger. It satisfies the
// mention executor's BlockGetter; address and timeout are ignored.
func (b *Backend) Get(ctx context.Context, cid, address string, timeout time.Duration) (types.StoredBlock, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.StoredBlock{}, types.NewTransitionError(types.KindStoreUnavailable, types.ReasonStoreUnavailable, types.ErrLedgerDetached)
	}

	var body string
	err := b.db.QueryRowContext(ctx, "SELECT body FROM blocks WHERE cid = ?", cid).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredBlock{}, types.NewTransitionError(types.KindStoreUnavailable, types.ReasonStoreUnavailable, fmt.Errorf("block %s: %w", cid, types.ErrNotFound))
	}
	if err != nil {
		return types.StoredBlock{}, types.NewTransitionError(types.KindStoreUnavailable, types.ReasonStoreUnavailable, err)
	}

	var block types.StoredBlock
	if err := json.Unmarshal([]byte(body), &block); err != nil {
		return types.StoredBlock{}, types.NewTransitionError(types.KindMalformedBlock, types.ReasonMalformedBlock, err)
	}
	return block, nil
}

// Records returns every committed record in commit order.
func (b *Backend) Records(ctx context.Context) ([]types.MetadataRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrLedgerDetached
	}

	rows, err := b.db.QueryContext(ctx, selectMetadata+" ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return scanRecords(rows)
}

// previousCID returns the CID of the latest matching record as a JSON
// string, or JSON null when there is none.
func previousCID(ctx context.Context, tx *sql.Tx, contract, alias, dataKey, version string) (json.RawMessage, error) {
	var cid string
	err := tx.QueryRowContext(ctx,
		"SELECT cid FROM metadata WHERE meta_contract_id = ? AND alias = ? AND data_key = ? AND version = ? ORDER BY seq DESC LIMIT 1",
		contract, alias, dataKey, version,
	).Scan(&cid)
	if errors.Is(err, sql.ErrNoRows) {
		return json.RawMessage("null"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query previous block: %w", err)
	}
	b, err := json.Marshal(cid)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// structuredAliases are the aliases whose content is encoded JSON and is
// embedded in the block as-is. Every other alias is stored as a string.
var structuredAliases = map[string]bool{
	types.AliasMentions: true,
	types.AliasToken:    true,
}

// contentJSON embeds content as-is for structured aliases and as a JSON
// string otherwise, or when it does not parse.
func contentJSON(alias, content string) json.RawMessage {
	if structuredAliases[alias] && json.Valid([]byte(content)) {
		return json.RawMessage(content)
	}
	b, _ := json.Marshal(content)
	return b
}

func scanRecords(rows *sql.Rows) ([]types.MetadataRecord, error) {
	defer rows.Close()

	records := []types.MetadataRecord{}
	for rows.Next() {
		var r types.MetadataRecord
		if err := rows.Scan(&r.Hash, &r.TokenKey, &r.DataKey, &r.MetaContractID, &r.TokenID,
			&r.Alias, &r.CID, &r.PublicKey, &r.Version, &r.Loose); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metadata: %w", err)
	}
	return records, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// persistLocked rewrites both JSONL files from q. Blocks are written first
// so metadata never references a block missing from disk.
// The caller must hold b.mu.
func (b *Backend) persistLocked(ctx context.Context, q queryer) error {
	blockRows, err := q.QueryContext(ctx, "SELECT cid, body FROM blocks ORDER BY seq ASC")
	if err != nil {
		return fmt.Errorf("query blocks: %w", err)
	}
	var blocks []blockLine
	for blockRows.Next() {
		var cid, body string
		if err := blockRows.Scan(&cid, &body); err != nil {
			blockRows.Close()
			return fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, blockLine{CID: cid, Body: json.RawMessage(body)})
	}
	err = blockRows.Err()
	blockRows.Close()
	if err != nil {
		return fmt.Errorf("iterating blocks: %w", err)
	}
	blockLines, err := encodeLines(blocks)
	if err != nil {
		return fmt.Errorf("encode blocks: %w", err)
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, blocksJSONL), blockLines); err != nil {
		return fmt.Errorf("persisting %s: %w", blocksJSONL, err)
	}

	rows, err := q.QueryContext(ctx, selectMetadata+" ORDER BY seq ASC")
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return err
	}
	lines, err := encodeLines(records)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, metadataJSONL), lines); err != nil {
		return fmt.Errorf("persisting %s: %w", metadataJSONL, err)
	}
	return nil
}
