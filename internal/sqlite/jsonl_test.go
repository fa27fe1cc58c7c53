// Tests for JSONL persistence in the SQLite ledger.
package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

func TestJSONLFilesInitializedEmpty(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(types.LedgerConfig{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b.Detach()

	for _, name := range []string{metadataJSONL, blocksJSONL} {
		info, err := os.Stat(filepath.Join(tmpDir, name))
		require.NoError(t, err)
		assert.Zero(t, info.Size(), "%s should start empty", name)
	}
}

func TestJSONLExistingFilesPreserved(t *testing.T) {
	tmpDir := t.TempDir()
	existing := `{"hash":"h-1","data_key":"d","cid":"sha256-a"}` + "\n"
	path := filepath.Join(tmpDir, metadataJSONL)
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.LedgerConfig{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b.Detach()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, string(content))
}

func TestJSONLWrittenOnCommit(t *testing.T) {
	b := attachTemp(t)
	ctx := context.Background()

	records, err := b.Commit(ctx, sampleTx(), []types.MetadataMutation{
		{PublicKey: "0xcontract", Alias: types.AliasMentions, Content: `{}`, Version: "subject-1"},
	})
	require.NoError(t, err)

	metaLines, err := readJSONL(filepath.Join(b.DataDir(), metadataJSONL))
	require.NoError(t, err)
	require.Len(t, metaLines, 1)

	var rec types.MetadataRecord
	require.NoError(t, json.Unmarshal(metaLines[0], &rec))
	assert.Equal(t, records[0], rec)

	blockLines, err := readJSONL(filepath.Join(b.DataDir(), blocksJSONL))
	require.NoError(t, err)
	require.Len(t, blockLines, 1)

	var line blockLine
	require.NoError(t, json.Unmarshal(blockLines[0], &line))
	assert.Equal(t, records[0].CID, line.CID)
	assert.Equal(t, BlockCID(line.Body), line.CID, "the block line round-trips its identifier")
}

func TestWriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	require.NoError(t, writeJSONL(path, []json.RawMessage{
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`{"b":2}`),
	}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file %s left behind", e.Name())
	}
}

func TestReadJSONLSkipsBlankAndMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n\n{oops\n[1,2]\n"), 0o644))

	lines, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"a":1}`, string(lines[0]))
	assert.JSONEq(t, `[1,2]`, string(lines[1]))
}
