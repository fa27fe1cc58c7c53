package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mentions/internal/authority"
	"github.com/mesh-intelligence/mentions/internal/mention"
	"github.com/mesh-intelligence/mentions/internal/sqlite"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// newNode attaches a ledger and serves it with an executor built from cfg.
func newNode(t *testing.T, cfg types.Config, auth mention.OwnerLookup) (*httptest.Server, *sqlite.Backend) {
	t.Helper()
	ledger := sqlite.NewBackend()
	require.NoError(t, ledger.Attach(types.LedgerConfig{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { ledger.Detach() })

	exec, err := mention.NewExecutor(cfg, ledger, auth, mention.WithClock(func() time.Time { return time.UnixMilli(99) }))
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(exec, ledger, nil))
	t.Cleanup(srv.Close)
	return srv, ledger
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func execute(t *testing.T, srv *httptest.Server, pub, data string) types.TransitionResult {
	t.Helper()
	resp := postJSON(t, srv.URL+"/execute", ExecuteRequest{
		Contract: types.MetaContract{MetaContractID: "0xcontract"},
		Transaction: types.Transaction{
			DataKey:   "subject-1",
			PublicKey: pub,
			Data:      data,
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res types.TransitionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealth(t *testing.T) {
	srv, _ := newNode(t, types.DefaultConfig(), nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestExecute_CommitsOnSuccess(t *testing.T) {
	srv, ledger := newNode(t, types.DefaultConfig(), nil)

	res := execute(t, srv, "0xa", `{"cid":"bafy1","owner":"0xa"}`)
	require.True(t, res.Success, res.Error)

	snapshot, err := ledger.Snapshot(context.Background(), "subject-1")
	require.NoError(t, err)
	require.Len(t, snapshot, 3)
	assert.Equal(t, types.AliasMentions, snapshot[2].Alias)
	assert.Equal(t, "0xcontract", snapshot[2].MetaContractID, "contract id taken from the request contract")

	block, err := ledger.Get(context.Background(), snapshot[2].CID, "", 0)
	require.NoError(t, err)
	var tx types.Transaction
	require.NoError(t, json.Unmarshal(block.Transaction, &tx))
	assert.NotEmpty(t, tx.Hash, "a hash is generated when the caller sends none")
}

func TestExecute_RejectedIsNotCommitted(t *testing.T) {
	srv, ledger := newNode(t, types.DefaultConfig(), nil)

	require.True(t, execute(t, srv, "0xa", `{"cid":"bafy1","owner":"0xa"}`).Success)

	res := execute(t, srv, "0xb", `{"cid":"bafy1","owner":"0xb"}`)
	assert.False(t, res.Success)
	assert.Equal(t, types.ReasonNotOwner, res.Error)
	assert.NotNil(t, res.Mutations)
	assert.Empty(t, res.Mutations)

	all, err := ledger.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExecute_BadBody(t *testing.T) {
	srv, _ := newNode(t, types.DefaultConfig(), nil)

	resp, err := http.Post(srv.URL+"/execute", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRPC_SearchMetadatas(t *testing.T) {
	srv, _ := newNode(t, types.DefaultConfig(), nil)
	require.True(t, execute(t, srv, "0xa", `{"cid":"bafy1","owner":"0xa"}`).Success)

	resp := postJSON(t, srv.URL+"/rpc", authority.NewSearchRequest(map[string]string{
		"data_key":         "subject-1",
		"meta_contract_id": "0xcontract",
	}))
	var out authority.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Equal(t, authority.Version, out.JSONRPC)
	assert.Equal(t, authority.RequestID, out.ID)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.Success)
	require.Len(t, out.Result.Metadatas, 1)
	assert.Equal(t, "0xa", out.Result.Metadatas[0].PublicKey)
}

func TestRPC_Errors(t *testing.T) {
	srv, _ := newNode(t, types.DefaultConfig(), nil)

	t.Run("unknown method", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/rpc", authority.Request{JSONRPC: authority.Version, Method: "get_block", ID: "7"})
		var out authority.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.NotNil(t, out.Error)
		assert.Equal(t, codeMethodNotFound, out.Error.Code)
		assert.Equal(t, "7", out.ID)
	})

	t.Run("parse error", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/rpc", "application/json", bytes.NewBufferString("not json"))
		require.NoError(t, err)
		defer resp.Body.Close()
		var out authority.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.NotNil(t, out.Error)
		assert.Equal(t, codeParseError, out.Error.Code)
	})

	t.Run("invalid filter column", func(t *testing.T) {
		req := authority.NewSearchRequest(map[string]string{"nope": "x"})
		resp := postJSON(t, srv.URL+"/rpc", req)
		var out authority.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.NotNil(t, out.Result)
		assert.False(t, out.Result.Success)
		assert.NotEmpty(t, out.Result.ErrMsg)
	})
}

// TestEscalation_AgainstRemoteNode points one node's authority client at
// another node's /rpc endpoint.
func TestEscalation_AgainstRemoteNode(t *testing.T) {
	authSrv, authLedger := newNode(t, types.DefaultConfig(), nil)
	_, err := authLedger.Commit(context.Background(),
		types.Transaction{DataKey: "subject-1", PublicKey: "0xb"},
		[]types.MetadataMutation{{PublicKey: types.DefaultAuthorityContractID, Alias: "owner", Content: "0xb"}},
	)
	require.NoError(t, err)

	cfg := types.DefaultConfig()
	cfg.Policy = types.EscalateToAuthority
	cfg.AuthorityEndpoint = authSrv.URL + "/rpc"
	client := authority.NewClient(nil, cfg)
	srv, _ := newNode(t, cfg, client)

	require.True(t, execute(t, srv, "0xa", `{"cid":"bafy1","owner":"0xa"}`).Success)

	// 0xb is the authority's owner of subject-1, so the overwrite is allowed.
	res := execute(t, srv, "0xb", `{"cid":"bafy1","mentionable":false,"owner":"0xb"}`)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Mutations, 1)
	m, err := types.DecodeMentionMap([]byte(res.Mutations[0].Content))
	require.NoError(t, err)
	assert.Equal(t, types.FinalMention{Timestamp: 99, Mentionable: false, Owner: "0xb"}, m["bafy1"])

	// 0xc is neither the prior owner nor the authority's owner: prior kept.
	res = execute(t, srv, "0xc", `{"cid":"bafy1","owner":"0xc"}`)
	require.True(t, res.Success, res.Error)
	m, err = types.DecodeMentionMap([]byte(res.Mutations[0].Content))
	require.NoError(t, err)
	assert.Equal(t, "0xb", m["bafy1"].Owner)
}
