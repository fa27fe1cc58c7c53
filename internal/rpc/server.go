// Package rpc exposes the mention executor and the local ledger over HTTP:
// transitions are applied with POST /execute and other nodes resolve
// ownership through the JSON-RPC search_metadatas method on POST /rpc.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/mentions/internal/authority"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Transitioner applies one transaction against a snapshot.
type Transitioner interface {
	OnExecute(ctx context.Context, contract types.MetaContract, snapshot []types.MetadataRecord, tx types.Transaction) types.TransitionResult
}

// Ledger is the slice of the local ledger the server needs.
type Ledger interface {
	Snapshot(ctx context.Context, dataKey string) ([]types.MetadataRecord, error)
	Commit(ctx context.Context, tx types.Transaction, mutations []types.MetadataMutation) ([]types.MetadataRecord, error)
	SearchMetadatas(ctx context.Context, f authority.Filter) ([]types.MetadataRecord, error)
}

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Contract    types.MetaContract `json:"contract"`
	Transaction types.Transaction  `json:"transaction"`
}

// Server handles HTTP requests. Executions are serialized so a snapshot is
// never read while another transition for it is being committed.
type Server struct {
	exec   Transitioner
	ledger Ledger
	log    *log.Logger
	mu     sync.Mutex
}

// NewServer returns the router for exec and ledger. A nil logger discards.
func NewServer(exec Transitioner, ledger Ledger, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{exec: exec, ledger: ledger, log: logger}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/execute", s.handleExecute)
	r.Post("/rpc", s.handleRPC)
	return r
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "decode request: " + err.Error()})
		return
	}
	tx := req.Transaction
	if tx.Hash == "" {
		tx.Hash = uuid.NewString()
	}
	if tx.MetaContractID == "" {
		tx.MetaContractID = req.Contract.MetaContractID
	}

	res, status, err := s.execute(r.Context(), req.Contract, tx)
	if err != nil {
		s.log.Printf("execute %s: %v", tx.Hash, err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// execute runs one transition and commits its mutations on success.
// Rejected transitions are not errors; they are reported in the result.
func (s *Server) execute(ctx context.Context, contract types.MetaContract, tx types.Transaction) (types.TransitionResult, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.ledger.Snapshot(ctx, tx.DataKey)
	if err != nil {
		return types.TransitionResult{}, http.StatusInternalServerError, err
	}

	res := s.exec.OnExecute(ctx, contract, snapshot, tx)
	if !res.Success {
		return res, http.StatusOK, nil
	}

	records, err := s.ledger.Commit(ctx, tx, res.Mutations)
	if err != nil {
		return types.TransitionResult{}, http.StatusInternalServerError, err
	}
	s.log.Printf("execute %s data_key=%s: committed %d records", tx.Hash, tx.DataKey, len(records))
	return res, http.StatusOK, nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req authority.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, authority.Response{
			JSONRPC: authority.Version,
			Error:   &authority.RPCError{Code: codeParseError, Message: err.Error()},
		})
		return
	}

	resp := authority.Response{JSONRPC: authority.Version, ID: req.ID, Method: req.Method}
	if req.Method != authority.MethodSearch {
		resp.Error = &authority.RPCError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	records, err := s.ledger.SearchMetadatas(r.Context(), req.Params)
	switch {
	case errors.Is(err, types.ErrInvalidFilter):
		resp.Result = &authority.SearchResult{Success: false, ErrMsg: err.Error(), Metadatas: []types.MetadataRecord{}}
	case err != nil:
		s.log.Printf("search_metadatas: %v", err)
		resp.Result = &authority.SearchResult{Success: false, ErrMsg: "search failed", Metadatas: []types.MetadataRecord{}}
	default:
		resp.Result = &authority.SearchResult{Success: true, Metadatas: records}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
