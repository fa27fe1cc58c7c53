// Package authority queries a remote metadata node over JSON-RPC
// (`search_metadatas`) to resolve who owns a subject.
package authority

import (
	"encoding/json"
	"sort"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// JSON-RPC constants for search_metadatas.
const (
	Version      = "2.0"
	MethodSearch = "search_metadatas"
	RequestID    = "1"
	OpEqual      = "="
)

// FilterQuery is one column comparison.
type FilterQuery struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Query  string `json:"query"`
}

// FilterOrdering sorts results by a column.
type FilterOrdering struct {
	Column string `json:"column"`
	Sort   string `json:"sort"`
}

// Filter is the params object of search_metadatas. From and To of zero
// mean an unranged window.
type Filter struct {
	Query    []FilterQuery    `json:"query"`
	Ordering []FilterOrdering `json:"ordering"`
	From     uint32           `json:"from"`
	To       uint32           `json:"to"`
}

// Request is the JSON-RPC request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  Filter `json:"params"`
	ID      string `json:"id"`
}

// SearchResult is the result object of search_metadatas.
type SearchResult struct {
	Success   bool                   `json:"success"`
	ErrMsg    string                 `json:"err_msg"`
	Metadatas []types.MetadataRecord `json:"metadatas"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is the JSON-RPC response envelope.
type Response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id,omitempty"`
	Method  string        `json:"method,omitempty"`
	Result  *SearchResult `json:"result,omitempty"`
	Error   *RPCError     `json:"error,omitempty"`
}

// NewSearchRequest builds an equality filter over filters. Queries are
// sorted by column so the encoded body is deterministic.
func NewSearchRequest(filters map[string]string) Request {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	query := make([]FilterQuery, 0, len(cols))
	for _, col := range cols {
		query = append(query, FilterQuery{Column: col, Op: OpEqual, Query: filters[col]})
	}

	return Request{
		JSONRPC: Version,
		Method:  MethodSearch,
		Params: Filter{
			Query:    query,
			Ordering: []FilterOrdering{},
		},
		ID: RequestID,
	}
}

// BuildSearchBody encodes a search_metadatas request for filters.
func BuildSearchBody(filters map[string]string) ([]byte, error) {
	return json.Marshal(NewSearchRequest(filters))
}
