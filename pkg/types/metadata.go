package types

import "encoding/json"

// Metadata aliases used by the mention contract.
const (
	AliasMentions   = "mentions"
	AliasToken      = "token"
	AliasLineageKey = "lineage_key"
)

// MetadataRecord is a previously committed fact. Version is the correlation
// key used to find it again; CID points at the stored block holding its content.
type MetadataRecord struct {
	Hash           string `json:"hash"`
	TokenKey       string `json:"token_key"`
	DataKey        string `json:"data_key"`
	MetaContractID string `json:"meta_contract_id"`
	TokenID        string `json:"token_id"`
	Alias          string `json:"alias"`
	CID            string `json:"cid"`
	PublicKey      string `json:"public_key"`
	Version        string `json:"version"`
	Loose          int64  `json:"loose"`
}

// StoredBlock is the value a content identifier resolves to in the
// content-addressed store. Previous and Transaction are passed through.
type StoredBlock struct {
	Timestamp   uint64          `json:"timestamp"`
	Content     json.RawMessage `json:"content"`
	Previous    json.RawMessage `json:"previous"`
	Transaction json.RawMessage `json:"transaction"`
}

// MetadataMutation is one fact to be committed by the caller.
type MetadataMutation struct {
	PublicKey string `json:"public_key"`
	Alias     string `json:"alias"`
	Content   string `json:"content"`
	Loose     int64  `json:"loose"`
	Version   string `json:"version"`
}

// TokenFact is the content of the auxiliary "token" fact.
type TokenFact struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	ID      string `json:"id"`
}
