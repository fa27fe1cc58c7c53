package types

// Transaction is an already-authenticated action submitted against a meta
// contract. Data carries the JSON-encoded MentionProposal.
type Transaction struct {
	Hash           string `json:"hash"`
	Method         string `json:"method"`
	MetaContractID string `json:"meta_contract_id"`
	DataKey        string `json:"data_key"`
	TokenKey       string `json:"token_key"`
	Data           string `json:"data"`
	PublicKey      string `json:"public_key"`
	Alias          string `json:"alias"`
	Timestamp      uint64 `json:"timestamp"`
	ChainID        string `json:"chain_id"`
	TokenAddress   string `json:"token_address"`
	TokenID        string `json:"token_id"`
	Version        string `json:"version"`
	Status         int64  `json:"status"`
	MCData         string `json:"mcdata"`
}

// MetaContract identifies the contract a transaction executes under.
// The executor receives it but does not interpret it.
type MetaContract struct {
	Hash           string `json:"hash"`
	TokenKey       string `json:"token_key"`
	MetaContractID string `json:"meta_contract_id"`
	PublicKey      string `json:"public_key"`
	CID            string `json:"cid"`
}
