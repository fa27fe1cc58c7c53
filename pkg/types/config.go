package types

import (
	"errors"
	"time"
)

// Correlation selects how a transaction finds its prior mention state.
type Correlation string

// Supported correlation modes.
const (
	// CorrelateBySubject matches record.Version against the transaction's
	// data key; the stored content is a MentionMap keyed by content identifier.
	CorrelateBySubject Correlation = "subject"
	// CorrelateByContent matches record.Version against the proposal's
	// content identifier and record.DataKey against the data key; the stored
	// content is a single FinalMention.
	CorrelateByContent Correlation = "content"
)

// Policy selects what happens when the requester does not own the prior mention.
type Policy string

// Supported ownership policies.
const (
	RejectOnMismatch    Policy = "reject"
	EscalateToAuthority Policy = "escalate"
)

// Defaults applied by WithDefaults.
const (
	DefaultStoreAddress        = "/ip4/127.0.0.1/tcp/5001"
	DefaultStoreTimeout        = 10 * time.Second
	DefaultAuthorityEndpoint   = "http://127.0.0.1:5052/rpc"
	DefaultAuthorityContractID = "0x01"
	DefaultAuthorityTimeout    = 30 * time.Second
	DefaultSystemContractID    = "0x01"
)

// Config holds the executor's collaborator defaults and protocol selection.
// It is passed explicitly; nothing here is process-global.
type Config struct {
	StoreAddress        string        `json:"store_address" yaml:"store_address"`
	StoreTimeout        time.Duration `json:"store_timeout" yaml:"store_timeout"`
	AuthorityEndpoint   string        `json:"authority_endpoint" yaml:"authority_endpoint"`
	AuthorityContractID string        `json:"authority_contract_id" yaml:"authority_contract_id"`
	AuthorityTimeout    time.Duration `json:"authority_timeout" yaml:"authority_timeout"`
	Correlation         Correlation   `json:"correlation" yaml:"correlation"`
	Policy              Policy        `json:"policy" yaml:"policy"`
	RequireOwner        bool          `json:"require_owner" yaml:"require_owner"`
	Bootstrap           bool          `json:"bootstrap" yaml:"bootstrap"`
	SystemContractID    string        `json:"system_contract_id" yaml:"system_contract_id"`
}

// Config validation errors.
var (
	ErrCorrelationUnknown  = errors.New("unknown correlation mode")
	ErrPolicyUnknown       = errors.New("unknown ownership policy")
	ErrSystemContractEmpty = errors.New("system contract id must not be empty")
	ErrAuthorityEmpty      = errors.New("authority endpoint must not be empty")
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		StoreAddress:        DefaultStoreAddress,
		StoreTimeout:        DefaultStoreTimeout,
		AuthorityEndpoint:   DefaultAuthorityEndpoint,
		AuthorityContractID: DefaultAuthorityContractID,
		AuthorityTimeout:    DefaultAuthorityTimeout,
		Correlation:         CorrelateBySubject,
		Policy:              RejectOnMismatch,
		RequireOwner:        true,
		Bootstrap:           true,
		SystemContractID:    DefaultSystemContractID,
	}
}

// WithDefaults fills zero-valued string and duration fields. Booleans are
// left alone since false is a meaningful setting.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.StoreAddress == "" {
		c.StoreAddress = d.StoreAddress
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = d.StoreTimeout
	}
	if c.AuthorityEndpoint == "" {
		c.AuthorityEndpoint = d.AuthorityEndpoint
	}
	if c.AuthorityContractID == "" {
		c.AuthorityContractID = d.AuthorityContractID
	}
	if c.AuthorityTimeout <= 0 {
		c.AuthorityTimeout = d.AuthorityTimeout
	}
	if c.Correlation == "" {
		c.Correlation = d.Correlation
	}
	if c.Policy == "" {
		c.Policy = d.Policy
	}
	if c.SystemContractID == "" {
		c.SystemContractID = d.SystemContractID
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	switch c.Correlation {
	case CorrelateBySubject, CorrelateByContent:
	default:
		return ErrCorrelationUnknown
	}
	switch c.Policy {
	case RejectOnMismatch:
	case EscalateToAuthority:
		if c.AuthorityEndpoint == "" {
			return ErrAuthorityEmpty
		}
	default:
		return ErrPolicyUnknown
	}
	if c.Bootstrap && c.SystemContractID == "" {
		return ErrSystemContractEmpty
	}
	return nil
}
