package types

import "errors"

// ErrorKind classifies a failed transition.
type ErrorKind string

// Transition error kinds.
const (
	KindSchema                     ErrorKind = "schema_error"
	KindValidation                 ErrorKind = "validation_error"
	KindStoreUnavailable           ErrorKind = "store_unavailable"
	KindMalformedBlock             ErrorKind = "malformed_block"
	KindAuthorityUnavailable       ErrorKind = "authority_unavailable"
	KindAuthorityMalformedResponse ErrorKind = "authority_malformed_response"
	KindNotOwner                   ErrorKind = "not_owner"
	KindSerialization              ErrorKind = "serialization_error"
	KindUnsupported                ErrorKind = "unsupported"
)

// TransitionError is a terminal failure of one transition. Reason is the
// human-readable text surfaced in TransitionResult.Error.
type TransitionError struct {
	Kind   ErrorKind
	Reason string
	Cause  error
}

// Error returns the reason, followed by the cause when one is wrapped.
func (e *TransitionError) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

// Unwrap returns the underlying cause.
func (e *TransitionError) Unwrap() error {
	return e.Cause
}

// Is matches any *TransitionError of the same kind, so the Err* sentinels
// below work with errors.Is.
func (e *TransitionError) Is(target error) bool {
	var t *TransitionError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NewTransitionError creates a TransitionError of the given kind.
func NewTransitionError(kind ErrorKind, reason string, cause error) *TransitionError {
	return &TransitionError{Kind: kind, Reason: reason, Cause: cause}
}

// Reason strings surfaced to callers.
const (
	ReasonSchema           = "Data does not follow the required JSON schema"
	ReasonEmptyCID         = "cid cannot be empty"
	ReasonEmptyOwner       = "owner cannot be empty"
	ReasonStoreUnavailable = "Unable to get content from store"
	ReasonMalformedBlock   = "Unable to deserialize ipfs content"
	ReasonAuthority        = "Unable to reach ownership authority"
	ReasonAuthorityReply   = "Unable to decode ownership authority response"
	ReasonNotOwner         = "Not owner of the post"
	ReasonSerialization    = "Unable to serialize content"
	ReasonMintUnavailable  = "on_mint is not available"
)

// Transition error sentinels, one per kind. Compare with errors.Is.
var (
	ErrSchema                     = &TransitionError{Kind: KindSchema, Reason: ReasonSchema}
	ErrValidation                 = &TransitionError{Kind: KindValidation, Reason: "validation failed"}
	ErrStoreUnavailable           = &TransitionError{Kind: KindStoreUnavailable, Reason: ReasonStoreUnavailable}
	ErrMalformedBlock             = &TransitionError{Kind: KindMalformedBlock, Reason: ReasonMalformedBlock}
	ErrAuthorityUnavailable       = &TransitionError{Kind: KindAuthorityUnavailable, Reason: ReasonAuthority}
	ErrAuthorityMalformedResponse = &TransitionError{Kind: KindAuthorityMalformedResponse, Reason: ReasonAuthorityReply}
	ErrNotOwner                   = &TransitionError{Kind: KindNotOwner, Reason: ReasonNotOwner}
	ErrSerialization              = &TransitionError{Kind: KindSerialization, Reason: ReasonSerialization}
	ErrUnsupported                = &TransitionError{Kind: KindUnsupported, Reason: ReasonMintUnavailable}
)

// Ledger errors.
var (
	ErrLedgerDetached  = errors.New("ledger is detached")
	ErrAlreadyAttached = errors.New("ledger is already attached")
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidFilter   = errors.New("invalid filter column")
)
