package types

import "errors"

// TransitionResult is the outcome of one contract call. On failure Mutations
// is empty and Error holds the reason.
type TransitionResult struct {
	Success   bool               `json:"result"`
	Mutations []MetadataMutation `json:"metadatas"`
	Error     string             `json:"error_string"`
}

// Success returns a successful result carrying mutations.
func Success(mutations []MetadataMutation) TransitionResult {
	if mutations == nil {
		mutations = []MetadataMutation{}
	}
	return TransitionResult{Success: true, Mutations: mutations}
}

// Failure converts err into a failed result. A *TransitionError contributes
// its Reason only; anything else is reported by its Error text.
func Failure(err error) TransitionResult {
	reason := ""
	var te *TransitionError
	switch {
	case errors.As(err, &te):
		reason = te.Reason
	case err != nil:
		reason = err.Error()
	}
	return TransitionResult{Success: false, Mutations: []MetadataMutation{}, Error: reason}
}
