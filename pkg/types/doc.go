// Package types defines the entities exchanged with the mention contract:
// transactions, committed metadata records, stored blocks, mention states,
// output mutations, the executor Config, and the standard error types.
package types
