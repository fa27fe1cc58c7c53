// Command mentions applies mention-record state transitions against a local
// ledger or an IPFS node and serves them over HTTP.
package main

import (
	"os"

	"github.com/mesh-intelligence/mentions/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
