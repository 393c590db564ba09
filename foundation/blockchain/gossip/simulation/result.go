package simulation

import (
	"slices"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Result is what every node committed at the end of a run.
type Result struct {
	Consensus [][]database.Tx
	Malicious []bool
}

// Honest returns the index of every honest node.
func (r Result) Honest() []int {
	var out []int
	for i, malicious := range r.Malicious {
		if !malicious {
			out = append(out, i)
		}
	}
	return out
}

// Agreed reports whether every honest node committed the same transactions.
func (r Result) Agreed() bool {
	var first []string
	for n, i := range r.Honest() {
		hashes := txHashes(r.Consensus[i])
		if n == 0 {
			first = hashes
			continue
		}
		if !slices.Equal(first, hashes) {
			return false
		}
	}
	return true
}

// Committed returns the hashes of the transactions committed by the node.
func (r Result) Committed(node int) []string {
	return txHashes(r.Consensus[node])
}

func txHashes(txs []database.Tx) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash
	}
	slices.Sort(out)
	return out
}
