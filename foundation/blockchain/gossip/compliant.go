package gossip

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	mapset "github.com/deckarep/golang-set/v2"
)

// compliant floods every transaction it sees once and commits the ones
// vouched for by at least as many followees as it expects to be honest.
type compliant struct {
	pMalicious float64
	threshold  int
	rounds     int

	pending txSet
	seen    map[string]database.Tx
	votes   map[string]mapset.Set[int]
}

func newCompliant(cfg Config) Node {
	return &compliant{
		pMalicious: cfg.PMalicious,
		rounds:     cfg.Rounds,
		pending:    newTxSet(),
		seen:       make(map[string]database.Tx),
		votes:      make(map[string]mapset.Set[int]),
	}
}

// SetFollowees derives the vote threshold from the expected number of
// honest followees.
func (n *compliant) SetFollowees(followees []bool) {
	var expected float64
	for _, follows := range followees {
		if follows {
			expected += 1 - n.pMalicious
		}
	}

	n.threshold = int(expected)
}

func (n *compliant) SetPendingTransactions(txs []database.Tx) {
	for _, tx := range txs {
		n.pending.add(tx)
	}
}

func (n *compliant) SendToFollowers() []database.Tx {
	n.rounds--

	if n.rounds < 0 {
		var consensus []database.Tx
		for hash, voters := range n.votes {
			if voters.Cardinality() >= n.threshold {
				consensus = append(consensus, n.seen[hash])
			}
		}
		return sorted(consensus)
	}

	out := n.pending.slice()
	n.pending.clear()

	return out
}

func (n *compliant) ReceiveFromFollowees(candidates []Candidate) {
	for _, c := range candidates {
		voters, exists := n.votes[c.Tx.Hash]
		if !exists {
			n.seen[c.Tx.Hash] = c.Tx
			n.votes[c.Tx.Hash] = mapset.NewThreadUnsafeSet(c.Sender)
			n.pending.add(c.Tx)
			continue
		}

		voters.Add(c.Sender)
	}
}
