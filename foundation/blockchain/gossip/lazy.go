package gossip

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// lazy floods every transaction it sees once and commits everything it has
// seen without counting votes.
type lazy struct {
	rounds      int
	pending     txSet
	broadcasted txSet
}

func newLazy(cfg Config) Node {
	return &lazy{
		rounds:      cfg.Rounds,
		pending:     newTxSet(),
		broadcasted: newTxSet(),
	}
}

func (n *lazy) SetFollowees(followees []bool) {}

func (n *lazy) SetPendingTransactions(txs []database.Tx) {
	for _, tx := range txs {
		n.pending.add(tx)
	}
}

func (n *lazy) SendToFollowers() []database.Tx {
	n.rounds--

	if n.rounds < 0 {
		return n.broadcasted.union(n.pending)
	}

	out := n.pending.slice()
	for _, tx := range out {
		n.broadcasted.add(tx)
	}
	n.pending.clear()

	return out
}

func (n *lazy) ReceiveFromFollowees(candidates []Candidate) {
	for _, c := range candidates {
		if !n.broadcasted.contains(c.Tx) {
			n.pending.add(c.Tx)
		}
	}
}
