package gossip

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// floodRounds is how many of the last rounds a malicious node floods in.
const floodRounds = 2

// malicious withholds its own transactions until the last rounds so honest
// nodes have little time to vote on them. It ignores what it receives.
type malicious struct {
	rounds int
	txs    txSet
}

func newMalicious(cfg Config) Node {
	return &malicious{
		rounds: cfg.Rounds,
		txs:    newTxSet(),
	}
}

func (n *malicious) SetFollowees(followees []bool) {}

func (n *malicious) SetPendingTransactions(txs []database.Tx) {
	for _, tx := range txs {
		n.txs.add(tx)
	}
}

func (n *malicious) SendToFollowers() []database.Tx {
	n.rounds--

	if n.rounds < floodRounds {
		return n.txs.slice()
	}
	return nil
}

func (n *malicious) ReceiveFromFollowees(candidates []Candidate) {}

// =============================================================================

// silent is a crashed node. It never sends anything.
type silent struct{}

func newSilent(cfg Config) Node {
	return silent{}
}

func (silent) SetFollowees(followees []bool) {}
func (silent) SetPendingTransactions(txs []database.Tx) {}
func (silent) SendToFollowers() []database.Tx { return nil }
func (silent) ReceiveFromFollowees(candidates []Candidate) {}
