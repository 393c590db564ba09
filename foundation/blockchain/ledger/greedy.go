package ledger

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ApplyGreedy approximates ApplyMaxFee in polynomial time. On every pass it
// applies the transaction that is valid against the current state and pays
// the best fee per input claimed, preferring the larger fee and then the
// earlier submission on a tie. It stops when no remaining transaction is
// valid. Transactions that spend outputs created inside the batch are picked
// up regardless of the order they were submitted in.
func ApplyGreedy(pool database.Pool, txs []database.Tx) ([]database.Tx, database.Pool) {
	remaining := make([]database.Tx, len(txs))
	copy(remaining, txs)

	accepted := make([]database.Tx, 0, len(txs))

	for {
		best := -1
		var bestPool database.Pool
		var bestFee, bestRate float64

		for i, tx := range remaining {
			next, fee, err := Apply(pool, tx)
			if err != nil {
				continue
			}

			rate := fee / float64(max(1, len(tx.Inputs)))
			if best == -1 || rate > bestRate || (rate == bestRate && fee > bestFee) {
				best = i
				bestPool = next
				bestFee = fee
				bestRate = rate
			}
		}

		if best == -1 {
			break
		}

		accepted = append(accepted, remaining[best])
		pool = bestPool
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return accepted, pool
}
