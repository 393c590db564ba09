package ledger

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// MaxFeeBatch is the largest batch ApplyMaxFee will search. The search visits
// every ordering of the batch, so the work grows with the factorial of its
// size.
const MaxFeeBatch = 8

// ErrBatchTooLarge is returned when a batch is too large to search.
var ErrBatchTooLarge = errors.New("batch too large for an exhaustive fee search")

// =============================================================================

// ApplyMaxFee finds the subset and ordering of the transactions that
// collects the largest total fee. It evaluates ApplyInOrder for every
// ordering of the batch. Between results with the same fee the one with
// more transactions wins, and after that the first ordering found wins.
//
// This is the reference answer for small batches. ApplyGreedy is the
// strategy to use beyond MaxFeeBatch.
func ApplyMaxFee(pool database.Pool, txs []database.Tx) ([]database.Tx, database.Pool, error) {
	if len(txs) > MaxFeeBatch {
		return nil, pool, ErrBatchTooLarge
	}

	s := search{
		txs:  txs,
		used: make([]bool, len(txs)),
	}
	s.walk(attempt{accepted: []database.Tx{}, pool: pool}, 0)

	return s.best.accepted, s.best.pool, nil
}

// =============================================================================

// attempt is the outcome of applying one ordering of the batch.
type attempt struct {
	accepted []database.Tx
	pool     database.Pool
	fee      float64
}

// betterThan compares the fee first and then the number of transactions.
func (a attempt) betterThan(other attempt) bool {
	if a.fee != other.fee {
		return a.fee > other.fee
	}
	return len(a.accepted) > len(other.accepted)
}

// search walks the orderings depth first. Orderings that share a prefix
// share the work of applying that prefix.
type search struct {
	txs   []database.Tx
	used  []bool
	best  attempt
	found bool
}

// walk extends the current ordering with every unused transaction in index
// order, so complete orderings are visited in lexicographic order.
func (s *search) walk(cur attempt, depth int) {
	if depth == len(s.txs) {
		if !s.found || cur.betterThan(s.best) {
			s.best = cur
			s.found = true
		}
		return
	}

	for i, tx := range s.txs {
		if s.used[i] {
			continue
		}
		s.used[i] = true

		next := cur
		if pool, fee, err := Apply(cur.pool, tx); err == nil {
			n := len(cur.accepted)
			next = attempt{
				accepted: append(cur.accepted[:n:n], tx),
				pool:     pool,
				fee:      cur.fee + fee,
			}
		}
		s.walk(next, depth+1)

		s.used[i] = false
	}
}
