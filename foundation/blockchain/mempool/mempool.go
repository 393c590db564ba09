// Package mempool maintains the pending transactions for the ledger.
package mempool

import (
	"errors"
	"sort"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// ErrNotFinalized is returned when a transaction without a hash is added.
var ErrNotFinalized = errors.New("transaction is not finalized")

// entry keeps the submission order next to the transaction.
type entry struct {
	tx  database.Tx
	seq uint64
}

// Mempool represents a cache of pending transactions keyed by hash. It
// remembers the order transactions were submitted in since the selection
// strategies break ties on it.
type Mempool struct {
	pool     map[string]entry
	seq      uint64
	mu       sync.RWMutex
	selectFn ledger.Func
}

// New constructs a new mempool using the default select strategy.
func New() *Mempool {
	mp, _ := NewWithStrategy(ledger.StrategyGreedy)
	return mp
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := ledger.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]entry),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool. Adding a transaction that is
// already pending keeps its original position.
func (mp *Mempool) Upsert(tx database.Tx) (int, error) {
	if !tx.IsFinalized() {
		return 0, ErrNotFinalized
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.Hash]; !exists {
		mp.seq++
		mp.pool[tx.Hash] = entry{tx: tx, seq: mp.seq}
	}

	return len(mp.pool), nil
}

// Delete removes the transactions from the mempool.
func (mp *Mempool) Delete(txs ...database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range txs {
		delete(mp.pool, tx.Hash)
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// Copy returns the pending transactions in the order they were submitted.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	txs := make([]database.Tx, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}

	return txs
}

// PickBest uses the configured select strategy to return the set of
// pending transactions that can go in the next block built on the
// specified ledger state, along with the state they produce.
func (mp *Mempool) PickBest(pool database.Pool) ([]database.Tx, database.Pool) {
	return mp.selectFn(pool, mp.Copy())
}
