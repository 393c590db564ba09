package chain

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// AddTransaction accepts a transaction for inclusion in a future block. The
// hash must match the contents, the rest of the transaction is validated
// when a block is built.
func (c *Chain) AddTransaction(tx database.Tx) error {
	if tx.IsFinalized() && tx.Hash != tx.ComputeHash() {
		return ErrTxHash
	}

	n, err := c.mempool.Upsert(tx)
	if err != nil {
		return err
	}

	c.evHandler("chain: AddTransaction: tx[%s]: pending[%d]", tx, n)

	if c.Worker != nil {
		c.Worker.SignalPropose()
	}

	return nil
}

// PendingTransactions returns the transactions waiting for a block in the
// order they were submitted.
func (c *Chain) PendingTransactions() []database.Tx {
	return c.mempool.Copy()
}

// PendingCount returns the number of transactions waiting for a block.
func (c *Chain) PendingCount() int {
	return c.mempool.Count()
}
