package chain

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// ProposeBlock builds a block on the tip from the pending transactions using
// the configured select strategy and adds it to the chain. The coinbase pays
// the reward plus every fee collected to the beneficiary. Pending
// transactions that can't be applied are left in the mempool.
func (c *Chain) ProposeBlock(beneficiary []byte, reward float64) (database.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evHandler("chain: ProposeBlock: check mempool count")

	if c.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	tip := c.tip

	// Pick the best transactions from the mempool.
	txs, _ := c.mempool.PickBest(tip.pool)
	if len(txs) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	// Replay the selection to total the fees.
	var fees float64
	pool := tip.pool
	for _, tx := range txs {
		next, fee, err := ledger.Apply(pool, tx)
		if err != nil {
			return database.Block{}, err
		}
		pool = next
		fees += fee
	}

	coinbase, err := database.NewCoinbase(tip.block.Hash, database.Output{
		Value:     reward + fees,
		PublicKey: beneficiary,
	})
	if err != nil {
		return database.Block{}, err
	}

	block := database.NewBlock(tip.block.Hash, coinbase, txs)

	c.evHandler("chain: ProposeBlock: newBlk[%s]: fees[%v]", block, fees)

	if err := c.addBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}
