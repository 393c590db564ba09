// Package chain is the core API for the ledger. It keeps a tree of blocks
// rooted at the genesis block, the ledger state produced by every retained
// block and the pending transactions waiting to go into the next block.
package chain

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// DefaultRetentionWindow is how many heights below the tip are retained when
// the configuration doesn't say.
const DefaultRetentionWindow = 10

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing background block proposals.
type Worker interface {
	Shutdown()
	SignalPropose()
}

// Config represents the configuration required to start the chain.
type Config struct {
	Genesis         database.Block
	RetentionWindow int
	SelectStrategy  string
	EvHandler       EventHandler
}

// node is a retained block along with the ledger state it produced.
type node struct {
	block  database.Block
	pool   database.Pool
	height int
	seq    uint64
}

// Chain manages the tree of blocks.
type Chain struct {
	// Worker is registered by the worker package when background proposals
	// are turned on. Set it before the chain is shared.
	Worker Worker

	retention int
	evHandler EventHandler

	mu    sync.RWMutex
	nodes map[string]*node
	tip   *node
	seq   uint64

	mempool *mempool.Mempool
}

// New constructs a chain from the genesis block. The genesis transactions
// are applied to an empty ledger state and then the coinbase is credited.
func New(cfg Config) (*Chain, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	retention := cfg.RetentionWindow
	if retention <= 0 {
		retention = DefaultRetentionWindow
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = ledger.StrategyGreedy
	}

	// Construct a mempool with the specified select strategy.
	mempool, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	genesis := cfg.Genesis
	if !genesis.IsGenesis() {
		return nil, ErrNotGenesis
	}

	pool, err := validateBlock(database.NewPool(), genesis)
	if err != nil {
		return nil, err
	}

	root := node{
		block: genesis,
		pool:  pool,
	}

	c := Chain{
		retention: retention,
		evHandler: ev,
		nodes:     map[string]*node{genesis.Hash: &root},
		tip:       &root,
		mempool:   mempool,
	}

	ev("chain: New: genesis[%s]: utxos[%d]: window[%d]", genesis, pool.Len(), retention)

	return &c, nil
}

// AddBlock validates the block against the ledger state of its parent and,
// if every transaction in it is valid, retains it. A nil error means the
// block was accepted.
func (c *Chain) AddBlock(block database.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.addBlock(block)
}

// MaxHeightBlock returns the block at the greatest height. On a tie the
// block that was added first wins.
func (c *Chain) MaxHeightBlock() database.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.tip.block
}

// MaxHeightPool returns the ledger state produced by MaxHeightBlock.
func (c *Chain) MaxHeightPool() database.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.tip.pool
}

// =============================================================================

// addBlock performs the work of AddBlock. The caller must hold the lock.
func (c *Chain) addBlock(block database.Block) error {
	c.evHandler("chain: addBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", short(block.PrevBlockHash), block, len(block.Txs))

	if block.IsGenesis() {
		return ErrDuplicateGenesis
	}

	if _, exists := c.nodes[block.Hash]; exists {
		return ErrKnownBlock
	}

	parent, exists := c.nodes[block.PrevBlockHash]
	if !exists {
		return ErrUnknownParent
	}

	pool, err := validateBlock(parent.pool, block)
	if err != nil {
		c.evHandler("chain: addBlock: REJECTED: newBlk[%s]: %s", block, err)
		return err
	}

	c.seq++
	n := node{
		block:  block,
		pool:   pool,
		height: parent.height + 1,
		seq:    c.seq,
	}
	c.nodes[block.Hash] = &n

	// Sequence numbers only grow, so a block at the same height as the tip
	// never replaces it. Pending transactions are only dropped once they
	// are on the tip, a side block leaves them spendable.
	if n.height > c.tip.height {
		c.tip = &n
		c.mempool.Delete(block.Txs...)
	}

	c.prune()

	c.evHandler("chain: addBlock: completed: newBlk[%s]: height[%d]: tip[%s]", block, n.height, c.tip.block)

	return nil
}

// prune drops every block too far below the tip to be built on.
func (c *Chain) prune() {
	cutoff := c.tip.height - c.retention

	for hash, n := range c.nodes {
		if n.height < cutoff {
			delete(c.nodes, hash)
			c.evHandler("chain: prune: blk[%s]: height[%d]", n.block, n.height)
		}
	}
}

// validateBlock applies every transaction of the block to the ledger state
// in order and then credits the coinbase. Any invalid transaction rejects
// the whole block.
func validateBlock(pool database.Pool, block database.Block) (database.Pool, error) {
	if block.Hash != block.ComputeHash() {
		return pool, ErrBlockHash
	}

	coinbase := block.Coinbase
	if !coinbase.IsFinalized() || coinbase.Hash != coinbase.ComputeHash() {
		return pool, ErrCoinbase
	}

	for i, tx := range block.Txs {
		if tx.Hash != tx.ComputeHash() {
			return pool, &InvalidTransactionError{Index: i, Hash: tx.Hash, Err: ErrTxHash}
		}

		next, _, err := ledger.Apply(pool, tx)
		if err != nil {
			return pool, &InvalidTransactionError{Index: i, Hash: tx.Hash, Err: err}
		}
		pool = next
	}

	for i, output := range coinbase.Outputs {
		pool = pool.Add(coinbase.UTXO(i), output)
	}

	return pool, nil
}

// short returns the leading characters of a hash for log lines.
func short(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}
