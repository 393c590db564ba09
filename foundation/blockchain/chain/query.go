package chain

import (
	"bytes"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Status is a summary of the chain.
type Status struct {
	Height   int    `json:"height"`
	TipHash  string `json:"tip_hash"`
	Retained int    `json:"retained"`
	Pending  int    `json:"pending"`
	UTXOs    int    `json:"utxos"`
}

// BlockInfo is a retained block with its height.
type BlockInfo struct {
	Height int            `json:"height"`
	Block  database.Block `json:"block"`
}

// UTXOInfo is an unspent output in the tip ledger state.
type UTXOInfo struct {
	TxHash    string        `json:"tx_hash"`
	Index     int           `json:"index"`
	Value     float64       `json:"value"`
	PublicKey hexutil.Bytes `json:"public_key"`
}

// =============================================================================

// Status returns a summary of the chain.
func (c *Chain) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Status{
		Height:   c.tip.height,
		TipHash:  c.tip.block.Hash,
		Retained: len(c.nodes),
		Pending:  c.mempool.Count(),
		UTXOs:    c.tip.pool.Len(),
	}
}

// QueryBlock returns the retained block with the specified hash.
func (c *Chain) QueryBlock(hash string) (BlockInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, exists := c.nodes[hash]
	if !exists {
		return BlockInfo{}, ErrNotFound
	}

	return BlockInfo{Height: n.height, Block: n.block}, nil
}

// QueryUTXOs returns the unspent outputs owned by the public key in the tip
// ledger state. An empty owner returns every unspent output.
func (c *Chain) QueryUTXOs(owner []byte) []UTXOInfo {
	pool := c.MaxHeightPool()

	var out []UTXOInfo
	for _, utxo := range pool.UTXOs() {
		output, _ := pool.Output(utxo)
		if len(owner) > 0 && !bytes.Equal(output.PublicKey, owner) {
			continue
		}

		out = append(out, UTXOInfo{
			TxHash:    utxo.TxHash,
			Index:     utxo.Index,
			Value:     output.Value,
			PublicKey: output.PublicKey,
		})
	}

	return out
}
