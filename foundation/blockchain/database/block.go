package database

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together on top of a
// parent block. Only the genesis block has no parent.
type Block struct {
	Hash          string `json:"hash" validate:"required"`
	PrevBlockHash string `json:"prev_block_hash,omitempty"`
	Coinbase      Tx     `json:"coinbase"`
	Txs           []Tx   `json:"txs" validate:"dive"`
}

// NewBlock constructs a block on top of the parent and assigns its hash.
func NewBlock(prevBlockHash string, coinbase Tx, txs []Tx) Block {
	b := Block{
		PrevBlockHash: prevBlockHash,
		Coinbase:      coinbase,
		Txs:           txs,
	}
	b.Hash = b.ComputeHash()

	return b
}

// NewGenesisBlock constructs the first block of a chain. Its coinbase mints
// the initial supply.
func NewGenesisBlock(coinbase Tx) Block {
	return NewBlock("", coinbase, nil)
}

// NewCoinbase constructs the value minting transaction for a block built on
// prevBlockHash. The parent hash is carried as the single input so the same
// reward paid to the same owner in two blocks produces two different hashes.
// The input of a coinbase is never validated.
func NewCoinbase(prevBlockHash string, outputs ...Output) (Tx, error) {
	if prevBlockHash == "" {
		prevBlockHash = signature.ZeroHash
	}

	var tx Tx
	if err := tx.AddInput(prevBlockHash, 0); err != nil {
		return Tx{}, err
	}
	for _, output := range outputs {
		if err := tx.AddOutput(output.Value, output.PublicKey); err != nil {
			return Tx{}, err
		}
	}
	if err := tx.Finalize(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// IsGenesis reports whether the block declares no parent.
func (b Block) IsGenesis() bool {
	return b.PrevBlockHash == ""
}

// ComputeHash derives the block hash from the parent hash, the coinbase
// hash and the ordered transaction hashes.
func (b Block) ComputeHash() string {
	txHashes := make([]string, len(b.Txs))
	for i, tx := range b.Txs {
		txHashes[i] = tx.Hash
	}

	header := struct {
		PrevBlockHash string   `json:"prev_block_hash"`
		CoinbaseHash  string   `json:"coinbase_hash"`
		TxHashes      []string `json:"tx_hashes"`
	}{
		PrevBlockHash: b.PrevBlockHash,
		CoinbaseHash:  b.Coinbase.Hash,
		TxHashes:      txHashes,
	}

	return signature.Hash(header)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%s[txs:%d]", short(b.Hash), len(b.Txs))
}

// short returns the leading characters of a hash for log lines.
func short(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}
