// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time          `json:"date"`
	CoinbaseReward  float64            `json:"coinbase_reward" validate:"gte=0"`        // Reward minted by every proposed block.
	RetentionWindow int                `json:"retention_window" validate:"gte=0"`       // How far below the tip blocks are kept.
	SelectStrategy  string             `json:"select_strategy" validate:"required"`     // How pending transactions are picked for a block.
	Balances        map[string]float64 `json:"balances" validate:"required,min=1,dive,keys,startswith=0x,endkeys,gte=0"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validating genesis: %w", err)
	}

	return genesis, nil
}

// ToBlock builds the genesis block. Its coinbase mints one output per
// balance, ordered by public key so the same file always produces the same
// block hash.
func (g Genesis) ToBlock() (database.Block, error) {
	keys := make([]string, 0, len(g.Balances))
	for key := range g.Balances {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	outputs := make([]database.Output, len(keys))
	for i, key := range keys {
		publicKey, err := hexutil.Decode(key)
		if err != nil {
			return database.Block{}, fmt.Errorf("balance %q: %w", key, err)
		}

		outputs[i] = database.Output{
			Value:     g.Balances[key],
			PublicKey: publicKey,
		}
	}

	coinbase, err := database.NewCoinbase("", outputs...)
	if err != nil {
		return database.Block{}, err
	}

	return database.NewGenesisBlock(coinbase), nil
}
