package ledger

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyInOrder = "inorder"
	StrategyGreedy  = "greedy"
	StrategyMaxFee  = "maxfee"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyInOrder: ApplyInOrder,
	StrategyGreedy:  ApplyGreedy,
	StrategyMaxFee:  maxFeeSelect,
}

// Func defines a function that takes a ledger state and a batch of candidate
// transactions and returns the transactions it accepted, in the order they
// were applied, along with the resulting ledger state. The input state is
// never modified.
type Func func(pool database.Pool, txs []database.Tx) ([]database.Tx, database.Pool)

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strings.ToLower(strategy)]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// maxFeeSelect runs the exhaustive search when the batch is small enough and
// the greedy approximation otherwise.
func maxFeeSelect(pool database.Pool, txs []database.Tx) ([]database.Tx, database.Pool) {
	accepted, next, err := ApplyMaxFee(pool, txs)
	if err != nil {
		return ApplyGreedy(pool, txs)
	}
	return accepted, next
}
