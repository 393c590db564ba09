package chain

import (
	"errors"
	"fmt"
)

// Set of error variables for block processing.
var (
	ErrNotGenesis       = errors.New("genesis block declares a parent")
	ErrDuplicateGenesis = errors.New("block declares no parent, chain already has a genesis")
	ErrUnknownParent    = errors.New("parent block is not retained")
	ErrBlockHash        = errors.New("block hash does not match its contents")
	ErrKnownBlock       = errors.New("block is already retained")
	ErrCoinbase         = errors.New("coinbase is not finalized")
	ErrTxHash           = errors.New("transaction hash does not match its contents")
	ErrNoTransactions   = errors.New("no valid transactions in mempool")
	ErrNotFound         = errors.New("not found")
)

// InvalidTransactionError is returned when a transaction in a block can't be
// applied to the state left by the transactions before it.
type InvalidTransactionError struct {
	Index int
	Hash  string
	Err   error
}

// Error implements the error interface.
func (ite *InvalidTransactionError) Error() string {
	return fmt.Sprintf("tx[%d] %s: %s", ite.Index, ite.Hash, ite.Err)
}

// Unwrap gives access to the validation rule that failed.
func (ite *InvalidTransactionError) Unwrap() error {
	return ite.Err
}

// Accepted reports whether the result of AddBlock means the block is now
// part of the chain.
func Accepted(err error) bool {
	return err == nil
}
