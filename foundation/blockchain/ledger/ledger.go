// Package ledger validates transactions against a ledger state and applies
// batches of them to produce the next ledger state. Every function here is
// pure over its arguments, so it is safe to evaluate against hypothetical
// states.
package ledger

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of error variables for the validation rules. Each names the rule a
// transaction broke.
var (
	ErrMissingUTXO    = errors.New("input claims an output that is not unspent")
	ErrDoubleClaim    = errors.New("input claims an output already claimed by this transaction")
	ErrSignature      = errors.New("input signature does not verify")
	ErrNegativeOutput = errors.New("output value is negative")
	ErrOverspend      = errors.New("outputs exceed inputs")
)

// =============================================================================

// Validate checks the transaction can be applied to the pool:
//
//  1. every input claims an output in the pool
//  2. no output is claimed twice by the transaction
//  3. every input is signed by the owner of the output it claims
//  4. no output value is negative
//  5. the inputs cover the outputs
func Validate(pool database.Pool, tx database.Tx) error {
	_, err := fee(pool, tx)
	return err
}

// IsValid is the boolean form of Validate.
func IsValid(pool database.Pool, tx database.Tx) bool {
	return Validate(pool, tx) == nil
}

// Fee returns the value of the inputs the transaction does not send to an
// output. The transaction must be valid against the pool.
func Fee(pool database.Pool, tx database.Tx) (float64, error) {
	return fee(pool, tx)
}

// Apply validates the transaction and returns the pool with the claimed
// outputs spent and the new outputs added, along with the fee collected.
func Apply(pool database.Pool, tx database.Tx) (database.Pool, float64, error) {
	fee, err := fee(pool, tx)
	if err != nil {
		return pool, 0, err
	}

	for _, input := range tx.Inputs {
		pool = pool.Remove(input.UTXO())
	}
	for i, output := range tx.Outputs {
		pool = pool.Add(tx.UTXO(i), output)
	}

	return pool, fee, nil
}

// ApplyInOrder walks the transactions once in the order given. Each one is
// validated against the state left by the ones accepted before it and is
// dropped if it is not valid.
func ApplyInOrder(pool database.Pool, txs []database.Tx) ([]database.Tx, database.Pool) {
	accepted, pool, _ := applyInOrder(pool, txs)
	return accepted, pool
}

// =============================================================================

// applyInOrder is ApplyInOrder that also reports the total fee collected.
func applyInOrder(pool database.Pool, txs []database.Tx) ([]database.Tx, database.Pool, float64) {
	accepted := make([]database.Tx, 0, len(txs))

	var total float64
	for _, tx := range txs {
		next, fee, err := Apply(pool, tx)
		if err != nil {
			continue
		}

		pool = next
		total += fee
		accepted = append(accepted, tx)
	}

	return accepted, pool, total
}

// fee performs the validation rules and computes the fee in one pass.
func fee(pool database.Pool, tx database.Tx) (float64, error) {
	claimed := make(map[database.UTXO]struct{}, len(tx.Inputs))

	var totalInput float64
	for i, input := range tx.Inputs {
		utxo := input.UTXO()

		output, exists := pool.Output(utxo)
		if !exists {
			return 0, fmt.Errorf("input %d, %s: %w", i, utxo, ErrMissingUTXO)
		}

		if _, exists := claimed[utxo]; exists {
			return 0, fmt.Errorf("input %d, %s: %w", i, utxo, ErrDoubleClaim)
		}
		claimed[utxo] = struct{}{}

		if len(input.Signature) == 0 {
			return 0, fmt.Errorf("input %d: missing: %w", i, ErrSignature)
		}

		payload, err := tx.SigningPayload(i)
		if err != nil {
			return 0, fmt.Errorf("input %d: %s: %w", i, err, ErrSignature)
		}

		if err := signature.Verify(output.PublicKey, payload, input.Signature); err != nil {
			return 0, fmt.Errorf("input %d: %s: %w", i, err, ErrSignature)
		}

		totalInput += output.Value
	}

	var totalOutput float64
	for i, output := range tx.Outputs {

		// Written this way so NaN is rejected as well.
		if !(output.Value >= 0) {
			return 0, fmt.Errorf("output %d, value %v: %w", i, output.Value, ErrNegativeOutput)
		}
		totalOutput += output.Value
	}

	if totalInput < totalOutput {
		return 0, fmt.Errorf("in %v, out %v: %w", totalInput, totalOutput, ErrOverspend)
	}

	return totalInput - totalOutput, nil
}
