// Package database provides the core data model for the ledger: outputs,
// transactions, blocks and the unspent output pool they are applied to.
package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Set of error variables for building transactions.
var (
	ErrFinalized  = errors.New("transaction is finalized")
	ErrInputIndex = errors.New("input index out of range")
)

// =============================================================================

// Input claims a previously produced output.
type Input struct {
	PrevTxHash  string        `json:"prev_tx_hash" validate:"required"`
	OutputIndex int           `json:"output_index" validate:"gte=0"`
	Signature   hexutil.Bytes `json:"signature,omitempty"`
}

// UTXO returns the reference to the output this input claims.
func (in Input) UTXO() UTXO {
	return UTXO{
		TxHash: in.PrevTxHash,
		Index:  in.OutputIndex,
	}
}

// Output is an amount of value owned by a public key.
type Output struct {
	Value     float64       `json:"value"`
	PublicKey hexutil.Bytes `json:"public_key" validate:"required"`
}

// =============================================================================

// Tx is a transfer of value from a set of unspent outputs into a set of new
// outputs. A Tx is built with AddInput, AddOutput and SignInput and then
// sealed with Finalize, which assigns its hash. A finalized transaction can't
// be changed.
type Tx struct {
	Hash    string   `json:"hash" validate:"required"`
	Inputs  []Input  `json:"inputs" validate:"dive"`
	Outputs []Output `json:"outputs" validate:"dive"`
}

// IsFinalized reports whether the transaction hash has been assigned.
func (tx Tx) IsFinalized() bool {
	return tx.Hash != ""
}

// AddInput claims the output at index of the transaction with prevTxHash.
func (tx *Tx) AddInput(prevTxHash string, outputIndex int) error {
	if tx.IsFinalized() {
		return ErrFinalized
	}

	tx.Inputs = append(tx.Inputs, Input{
		PrevTxHash:  prevTxHash,
		OutputIndex: outputIndex,
	})

	return nil
}

// AddOutput creates a new output of value owned by publicKey.
func (tx *Tx) AddOutput(value float64, publicKey []byte) error {
	if tx.IsFinalized() {
		return ErrFinalized
	}

	tx.Outputs = append(tx.Outputs, Output{
		Value:     value,
		PublicKey: publicKey,
	})

	return nil
}

// SignInput signs the payload for the input at index with the private key
// of the owner of the claimed output.
func (tx *Tx) SignInput(index int, privateKey *ecdsa.PrivateKey) error {
	payload, err := tx.SigningPayload(index)
	if err != nil {
		return err
	}

	sig, err := signature.Sign(payload, privateKey)
	if err != nil {
		return fmt.Errorf("signing input %d: %w", index, err)
	}

	return tx.SetSignature(index, sig)
}

// SetSignature attaches a detached signature to the input at index.
func (tx *Tx) SetSignature(index int, sig []byte) error {
	if tx.IsFinalized() {
		return ErrFinalized
	}
	if index < 0 || index >= len(tx.Inputs) {
		return ErrInputIndex
	}

	tx.Inputs[index].Signature = sig
	return nil
}

// Finalize assigns the transaction hash. After this call the transaction is
// immutable.
func (tx *Tx) Finalize() error {
	if tx.IsFinalized() {
		return ErrFinalized
	}

	tx.Hash = tx.ComputeHash()
	return nil
}

// ComputeHash derives the hash from the inputs, signatures included, and
// the outputs.
func (tx Tx) ComputeHash() string {
	raw := struct {
		Inputs  []Input  `json:"inputs"`
		Outputs []Output `json:"outputs"`
	}{
		Inputs:  tx.Inputs,
		Outputs: tx.Outputs,
	}

	return signature.Hash(raw)
}

// SigningPayload returns the canonical bytes the owner of the output claimed
// by the input at index signs: the claimed reference followed by every
// output of the transaction.
func (tx Tx) SigningPayload(index int) ([]byte, error) {
	if index < 0 || index >= len(tx.Inputs) {
		return nil, ErrInputIndex
	}

	var buf bytes.Buffer
	input := tx.Inputs[index]

	writeBytes(&buf, hashBytes(input.PrevTxHash))
	writeUint64(&buf, uint64(input.OutputIndex))

	for _, output := range tx.Outputs {
		writeUint64(&buf, math.Float64bits(output.Value))
		writeBytes(&buf, output.PublicKey)
	}

	return buf.Bytes(), nil
}

// UTXO returns the reference to the output at index produced by this
// transaction.
func (tx Tx) UTXO(index int) UTXO {
	return UTXO{
		TxHash: tx.Hash,
		Index:  index,
	}
}

// TotalOutput sums the value of every output.
func (tx Tx) TotalOutput() float64 {
	var total float64
	for _, output := range tx.Outputs {
		total += output.Value
	}
	return total
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s[in:%d out:%d]", short(tx.Hash), len(tx.Inputs), len(tx.Outputs))
}

// =============================================================================

// hashBytes decodes a hex hash. Anything that is not hex is used as is so
// two different strings never produce the same payload.
func hashBytes(hash string) []byte {
	b, err := hexutil.Decode(hash)
	if err != nil {
		return []byte(hash)
	}
	return b
}

// writeBytes writes a length prefixed byte slice.
func writeBytes(buf *bytes.Buffer, b []byte) {
	var n [binary.MaxVarintLen64]byte
	buf.Write(n[:binary.PutUvarint(n[:], uint64(len(b)))])
	buf.Write(b)
}

// writeUint64 writes a fixed size big endian value.
func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
