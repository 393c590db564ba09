// Package signature provides helper functions for handling the blockchain
// signature and hashing needs. Everything else in the ledger treats these
// functions as an opaque service: bytes in, bytes or a verdict out.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Set of error variables for signature verification.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the message. The signature is
// returned in the 65 byte [R|S|V] format.
func Sign(message []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is required")
	}

	// Sign the stamped hash with the private key to produce a signature.
	sig, err := crypto.Sign(stamp(message), privateKey)
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// Verify checks the signature was produced over the message by the owner of
// the public key. The public key may be in the compressed or uncompressed
// format. Any malformed input is reported as a failed verification.
func Verify(publicKey []byte, message []byte, sig []byte) error {
	switch len(publicKey) {
	case 33:
		if _, err := crypto.DecompressPubkey(publicKey); err != nil {
			return ErrInvalidPublicKey
		}
	case 65:
		if _, err := crypto.UnmarshalPubkey(publicKey); err != nil {
			return ErrInvalidPublicKey
		}
	default:
		return ErrInvalidPublicKey
	}

	// The recovery id is not needed to verify, only the [R|S] values.
	switch len(sig) {
	case crypto.SignatureLength:
		sig = sig[:crypto.RecoveryIDOffset]
	case crypto.RecoveryIDOffset:
	default:
		return ErrInvalidSignature
	}

	if !crypto.VerifySignature(publicKey, stamp(message), sig) {
		return ErrInvalidSignature
	}

	return nil
}

// PublicKeyBytes returns the uncompressed bytes of the public key. This is
// the form stored as the owner of an output.
func PublicKeyBytes(pk ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(&pk)
}

// SignatureString returns the signature as a string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this message with
// the ledger stamp embedded into the final hash.
func stamp(message []byte) []byte {

	// Hash the message into a 32 byte array. This will provide
	// a data length consistency with all messages.
	msgHash := crypto.Keccak256(message)

	// This stamp is used so signatures we produce when signing messages
	// are always unique to the ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, msgHash)
}
