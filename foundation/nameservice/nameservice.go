// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup between account names and their public keys.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	names map[string]string
	keys  map[string][]byte
}

// New constructs a name service with accounts from the specified folder. The
// name of an account is the name of its key file.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
		keys:  make(map[string][]byte),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(path.Base(fileName), ".ecdsa")
		publicKey := signature.PublicKeyBytes(privateKey.PublicKey)

		ns.names[hexutil.Encode(publicKey)] = name
		ns.keys[name] = publicKey

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key. An unknown key is
// returned in hex.
func (ns *NameService) Lookup(publicKey []byte) string {
	key := hexutil.Encode(publicKey)

	name, exists := ns.names[key]
	if !exists {
		return key
	}
	return name
}

// Resolve returns the public key for a name. Anything that is not a known
// name is decoded as a hex public key.
func (ns *NameService) Resolve(nameOrKey string) ([]byte, error) {
	if publicKey, exists := ns.keys[nameOrKey]; exists {
		return publicKey, nil
	}

	publicKey, err := hexutil.Decode(nameOrKey)
	if err != nil {
		return nil, fmt.Errorf("%q is not a known name or a public key: %w", nameOrKey, err)
	}
	return publicKey, nil
}

// Copy returns a copy of the map of public keys and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for key, name := range ns.names {
		cpy[key] = name
	}
	return cpy
}
