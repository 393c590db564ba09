package public

import "github.com/ardanlabs/ledger/foundation/blockchain/chain"

type submitted struct {
	Status string `json:"status"`
	Hash   string `json:"hash"`
}

type utxo struct {
	chain.UTXOInfo
	Name string `json:"name"`
}
