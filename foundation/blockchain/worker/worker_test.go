package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	keyA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	keyB = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

func TestProposeOnSignal(t *testing.T) {
	a, err := crypto.HexToECDSA(keyA)
	require.NoError(t, err)
	b, err := crypto.HexToECDSA(keyB)
	require.NoError(t, err)

	pubA := signature.PublicKeyBytes(a.PublicKey)
	pubB := signature.PublicKeyBytes(b.PublicKey)

	coinbase, err := database.NewCoinbase("", database.Output{Value: 10, PublicKey: pubA})
	require.NoError(t, err)
	genesis := database.NewGenesisBlock(coinbase)

	c, err := chain.New(chain.Config{Genesis: genesis})
	require.NoError(t, err)

	w := worker.Run(worker.Config{
		Chain:       c,
		Beneficiary: pubB,
		Reward:      25,
		Interval:    time.Hour,
		EvHandler:   func(v string, args ...any) { t.Logf(v, args...) },
	})
	defer w.Shutdown()

	require.Same(t, w, c.Worker)

	var tx database.Tx
	require.NoError(t, tx.AddInput(coinbase.Hash, 0))
	require.NoError(t, tx.AddOutput(9, pubB))
	require.NoError(t, tx.SignInput(0, a))
	require.NoError(t, tx.Finalize())

	require.NoError(t, c.AddTransaction(tx))

	require.Eventually(t, func() bool {
		return c.Status().Height == 1
	}, 5*time.Second, 10*time.Millisecond, "the worker should propose a block")

	tip := c.MaxHeightBlock()
	require.Equal(t, []database.Tx{tx}, tip.Txs)
	require.Equal(t, 26.0, tip.Coinbase.TotalOutput(), "reward plus the fee")
	require.Equal(t, 0, c.PendingCount())
}

func TestShutdownIdle(t *testing.T) {
	coinbase, err := database.NewCoinbase("", database.Output{Value: 10, PublicKey: []byte{1}})
	require.NoError(t, err)

	c, err := chain.New(chain.Config{Genesis: database.NewGenesisBlock(coinbase)})
	require.NoError(t, err)

	w := worker.Run(worker.Config{Chain: c, Beneficiary: []byte{1}, Interval: time.Millisecond})
	time.Sleep(20 * time.Millisecond)
	w.Shutdown()

	require.Equal(t, 0, c.Status().Height, "nothing is proposed without pending transactions")
}
