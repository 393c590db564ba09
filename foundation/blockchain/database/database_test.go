package database_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

// =============================================================================

func Test_PoolSnapshots(t *testing.T) {
	a := database.UTXO{TxHash: "0x01", Index: 0}
	b := database.UTXO{TxHash: "0x01", Index: 1}
	c := database.UTXO{TxHash: "0x02", Index: 0}

	var empty database.Pool
	require.Equal(t, 0, empty.Len())
	require.False(t, empty.Contains(a))

	p1 := empty.Add(a, database.Output{Value: 10}).Add(b, database.Output{Value: 20})
	p2 := p1.Remove(a).Add(c, database.Output{Value: 5})

	require.Equal(t, 0, empty.Len(), "adding must not change the parent snapshot")
	require.Equal(t, 2, p1.Len())
	require.True(t, p1.Contains(a))
	require.False(t, p1.Contains(c))

	require.Equal(t, 2, p2.Len())
	require.False(t, p2.Contains(a))
	require.True(t, p2.Contains(c))

	out, exists := p2.Output(b)
	require.True(t, exists)
	require.Equal(t, 20.0, out.Value)

	require.Equal(t, []database.UTXO{b, c}, p2.UTXOs())
	require.Equal(t, 30.0, p1.Balance())
	require.Equal(t, 25.0, p2.Balance())
}

func Test_PoolManyUpdates(t *testing.T) {
	pool := database.NewPool()
	snapshots := []database.Pool{pool}

	for i := 0; i < 500; i++ {
		pool = pool.Add(database.UTXO{TxHash: "0xaa", Index: i}, database.Output{Value: float64(i)})
		snapshots = append(snapshots, pool)
	}

	for i, snap := range snapshots {
		require.Equal(t, i, snap.Len())
	}

	for i := 0; i < 500; i += 2 {
		pool = pool.Remove(database.UTXO{TxHash: "0xaa", Index: i})
	}
	require.Equal(t, 250, pool.Len())
	require.Equal(t, 500, snapshots[500].Len())
}

func Test_TxLifecycle(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %s", failed, err)
	}
	owner := signature.PublicKeyBytes(pk.PublicKey)

	t.Log("Given the need to build, sign and finalize a transaction.")
	{
		var tx database.Tx
		if err := tx.AddInput("0x01", 0); err != nil {
			t.Fatalf("\t%s\tShould be able to add an input: %s", failed, err)
		}
		if err := tx.AddOutput(10, owner); err != nil {
			t.Fatalf("\t%s\tShould be able to add an output: %s", failed, err)
		}
		if err := tx.SignInput(0, pk); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the input: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to build a transaction.", success)

		payload, err := tx.SigningPayload(0)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to get the signing payload: %s", failed, err)
		}
		if err := signature.Verify(owner, payload, tx.Inputs[0].Signature); err != nil {
			t.Fatalf("\t%s\tShould be able to verify the input signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to verify the input signature.", success)

		if err := tx.Finalize(); err != nil {
			t.Fatalf("\t%s\tShould be able to finalize: %s", failed, err)
		}
		if tx.Hash != tx.ComputeHash() {
			t.Fatalf("\t%s\tShould assign the computed hash.", failed)
		}
		t.Logf("\t%s\tShould assign the computed hash.", success)

		if err := tx.AddOutput(1, owner); !errors.Is(err, database.ErrFinalized) {
			t.Fatalf("\t%s\tShould not be able to change a finalized transaction: %v", failed, err)
		}
		if err := tx.SetSignature(0, nil); !errors.Is(err, database.ErrFinalized) {
			t.Fatalf("\t%s\tShould not be able to re-sign a finalized transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould not be able to change a finalized transaction.", success)

		if _, err := tx.SigningPayload(1); !errors.Is(err, database.ErrInputIndex) {
			t.Fatalf("\t%s\tShould reject an out of range input: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an out of range input.", success)
	}
}

func Test_SigningPayloadCoversOutputs(t *testing.T) {
	var tx1, tx2 database.Tx
	tx1.AddInput("0x01", 0)
	tx1.AddOutput(10, []byte{1})
	tx2.AddInput("0x01", 0)
	tx2.AddOutput(11, []byte{1})

	p1, err := tx1.SigningPayload(0)
	require.NoError(t, err)
	p2, err := tx2.SigningPayload(0)
	require.NoError(t, err)

	require.NotEqual(t, p1, p2, "changing an output value must change what is signed")
}

func Test_BlockHash(t *testing.T) {
	cb1, err := database.NewCoinbase("0xaa", database.Output{Value: 25, PublicKey: []byte{1}})
	require.NoError(t, err)
	cb2, err := database.NewCoinbase("0xbb", database.Output{Value: 25, PublicKey: []byte{1}})
	require.NoError(t, err)

	require.NotEqual(t, cb1.Hash, cb2.Hash, "equal rewards on different parents must not collide")

	genesis := database.NewGenesisBlock(cb1)
	require.True(t, genesis.IsGenesis())
	require.Equal(t, genesis.ComputeHash(), genesis.Hash)

	block := database.NewBlock(genesis.Hash, cb2, nil)
	require.False(t, block.IsGenesis())
	require.Equal(t, block.ComputeHash(), block.Hash)
	require.NotEqual(t, genesis.Hash, block.Hash)
}
