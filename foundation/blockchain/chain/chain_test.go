package chain_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	keyA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	keyB = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

// =============================================================================

type fixture struct {
	a, b    *ecdsa.PrivateKey
	pubA    []byte
	pubB    []byte
	genesis database.Block
	chain   *chain.Chain
}

// newFixture starts a chain whose genesis block pays 10 to A and 20 to B.
func newFixture(t *testing.T, window int) fixture {
	a, err := crypto.HexToECDSA(keyA)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load key A: %s", failed, err)
	}
	b, err := crypto.HexToECDSA(keyB)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load key B: %s", failed, err)
	}

	f := fixture{
		a:    a,
		b:    b,
		pubA: signature.PublicKeyBytes(a.PublicKey),
		pubB: signature.PublicKeyBytes(b.PublicKey),
	}

	coinbase, err := database.NewCoinbase("", database.Output{Value: 10, PublicKey: f.pubA}, database.Output{Value: 20, PublicKey: f.pubB})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the genesis coinbase: %s", failed, err)
	}
	f.genesis = database.NewGenesisBlock(coinbase)

	f.chain, err = chain.New(chain.Config{
		Genesis:         f.genesis,
		RetentionWindow: window,
		EvHandler:       func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to start the chain: %s", failed, err)
	}

	return f
}

// block builds a block on parent paying the reward to owner.
func block(t *testing.T, parent database.Block, owner []byte, txs ...database.Tx) database.Block {
	coinbase, err := database.NewCoinbase(parent.Hash, database.Output{Value: 25, PublicKey: owner})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build a coinbase: %s", failed, err)
	}
	return database.NewBlock(parent.Hash, coinbase, txs)
}

// pay spends the output at index of prev, owned by key, into a single output
// of value for the receiver.
func pay(t *testing.T, prev database.Tx, index int, key *ecdsa.PrivateKey, value float64, receiver []byte) database.Tx {
	var tx database.Tx
	tx.AddInput(prev.Hash, index)
	tx.AddOutput(value, receiver)
	if err := tx.SignInput(0, key); err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
	}
	tx.Finalize()
	return tx
}

// =============================================================================

func Test_Retention(t *testing.T) {
	t.Log("Given the need to prune blocks far below the tip.")
	{
		f := newFixture(t, 10)

		blocks := []database.Block{f.genesis}
		for i := 1; i <= 12; i++ {
			b := block(t, blocks[i-1], f.pubA)
			if err := f.chain.AddBlock(b); err != nil {
				t.Fatalf("\t%s\tShould be able to add block %d: %s", failed, i, err)
			}
			blocks = append(blocks, b)
		}
		t.Logf("\t%s\tShould be able to add 12 blocks.", success)

		if got := f.chain.MaxHeightBlock().Hash; got != blocks[12].Hash {
			t.Fatalf("\t%s\tShould have the last block as the tip.", failed)
		}
		t.Logf("\t%s\tShould have the last block as the tip.", success)

		status := f.chain.Status()
		if status.Height != 12 || status.Retained != 11 {
			t.Fatalf("\t%s\tShould retain heights 2 through 12: %+v", failed, status)
		}
		t.Logf("\t%s\tShould retain heights 2 through 12.", success)

		for _, i := range []int{0, 1} {
			if _, err := f.chain.QueryBlock(blocks[i].Hash); !errors.Is(err, chain.ErrNotFound) {
				t.Fatalf("\t%s\tShould have pruned height %d: %v", failed, i, err)
			}
		}
		t.Logf("\t%s\tShould have pruned heights 0 and 1.", success)

		if err := f.chain.AddBlock(block(t, f.genesis, f.pubB)); !errors.Is(err, chain.ErrUnknownParent) {
			t.Fatalf("\t%s\tShould not be able to build on the pruned genesis: %v", failed, err)
		}
		t.Logf("\t%s\tShould not be able to build on the pruned genesis.", success)

		if err := f.chain.AddBlock(block(t, blocks[2], f.pubB)); err != nil {
			t.Fatalf("\t%s\tShould be able to build on the lowest retained block: %s", failed, err)
		}
		if got := f.chain.MaxHeightBlock().Hash; got != blocks[12].Hash {
			t.Fatalf("\t%s\tShould not move the tip for a shorter fork.", failed)
		}
		t.Logf("\t%s\tShould be able to build on the lowest retained block.", success)
	}
}

func Test_ForkChoice(t *testing.T) {
	t.Log("Given the need to choose between forks.")
	{
		f := newFixture(t, 10)

		first := block(t, f.genesis, f.pubA)
		second := block(t, f.genesis, f.pubB)

		if err := f.chain.AddBlock(first); err != nil {
			t.Fatalf("\t%s\tShould be able to add the first fork: %s", failed, err)
		}
		if err := f.chain.AddBlock(second); err != nil {
			t.Fatalf("\t%s\tShould be able to add the second fork: %s", failed, err)
		}

		if got := f.chain.MaxHeightBlock().Hash; got != first.Hash {
			t.Fatalf("\t%s\tShould keep the first block on an equal height.", failed)
		}
		t.Logf("\t%s\tShould keep the first block on an equal height.", success)

		third := block(t, second, f.pubA)
		if err := f.chain.AddBlock(third); err != nil {
			t.Fatalf("\t%s\tShould be able to extend the second fork: %s", failed, err)
		}

		if got := f.chain.MaxHeightBlock().Hash; got != third.Hash {
			t.Fatalf("\t%s\tShould switch to the longer fork.", failed)
		}
		t.Logf("\t%s\tShould switch to the longer fork.", success)

		pool := f.chain.MaxHeightPool()
		if pool.Len() != 4 || pool.Balance() != 80 {
			t.Fatalf("\t%s\tShould return the state of the longer fork: utxos[%d] balance[%v]", failed, pool.Len(), pool.Balance())
		}
		t.Logf("\t%s\tShould return the state of the longer fork.", success)

		// The same genesis output can be spent once on each fork.
		tx1 := pay(t, f.genesis.Coinbase, 0, f.a, 10, f.pubB)
		tx2 := pay(t, f.genesis.Coinbase, 0, f.a, 9, f.pubA)

		if err := f.chain.AddBlock(block(t, first, f.pubA, tx1)); err != nil {
			t.Fatalf("\t%s\tShould be able to spend on the first fork: %s", failed, err)
		}
		if err := f.chain.AddBlock(block(t, third, f.pubA, tx2)); err != nil {
			t.Fatalf("\t%s\tShould be able to spend on the second fork: %s", failed, err)
		}
		t.Logf("\t%s\tShould keep a ledger state per fork.", success)

		if err := f.chain.AddBlock(block(t, first, f.pubB, tx1, tx2)); !errors.Is(err, ledger.ErrMissingUTXO) {
			t.Fatalf("\t%s\tShould not be able to double spend on one fork: %v", failed, err)
		}
		t.Logf("\t%s\tShould not be able to double spend on one fork.", success)
	}
}

func Test_AddBlockErrors(t *testing.T) {
	f := newFixture(t, 10)

	valid := pay(t, f.genesis.Coinbase, 0, f.a, 10, f.pubB)
	wrongOwner := pay(t, f.genesis.Coinbase, 1, f.a, 20, f.pubA)

	unfinalized := database.NewBlock(f.genesis.Hash, database.Tx{}, nil)

	badHash := block(t, f.genesis, f.pubA)
	badHash.Hash = signature.ZeroHash

	known := block(t, f.genesis, f.pubB)
	if err := f.chain.AddBlock(known); err != nil {
		t.Fatalf("\t%s\tShould be able to add a block: %s", failed, err)
	}

	type table struct {
		name  string
		block database.Block
		exp   error
	}

	tt := []table{
		{name: "genesis", block: database.NewGenesisBlock(f.genesis.Coinbase), exp: chain.ErrDuplicateGenesis},
		{name: "unknown parent", block: block(t, database.Block{Hash: "0x0102"}, f.pubA), exp: chain.ErrUnknownParent},
		{name: "bad hash", block: badHash, exp: chain.ErrBlockHash},
		{name: "known", block: known, exp: chain.ErrKnownBlock},
		{name: "unfinalized coinbase", block: unfinalized, exp: chain.ErrCoinbase},
		{name: "invalid tx", block: block(t, f.genesis, f.pubA, valid, wrongOwner), exp: ledger.ErrSignature},
	}

	t.Log("Given the need to reject blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
			{
				fn := func(t *testing.T) {
					before := f.chain.Status()

					err := f.chain.AddBlock(tst.block)
					if !errors.Is(err, tst.exp) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right error.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right error.", success, testID)

					if chain.Accepted(err) {
						t.Fatalf("\t%s\tTest %d:\tShould not report the block accepted.", failed, testID)
					}
					if after := f.chain.Status(); after != before {
						t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
				}

				t.Run(tst.name, fn)
			}
		}
	}

	t.Log("Given the need to know which transaction failed.")
	{
		err := f.chain.AddBlock(block(t, f.genesis, f.pubA, valid, wrongOwner))

		var ite *chain.InvalidTransactionError
		if !errors.As(err, &ite) {
			t.Fatalf("\t%s\tShould get back an invalid transaction error: %v", failed, err)
		}
		if ite.Index != 1 || ite.Hash != wrongOwner.Hash {
			t.Fatalf("\t%s\tShould point at the second transaction: %v", failed, ite)
		}
		t.Logf("\t%s\tShould point at the second transaction.", success)
	}
}

func Test_NewErrors(t *testing.T) {
	f := newFixture(t, 10)

	if _, err := chain.New(chain.Config{Genesis: block(t, f.genesis, f.pubA)}); !errors.Is(err, chain.ErrNotGenesis) {
		t.Fatalf("\t%s\tShould not start from a block with a parent: %v", failed, err)
	}
	t.Logf("\t%s\tShould not start from a block with a parent.", success)

	if _, err := chain.New(chain.Config{Genesis: f.genesis, SelectStrategy: "tip"}); err == nil {
		t.Fatalf("\t%s\tShould not start with an unknown strategy.", failed)
	}
	t.Logf("\t%s\tShould not start with an unknown strategy.", success)
}

func Test_ProposeBlock(t *testing.T) {
	t.Log("Given the need to build blocks from pending transactions.")
	{
		f := newFixture(t, 10)

		if _, err := f.chain.ProposeBlock(f.pubA, 25); !errors.Is(err, chain.ErrNoTransactions) {
			t.Fatalf("\t%s\tShould not propose an empty block: %v", failed, err)
		}
		t.Logf("\t%s\tShould not propose an empty block.", success)

		aToB := pay(t, f.genesis.Coinbase, 0, f.a, 9, f.pubB)
		bToA := pay(t, aToB, 0, f.b, 7, f.pubA)
		invalid := pay(t, f.genesis.Coinbase, 1, f.a, 20, f.pubA)

		for _, tx := range []database.Tx{bToA, invalid, aToB} {
			if err := f.chain.AddTransaction(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to add a pending transaction: %s", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to add pending transactions.", success)

		block, err := f.chain.ProposeBlock(f.pubA, 25)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to propose a block: %s", failed, err)
		}
		if len(block.Txs) != 2 || block.Txs[0].Hash != aToB.Hash || block.Txs[1].Hash != bToA.Hash {
			t.Fatalf("\t%s\tShould include the valid chain of transactions: %s", failed, block)
		}
		t.Logf("\t%s\tShould include the valid chain of transactions.", success)

		if got := block.Coinbase.TotalOutput(); got != 28 {
			t.Fatalf("\t%s\tShould mint the reward plus fees: got %v", failed, got)
		}
		t.Logf("\t%s\tShould mint the reward plus fees.", success)

		if f.chain.MaxHeightBlock().Hash != block.Hash {
			t.Fatalf("\t%s\tShould make the block the tip.", failed)
		}
		pending := f.chain.PendingTransactions()
		if len(pending) != 1 || pending[0].Hash != invalid.Hash {
			t.Fatalf("\t%s\tShould leave only the invalid transaction pending: %v", failed, pending)
		}
		t.Logf("\t%s\tShould leave only the invalid transaction pending.", success)

		if _, err := f.chain.ProposeBlock(f.pubA, 25); !errors.Is(err, chain.ErrNoTransactions) {
			t.Fatalf("\t%s\tShould not propose a block without valid transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould not propose a block without valid transactions.", success)

		utxos := f.chain.QueryUTXOs(f.pubA)
		var balance float64
		for _, u := range utxos {
			balance += u.Value
		}
		if balance != 7+25+3 {
			t.Fatalf("\t%s\tShould give A the transfer and the coinbase: got %v", failed, balance)
		}
		if all := f.chain.QueryUTXOs(nil); len(all) != 3 {
			t.Fatalf("\t%s\tShould list every unspent output: got %d", failed, len(all))
		}
		t.Logf("\t%s\tShould give A the transfer and the coinbase.", success)
	}
}

func Test_PendingOnSideBlock(t *testing.T) {
	t.Log("Given the need to keep pending transactions a side block spends.")
	{
		f := newFixture(t, 10)

		first := block(t, f.genesis, f.pubA)
		if err := f.chain.AddBlock(first); err != nil {
			t.Fatalf("\t%s\tShould be able to add the first block: %s", failed, err)
		}

		tx := pay(t, f.genesis.Coinbase, 0, f.a, 9, f.pubB)
		if err := f.chain.AddTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to add a pending transaction: %s", failed, err)
		}

		side := block(t, f.genesis, f.pubB, tx)
		if err := f.chain.AddBlock(side); err != nil {
			t.Fatalf("\t%s\tShould be able to add a side block: %s", failed, err)
		}

		if f.chain.MaxHeightBlock().Hash != first.Hash {
			t.Fatalf("\t%s\tShould keep the first block as the tip.", failed)
		}
		if n := f.chain.PendingCount(); n != 1 {
			t.Fatalf("\t%s\tShould keep the transaction pending: got %d", failed, n)
		}
		t.Logf("\t%s\tShould keep the transaction pending.", success)

		proposed, err := f.chain.ProposeBlock(f.pubA, 25)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to propose on the tip: %s", failed, err)
		}
		if proposed.PrevBlockHash != first.Hash || len(proposed.Txs) != 1 || proposed.Txs[0].Hash != tx.Hash {
			t.Fatalf("\t%s\tShould include the transaction on the tip: %s", failed, proposed)
		}
		if n := f.chain.PendingCount(); n != 0 {
			t.Fatalf("\t%s\tShould drop the transaction once it is on the tip: got %d", failed, n)
		}
		t.Logf("\t%s\tShould include the transaction on the tip.", success)
	}
}

func Test_AddTransactionHash(t *testing.T) {
	t.Log("Given the need to reject pending transactions with a wrong hash.")
	{
		f := newFixture(t, 10)

		valid := pay(t, f.genesis.Coinbase, 1, f.b, 19, f.pubA)
		forged := pay(t, f.genesis.Coinbase, 0, f.a, 9, f.pubB)
		forged.Hash = "0xdeadbeef"

		if err := f.chain.AddTransaction(forged); !errors.Is(err, chain.ErrTxHash) {
			t.Fatalf("\t%s\tShould reject a transaction whose hash does not match: %v", failed, err)
		}
		if err := f.chain.AddTransaction(database.Tx{}); err == nil {
			t.Fatalf("\t%s\tShould reject a transaction that is not finalized.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction whose hash does not match.", success)

		if err := f.chain.AddTransaction(valid); err != nil {
			t.Fatalf("\t%s\tShould be able to add a valid transaction: %s", failed, err)
		}

		proposed, err := f.chain.ProposeBlock(f.pubA, 25)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to propose a block: %s", failed, err)
		}
		if len(proposed.Txs) != 1 || proposed.Txs[0].Hash != valid.Hash {
			t.Fatalf("\t%s\tShould propose the valid transaction: %s", failed, proposed)
		}
		t.Logf("\t%s\tShould propose the valid transaction.", success)
	}
}
