package simulation_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/gossip"
	"github.com/ardanlabs/ledger/foundation/blockchain/gossip/simulation"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/stretchr/testify/require"
)

func newTx(t *testing.T, value float64) database.Tx {
	tx, err := database.NewCoinbase(signature.Hash(value), database.Output{Value: value})
	require.NoError(t, err)
	return tx
}

func triangle() [][]bool {
	return [][]bool{
		{false, true, true},
		{true, false, true},
		{true, true, false},
	}
}

func TestTriangle(t *testing.T) {
	tx := newTx(t, 1)

	sim, err := simulation.NewWithGraph(simulation.Config{Network: gossip.Config{Rounds: 2}}, simulation.Graph{
		Followees: triangle(),
		Malicious: make([]bool, 3),
		Pending:   [][]database.Tx{{tx}},
	})
	require.NoError(t, err)

	result := sim.Run()
	for node := range 3 {
		require.Equal(t, []string{tx.Hash}, result.Committed(node), "node %d", node)
	}
	require.True(t, result.Agreed())

	again := sim.Run()
	require.Equal(t, result, again, "a network runs once")
}

func TestSilentPeer(t *testing.T) {
	tx := newTx(t, 1)

	// Three honest nodes in a triangle all following a crashed fourth node.
	// With a quarter of followees expected malicious the threshold is two.
	followees := [][]bool{
		{false, true, true, true},
		{true, false, true, true},
		{true, true, false, true},
		{true, true, true, false},
	}

	sim, err := simulation.NewWithGraph(simulation.Config{
		MaliciousKind: gossip.KindSilent,
		Network:       gossip.Config{PMalicious: 0.25, Rounds: 2},
	}, simulation.Graph{
		Followees: followees,
		Malicious: []bool{false, false, false, true},
		Pending:   [][]database.Tx{{tx}},
	})
	require.NoError(t, err)

	result := sim.Run()
	require.Equal(t, []int{0, 1, 2}, result.Honest())
	for _, node := range result.Honest() {
		require.Equal(t, []string{tx.Hash}, result.Committed(node), "node %d", node)
	}
	require.Empty(t, result.Committed(3))
	require.True(t, result.Agreed())
}

func TestAttackerOnly(t *testing.T) {
	tx := newTx(t, 1)

	// Node 2 is the only source of the transaction and floods it in the
	// last rounds. Nodes 0 and 1 need two vouchers and only follow each
	// other and the attacker, so the single voice never reaches the bar
	// before the rounds run out.
	sim, err := simulation.NewWithGraph(simulation.Config{Network: gossip.Config{Rounds: 1}}, simulation.Graph{
		Followees: triangle(),
		Malicious: []bool{false, false, true},
		Pending:   [][]database.Tx{nil, nil, {tx}},
	})
	require.NoError(t, err)

	result := sim.Run()
	require.Empty(t, result.Committed(0))
	require.Empty(t, result.Committed(1))
	require.True(t, result.Agreed())
}

func TestConvergence(t *testing.T) {
	sim, err := simulation.New(simulation.Config{
		Nodes:        10,
		Transactions: 20,
		Seed:         7,
		Network: gossip.Config{
			PGraph:          1,
			PMalicious:      0,
			PTxDistribution: 0.2,
			Rounds:          3,
		},
	})
	require.NoError(t, err)

	result := sim.Run()
	require.Len(t, result.Honest(), 10)
	require.True(t, result.Agreed())
	require.NotEmpty(t, result.Committed(0))
}

func TestReproducible(t *testing.T) {
	cfg := simulation.Config{
		Nodes:        20,
		Transactions: 50,
		Seed:         42,
		Network: gossip.Config{
			PGraph:          0.3,
			PMalicious:      0.15,
			PTxDistribution: 0.05,
			Rounds:          10,
		},
	}

	sim1, err := simulation.New(cfg)
	require.NoError(t, err)
	sim2, err := simulation.New(cfg)
	require.NoError(t, err)

	require.Equal(t, sim1.Run(), sim2.Run())
}

func TestBadInput(t *testing.T) {
	_, err := simulation.New(simulation.Config{Nodes: 0})
	require.Error(t, err)

	_, err = simulation.NewWithGraph(simulation.Config{}, simulation.Graph{
		Followees: [][]bool{{false, true}},
		Malicious: []bool{false},
	})
	require.ErrorIs(t, err, simulation.ErrGraph)

	_, err = simulation.NewWithGraph(simulation.Config{MaliciousKind: "byzantine"}, simulation.Graph{
		Followees: triangle(),
		Malicious: []bool{false, false, true},
	})
	require.Error(t, err)
}
