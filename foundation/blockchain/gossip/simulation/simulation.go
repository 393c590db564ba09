// Package simulation drives a network of gossip nodes through their rounds
// and collects what every node commits.
package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/gossip"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/validate"
)

// ErrGraph is returned when a fixed topology is not square or doesn't match
// its node flags.
var ErrGraph = errors.New("malformed graph")

// Config represents the parameters of a simulation.
type Config struct {
	Nodes         int           `json:"nodes" validate:"gte=1"`
	Transactions  int           `json:"transactions" validate:"gte=0"`
	HonestKind    string        `json:"honest_kind"`
	MaliciousKind string        `json:"malicious_kind"`
	Seed          int64         `json:"seed"`
	Network       gossip.Config `json:"network"`
}

// Graph is a fixed topology with its seeded transactions.
type Graph struct {
	Followees [][]bool        // Followees[i][j] is true when node i follows node j.
	Malicious []bool          // Malicious[i] is true when node i is not honest.
	Pending   [][]database.Tx // Pending[i] is seeded into node i.
}

// Simulation is a network of nodes ready to run.
type Simulation struct {
	rounds int
	graph  Graph
	nodes  []gossip.Node
	result *Result
}

// New builds a random network. Every ordered pair of nodes is a follow edge
// with probability PGraph, every node is malicious with probability
// PMalicious and every transaction is seeded into every node with
// probability PTxDistribution.
func New(cfg Config) (*Simulation, error) {
	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	net := cfg.Network

	g := Graph{
		Followees: make([][]bool, cfg.Nodes),
		Malicious: make([]bool, cfg.Nodes),
		Pending:   make([][]database.Tx, cfg.Nodes),
	}

	for i := range g.Followees {
		g.Followees[i] = make([]bool, cfg.Nodes)
		for j := range g.Followees[i] {
			if i != j {
				g.Followees[i][j] = rng.Float64() < net.PGraph
			}
		}
	}

	for i := range g.Malicious {
		g.Malicious[i] = rng.Float64() < net.PMalicious
	}

	for i := 0; i < cfg.Transactions; i++ {
		tx, err := newTx(cfg.Seed, i, rng.Float64())
		if err != nil {
			return nil, err
		}

		for node := range g.Pending {
			if rng.Float64() < net.PTxDistribution {
				g.Pending[node] = append(g.Pending[node], tx)
			}
		}
	}

	return NewWithGraph(cfg, g)
}

// NewWithGraph builds a network with a fixed topology. The size of the
// topology overrides Nodes and Transactions in the config.
func NewWithGraph(cfg Config, g Graph) (*Simulation, error) {
	if err := validate.Check(cfg.Network); err != nil {
		return nil, fmt.Errorf("validating network: %w", err)
	}

	n := len(g.Followees)
	if n == 0 || len(g.Malicious) != n || len(g.Pending) > n {
		return nil, ErrGraph
	}
	for _, row := range g.Followees {
		if len(row) != n {
			return nil, ErrGraph
		}
	}

	honest := cfg.HonestKind
	if honest == "" {
		honest = gossip.KindCompliant
	}
	malicious := cfg.MaliciousKind
	if malicious == "" {
		malicious = gossip.KindMalicious
	}

	nodes := make([]gossip.Node, n)
	for i := range nodes {
		kind := honest
		if g.Malicious[i] {
			kind = malicious
		}

		node, err := gossip.New(kind, cfg.Network)
		if err != nil {
			return nil, err
		}

		node.SetFollowees(g.Followees[i])
		if i < len(g.Pending) {
			node.SetPendingTransactions(g.Pending[i])
		}

		nodes[i] = node
	}

	s := Simulation{
		rounds: cfg.Network.Rounds,
		graph:  g,
		nodes:  nodes,
	}

	return &s, nil
}

// Run drives every round and collects each node's consensus. A network can
// only run once, later calls return the same result.
func (s *Simulation) Run() Result {
	if s.result != nil {
		return *s.result
	}

	for round := 0; round < s.rounds; round++ {
		proposals := make([][]database.Tx, len(s.nodes))
		for i, node := range s.nodes {
			proposals[i] = node.SendToFollowers()
		}

		for i, node := range s.nodes {
			var candidates []gossip.Candidate
			for j, follows := range s.graph.Followees[i] {
				if !follows {
					continue
				}
				for _, tx := range proposals[j] {
					candidates = append(candidates, gossip.Candidate{Tx: tx, Sender: j})
				}
			}
			node.ReceiveFromFollowees(candidates)
		}
	}

	r := Result{
		Consensus: make([][]database.Tx, len(s.nodes)),
		Malicious: slices.Clone(s.graph.Malicious),
	}
	for i, node := range s.nodes {
		r.Consensus[i] = node.SendToFollowers()
	}

	s.result = &r
	return r
}

// =============================================================================

// newTx builds a transaction unique to the simulation seed and index.
func newTx(seed int64, index int, value float64) (database.Tx, error) {
	source := signature.Hash(struct {
		Seed  int64 `json:"seed"`
		Index int   `json:"index"`
	}{
		Seed:  seed,
		Index: index,
	})

	return database.NewCoinbase(source, database.Output{Value: value})
}
