// Package gossip implements the participants of a round based network that
// floods candidate transactions between peers and votes on which of them to
// commit. A harness drives every node once per round: it seeds pending
// transactions, collects what each node sends and delivers it as candidates
// to every node following the sender.
package gossip

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/validate"
	mapset "github.com/deckarep/golang-set/v2"
)

// List of the different node behaviors.
const (
	KindCompliant = "compliant"
	KindLazy      = "lazy"
	KindMalicious = "malicious"
	KindSilent    = "silent"
)

// Map of the node behaviors with their constructors.
var kinds = map[string]func(cfg Config) Node{
	KindCompliant: newCompliant,
	KindLazy:      newLazy,
	KindMalicious: newMalicious,
	KindSilent:    newSilent,
}

// =============================================================================

// Candidate is a transaction received from a followee.
type Candidate struct {
	Tx     database.Tx
	Sender int
}

// Node is the behavior of a participant in the network.
type Node interface {

	// SetFollowees is called once before the first round. Entry i is true
	// when this node follows node i.
	SetFollowees(followees []bool)

	// SetPendingTransactions seeds transactions into the node.
	SetPendingTransactions(txs []database.Tx)

	// SendToFollowers returns what the node broadcasts this round. Once the
	// round budget is spent it returns the node's consensus.
	SendToFollowers() []database.Tx

	// ReceiveFromFollowees delivers what the followees sent this round.
	ReceiveFromFollowees(candidates []Candidate)
}

// Config represents the parameters of the network every node is told about.
type Config struct {
	PGraph          float64 `json:"p_graph" validate:"gte=0,lte=1"`
	PMalicious      float64 `json:"p_malicious" validate:"gte=0,lte=1"`
	PTxDistribution float64 `json:"p_tx_distribution" validate:"gte=0,lte=1"`
	Rounds          int     `json:"rounds" validate:"gte=0"`
}

// New constructs a node with the specified behavior.
func New(kind string, cfg Config) (Node, error) {
	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	fn, exists := kinds[strings.ToLower(kind)]
	if !exists {
		return nil, fmt.Errorf("node kind %q does not exist", kind)
	}

	return fn(cfg), nil
}

// Kinds returns the names of the node behaviors.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// =============================================================================

// txSet is a set of transactions identified by hash.
type txSet struct {
	hashes mapset.Set[string]
	txs    map[string]database.Tx
}

func newTxSet() txSet {
	return txSet{
		hashes: mapset.NewThreadUnsafeSet[string](),
		txs:    make(map[string]database.Tx),
	}
}

func (s txSet) add(tx database.Tx) {
	s.hashes.Add(tx.Hash)
	s.txs[tx.Hash] = tx
}

func (s txSet) contains(tx database.Tx) bool {
	return s.hashes.Contains(tx.Hash)
}

func (s txSet) clear() {
	s.hashes.Clear()
	clear(s.txs)
}

// union returns the transactions in either set, sorted by hash.
func (s txSet) union(other txSet) []database.Tx {
	hashes := s.hashes.Union(other.hashes)

	out := make([]database.Tx, 0, hashes.Cardinality())
	for _, hash := range hashes.ToSlice() {
		tx, exists := s.txs[hash]
		if !exists {
			tx = other.txs[hash]
		}
		out = append(out, tx)
	}

	return sorted(out)
}

// slice returns the transactions sorted by hash.
func (s txSet) slice() []database.Tx {
	out := make([]database.Tx, 0, len(s.txs))
	for _, tx := range s.txs {
		out = append(out, tx)
	}

	return sorted(out)
}

// sorted orders transactions by hash so every run is reproducible.
func sorted(txs []database.Tx) []database.Tx {
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Hash < txs[j].Hash
	})
	return txs
}
