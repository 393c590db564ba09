package database

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/benbjohnson/immutable"
)

// UTXO identifies an unspent transaction output by the hash of the
// transaction that produced it and the index within its output list.
type UTXO struct {
	TxHash string `json:"tx_hash"`
	Index  int    `json:"index"`
}

// String implements the fmt.Stringer interface for logging.
func (u UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.TxHash, u.Index)
}

// utxoHasher provides the hashing support the persistent map needs for
// keys that are not one of the builtin types.
type utxoHasher struct{}

// Hash returns a 32 bit hash of the utxo reference.
func (utxoHasher) Hash(u UTXO) uint32 {
	h := fnv.New32a()
	h.Write([]byte(u.TxHash))

	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(u.Index))
	h.Write(idx[:])

	return h.Sum32()
}

// Equal compares two utxo references.
func (utxoHasher) Equal(a, b UTXO) bool {
	return a == b
}

// =============================================================================

// Pool is the ledger state: the set of outputs that can currently be spent.
// A Pool is an immutable value. Add and Remove return a new Pool that shares
// structure with the one they were called on, so every snapshot taken along
// the way stays valid and can be read from many goroutines.
type Pool struct {
	m *immutable.Map[UTXO, Output]
}

// NewPool constructs an empty ledger state.
func NewPool() Pool {
	return Pool{
		m: immutable.NewMap[UTXO, Output](utxoHasher{}),
	}
}

// Len returns the number of unspent outputs.
func (p Pool) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Contains reports whether the utxo can be spent.
func (p Pool) Contains(u UTXO) bool {
	_, exists := p.Output(u)
	return exists
}

// Output returns the output referenced by the utxo.
func (p Pool) Output(u UTXO) (Output, bool) {
	if p.m == nil {
		return Output{}, false
	}
	return p.m.Get(u)
}

// Add returns a new pool that includes the specified output.
func (p Pool) Add(u UTXO, output Output) Pool {
	if p.m == nil {
		p = NewPool()
	}
	return Pool{m: p.m.Set(u, output)}
}

// Remove returns a new pool without the specified utxo.
func (p Pool) Remove(u UTXO) Pool {
	if p.m == nil {
		return p
	}
	return Pool{m: p.m.Delete(u)}
}

// ForEach calls fn for every unspent output until fn returns false. The
// iteration order is not defined.
func (p Pool) ForEach(fn func(u UTXO, output Output) bool) {
	if p.m == nil {
		return
	}

	itr := p.m.Iterator()
	for !itr.Done() {
		u, output, _ := itr.Next()
		if !fn(u, output) {
			return
		}
	}
}

// UTXOs returns every unspent output reference ordered by transaction hash
// and index.
func (p Pool) UTXOs() []UTXO {
	utxos := make([]UTXO, 0, p.Len())
	p.ForEach(func(u UTXO, _ Output) bool {
		utxos = append(utxos, u)
		return true
	})

	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].TxHash != utxos[j].TxHash {
			return utxos[i].TxHash < utxos[j].TxHash
		}
		return utxos[i].Index < utxos[j].Index
	})

	return utxos
}

// Balance sums the value of every unspent output.
func (p Pool) Balance() float64 {
	var total float64
	p.ForEach(func(_ UTXO, output Output) bool {
		total += output.Value
		return true
	})
	return total
}
