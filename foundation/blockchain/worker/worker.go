// Package worker proposes blocks in the background for a chain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
)

// DefaultInterval is how often pending transactions are checked for when no
// transaction has signaled a proposal.
const DefaultInterval = 15 * time.Second

// =============================================================================

// Config represents the configuration required to run the worker.
type Config struct {
	Chain       *chain.Chain
	Beneficiary []byte
	Reward      float64
	Interval    time.Duration
	EvHandler   chain.EventHandler
}

// Worker manages the proposal workflow for the chain.
type Worker struct {
	chain        *chain.Chain
	beneficiary  []byte
	reward       float64
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startPropose chan bool
	evHandler    chain.EventHandler
}

// Run creates a worker, registers the worker with the chain, and starts up
// the background process.
func Run(cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	w := Worker{
		chain:        cfg.Chain,
		beneficiary:  cfg.Beneficiary,
		reward:       cfg.Reward,
		ticker:       time.NewTicker(interval),
		shut:         make(chan struct{}),
		startPropose: make(chan bool, 1),
		evHandler:    ev,
	}

	// Register this worker with the chain.
	cfg.Chain.Worker = &w

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.proposeOperations()
	}()

	<-hasStarted

	return &w
}

// =============================================================================
// These methods implement the chain.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalPropose starts a proposal. If there is already a signal pending in
// the channel, just return since a proposal will start.
func (w *Worker) SignalPropose() {
	select {
	case w.startPropose <- true:
		w.evHandler("worker: SignalPropose: proposal signaled")
	default:
	}
}

// =============================================================================

// proposeOperations waits for a signal or the ticker and proposes a block.
func (w *Worker) proposeOperations() {
	w.evHandler("worker: proposeOperations: G started")
	defer w.evHandler("worker: proposeOperations: G completed")

	for {
		select {
		case <-w.startPropose:
			if !w.isShutdown() {
				w.runProposeOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runProposeOperation()
			}
		case <-w.shut:
			w.evHandler("worker: proposeOperations: received shut signal")
			return
		}
	}
}

// runProposeOperation takes the best transactions from the mempool and adds
// a new block to the chain.
func (w *Worker) runProposeOperation() {
	length := w.chain.PendingCount()
	if length == 0 {
		return
	}

	w.evHandler("worker: runProposeOperation: PROPOSE: started: Txs[%d]", length)
	defer w.evHandler("worker: runProposeOperation: PROPOSE: completed")

	block, err := w.chain.ProposeBlock(w.beneficiary, w.reward)
	if err != nil {
		w.evHandler("worker: runProposeOperation: PROPOSE: WARNING: %s", err)
		return
	}

	w.evHandler("worker: runProposeOperation: PROPOSE: newBlk[%s]", block)

	// Transactions may have arrived while the block was built, or may only
	// be valid now their parent is on the chain.
	if length := w.chain.PendingCount(); length > 0 {
		w.evHandler("worker: runProposeOperation: PROPOSE: signal new proposal: Txs[%d]", length)
		w.SignalPropose()
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
