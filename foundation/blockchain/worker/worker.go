// Package worker implements background mining for the simulated network.
package worker

import (
	"context"
	"sync"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/state"
)

// maxMiningRequests represents the max number of pending mining jobs
// before new requests are dropped.
const maxMiningRequests = 100

// =============================================================================

// miningOp tracks a mining job that is currently running.
type miningOp struct {
	id     uint64
	peer   string
	cancel context.CancelFunc
}

// Worker manages the POW workflows for the network.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	shutOnce  sync.Once
	shut      chan struct{}
	jobs      chan state.MiningJob
	results   chan result
	evHandler state.EventHandler

	mu     sync.Mutex
	nextID uint64
	active map[string]miningOp
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:     st,
		shut:      make(chan struct{}),
		jobs:      make(chan state.MiningJob, maxMiningRequests),
		results:   make(chan result, maxMiningRequests),
		evHandler: ev,
		active:    make(map[string]miningOp),
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
		w.resultOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. Mining in progress
// is cancelled and its result dropped. Calling Shutdown again is a no-op.
func (w *Worker) Shutdown() {
	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: started")
		defer w.evHandler("worker: shutdown: completed")

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)

		w.evHandler("worker: shutdown: signal cancel mining")
		w.cancelAll()

		w.wg.Wait()
	})
}

// SignalStartMining queues a mining job. If the queue is full the job is
// dropped and the caller needs to ask again.
func (w *Worker) SignalStartMining(job state.MiningJob) {
	if w.isShutdown() {
		w.evHandler("worker: SignalStartMining: shutting down, job[%s] dropped", job)
		return
	}

	select {
	case w.jobs <- job:
		w.evHandler("worker: SignalStartMining: mining signaled: job[%s]", job)
	default:
		w.evHandler("worker: SignalStartMining: queue full, job[%s] dropped", job)
	}
}

// SignalCancelMining stops every mining job running for the peer. It never
// blocks so it is safe to call while the state is locked.
func (w *Worker) SignalCancelMining(peer string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, op := range w.active {
		if op.peer == peer {
			op.cancel()
			delete(w.active, key)
			w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled: job[%s]", key)
		}
	}
}

// Active returns the number of mining jobs currently running.
func (w *Worker) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.active)
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// cancelAll stops every mining job that is running.
func (w *Worker) cancelAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, op := range w.active {
		op.cancel()
		delete(w.active, key)
	}
}
