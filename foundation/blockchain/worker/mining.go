package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/state"
)

// result represents a block found for a mining job.
type result struct {
	job   state.MiningJob
	block database.Block
}

// miningOperations handles mining jobs. Each job runs on its own G so
// different peers mine at the same time.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case job := <-w.jobs:
			if !w.isShutdown() {
				w.startMiningOperation(job)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// resultOperations hands every block found back to the state. Results are
// processed one at a time in the order the searches finished.
func (w *Worker) resultOperations() {
	w.evHandler("worker: resultOperations: G started")
	defer w.evHandler("worker: resultOperations: G completed")

	for {
		select {
		case r := <-w.results:
			w.processResult(r)
		case <-w.shut:
			w.evHandler("worker: resultOperations: received shut signal")
			return
		}
	}
}

// =============================================================================

// startMiningOperation registers the job so it can be cancelled and starts
// the G that performs the search. A job for the same peer and block that is
// already running is replaced.
func (w *Worker) startMiningOperation(job state.MiningJob) {
	ctx, cancel := context.WithCancel(context.Background())

	key := job.String()

	w.mu.Lock()
	if w.isShutdown() {
		w.mu.Unlock()
		cancel()
		return
	}
	if op, exists := w.active[key]; exists {
		w.evHandler("worker: startMiningOperation: MINING: replacing job[%s]", key)
		op.cancel()
	}
	w.nextID++
	id := w.nextID
	w.active[key] = miningOp{id: id, peer: job.Peer, cancel: cancel}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			w.release(key, id)
			w.wg.Done()
		}()

		w.runMiningOperation(ctx, job)
	}()
}

// runMiningOperation performs the search and queues the block found.
func (w *Worker) runMiningOperation(ctx context.Context, job state.MiningJob) {
	w.evHandler("worker: runMiningOperation: MINING: started: job[%s]", job)
	defer w.evHandler("worker: runMiningOperation: MINING: completed: job[%s]", job)

	t := time.Now()
	block, err := w.state.Mine(ctx, job)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete: job[%s]", job)
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	select {
	case w.results <- result{job: job, block: block}:
	case <-ctx.Done():
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: result dropped: job[%s]", job)
	}
}

// processResult applies the block to the state. A cancel can land after the
// search finished, the state checks the block still fits.
func (w *Worker) processResult(r result) {
	var err error
	switch {
	case r.job.ReMine:
		err = w.state.ProcessReMinedBlock(r.job, r.block)
	default:
		err = w.state.ProcessMinedBlock(r.job, r.block)
	}

	switch {
	case errors.Is(err, state.ErrStaleBlock):
		w.evHandler("worker: processResult: MINING: WARNING: %s", err)
	case err != nil:
		w.evHandler("worker: processResult: MINING: ERROR: %s", err)
	}
}

// release removes the job from the active set if it was not replaced.
func (w *Worker) release(key string, id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if op, exists := w.active[key]; exists && op.id == id {
		delete(w.active, key)
	}
}
