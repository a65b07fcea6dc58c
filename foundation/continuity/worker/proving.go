package worker

import (
	"context"
	"sync"
	"time"
)

// provingOperations handles the proving rounds.
func (w *Worker) provingOperations() {
	w.evHandler("worker: provingOperations: G started")
	defer w.evHandler("worker: provingOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			w.SignalStartProving()
		case <-w.startProving:
			if !w.isShutdown() {
				w.runProvingOperation()
			}
		case <-w.shut:
			w.evHandler("worker: provingOperations: received shut signal")
			return
		}
	}
}

// runProvingOperation performs one complete proving round and folds the
// resulting commitment into the hierarchy.
func (w *Worker) runProvingOperation() {
	w.evHandler("worker: runProvingOperation: PROVING: started")
	defer w.evHandler("worker: runProvingOperation: PROVING: completed")

	// Drain the cancel proving channel before starting.
	select {
	case <-w.cancelProving:
		w.evHandler("worker: runProvingOperation: PROVING: drained cancel channel")
	default:
	}

	// Create a context so proving can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the proving operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelProving:
			w.evHandler("worker: runProvingOperation: PROVING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// This G is performing the proving.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		sc, err := w.state.ProveRound(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runProvingOperation: PROVING: round duration[%v]", duration)

		if err != nil {
			switch {
			case ctx.Err() != nil:
				w.evHandler("worker: runProvingOperation: PROVING: CANCEL: complete")
			default:
				w.evHandler("worker: runProvingOperation: PROVING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runProvingOperation: PROVING: commitment[%x] blk[%d]", sc.CommitmentHash[:8], sc.BlockHeight)
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}
