// Package worker implements the background proving rounds for a storage
// chain node.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/state"
)

// proveInterval represents the interval between automatic proving rounds.
// A round that is still running when the ticker fires is not interrupted;
// the signal is simply dropped.
const proveInterval = time.Minute

// =============================================================================

// Worker manages the proving workflow for the node.
type Worker struct {
	state         *state.State
	wg            sync.WaitGroup
	ticker        *time.Ticker
	shut          chan struct{}
	startProving  chan bool
	cancelProving chan bool
	evHandler     state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:         st,
		ticker:        time.NewTicker(proveInterval),
		shut:          make(chan struct{}),
		startProving:  make(chan bool, 1),
		cancelProving: make(chan bool, 1),
		evHandler:     evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.provingOperations,
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
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel proving")
	w.SignalCancelProving()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartProving starts a proving round. If there is already a signal
// pending in the channel, just return since a round will start.
func (w *Worker) SignalStartProving() {
	select {
	case w.startProving <- true:
	default:
	}
	w.evHandler("worker: SignalStartProving: proving signaled")
}

// SignalCancelProving signals the G executing the runProvingOperation
// function to stop immediately.
func (w *Worker) SignalCancelProving() {
	select {
	case w.cancelProving <- true:
	default:
	}
	w.evHandler("worker: SignalCancelProving: PROVING: CANCEL: signaled")
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
