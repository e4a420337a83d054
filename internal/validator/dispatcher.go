package validator

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/gopasta/internal/logging"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/stats"
)

// NewLinkValidatorFunc builds the per-link validator the dispatcher
// spawns a worker around, given the link id the dispatcher just
// discovered.
type NewLinkValidatorFunc func(linkID uint8) *LinkValidator

// Dispatcher routes each incoming CDP to a per-link worker goroutine,
// creating one on first sight of a link id. CDPs for a given link are
// processed in the order they arrive; no ordering is guaranteed across
// links.
type Dispatcher struct {
	newValidator NewLinkValidatorFunc
	statsOut     chan<- stats.Event
	log          *logging.Logger

	// CPUAffinity pins each link worker to one CPU, round-robin over
	// this list by link id; nil disables pinning (the common case, and
	// the only case that makes sense on a non-dedicated host).
	CPUAffinity []int

	mu      sync.Mutex
	workers map[uint8]chan reader.Item
	wg      sync.WaitGroup
}

// NewDispatcher builds a Dispatcher. newValidator is called once per
// newly-seen link id, from the dispatching goroutine (never
// concurrently), so it may safely close over shared configuration.
func NewDispatcher(newValidator NewLinkValidatorFunc, statsOut chan<- stats.Event, log *logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Default()
	}
	return &Dispatcher{
		newValidator: newValidator,
		statsOut:     statsOut,
		log:          log,
		workers:      make(map[uint8]chan reader.Item),
	}
}

// Dispatch routes every item of a batch to its link's worker, spawning
// the worker on first sight.
func (d *Dispatcher) Dispatch(b reader.Batch) {
	for i := 0; i < b.Len; i++ {
		item := b.Items[i]
		ch := d.workerFor(item.RDH.LinkID)
		ch <- item
	}
}

func (d *Dispatcher) workerFor(linkID uint8) chan reader.Item {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ch, ok := d.workers[linkID]; ok {
		return ch
	}

	ch := make(chan reader.Item, reader.Cap)
	d.workers[linkID] = ch
	lv := d.newValidator(linkID)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.pinToCPU(linkID)
		for item := range ch {
			lv.ProcessCDP(item, d.statsOut)
			item.Release()
		}
	}()
	d.log.Debug("spawned link worker", "link_id", linkID)
	return ch
}

// pinToCPU, if CPUAffinity is configured, locks the calling worker
// goroutine to an OS thread and pins that thread to one CPU, round-robin
// by link id; with no CPUAffinity it does nothing. A failed affinity call is logged and otherwise ignored;
// validation correctness never depends on which core it ran on.
func (d *Dispatcher) pinToCPU(linkID uint8) {
	if len(d.CPUAffinity) == 0 {
		return
	}
	// Locks for the remainder of the worker goroutine's life; never
	// unlocked, since the goroutine (and the thread it occupies) exits
	// together with the channel closing in Join.
	runtime.LockOSThread()
	cpu := d.CPUAffinity[int(linkID)%len(d.CPUAffinity)]
	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		d.log.Warn("failed to set link worker CPU affinity", "link_id", linkID, "cpu", cpu, "error", err)
	}
}

// Join closes every worker's channel and waits for all of them to drain.
func (d *Dispatcher) Join() {
	d.mu.Lock()
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
