// Package controller owns the stats collector thread, the shutdown flag,
// and the max-tolerate-errors policy, tying the reader/dispatcher
// pipeline to OS signal handling the way the teacher's command wires a
// device lifecycle to SIGINT/SIGTERM.
package controller

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/ehrlich-b/gopasta/internal/logging"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/stats"
	"github.com/ehrlich-b/gopasta/internal/validator"
)

// Config carries the knobs the controller needs beyond the pipeline
// pieces it's handed.
type Config struct {
	// MaxTolerateErrors is forwarded to the Collector verbatim; 0 means
	// unlimited.
	MaxTolerateErrors uint32
}

// Controller drives a Reader through a Dispatcher into a Collector,
// honoring the shutdown flag both threads poll and reacting to
// SIGINT/SIGTERM/SIGHUP the way spec.md §5 describes: a first signal
// requests graceful drain, a second forces immediate exit.
type Controller struct {
	cfg      Config
	log      *logging.Logger
	shutdown atomic.Bool

	collector *stats.Collector
	sigCh     chan os.Signal
	sink      func(reader.Batch) error
}

// SetBatchSink wires an optional passthrough for every matched batch,
// called right after Dispatch each iteration; the -o/--output writer
// uses this to mirror filtered CDPs to a second destination while the
// dispatcher still validates them. A sink error is fatal and stops the
// run the same way a reader error does.
func (c *Controller) SetBatchSink(sink func(reader.Batch) error) {
	c.sink = sink
}

// New builds a Controller with its own Collector, wired to bufSize
// buffered stat events.
func New(cfg Config, bufSize int, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.Default()
	}
	c := &Controller{
		cfg:       cfg,
		log:       log,
		collector: stats.NewCollector(bufSize),
	}
	c.collector.MaxTolerateErrors = cfg.MaxTolerateErrors
	return c
}

// Collector exposes the underlying stats collector so the caller can
// hand its In channel to a Reader and a Dispatcher.
func (c *Controller) Collector() *stats.Collector { return c.collector }

// ShutdownFlag returns the atomic bool Reader.New expects; the
// Controller itself flips it on a Fatal event or an OS signal.
func (c *Controller) ShutdownFlag() *atomic.Bool { return &c.shutdown }

// Run starts the signal handler and the collector's drain loop, then
// pumps CDPs from r through d until the reader hits EOF, a fatal error,
// or the error budget is exceeded. It closes the dispatcher and the
// collector's input channel before returning, so Finalize is always
// safe to call once Run returns.
func (c *Controller) Run(r *reader.Reader, d *validator.Dispatcher) error {
	c.installSignalHandler()
	defer c.stopSignalHandler()

	collectorDone := make(chan struct{})
	go func() {
		c.collector.Run(c.log)
		close(collectorDone)
	}()

	var runErr error
loop:
	for {
		if c.shutdown.Load() {
			c.log.Warn("shutdown requested, stopping scan")
			break loop
		}

		b, err := r.Next()
		d.Dispatch(b)
		if c.sink != nil {
			if sinkErr := c.sink(b); sinkErr != nil {
				c.log.Error("batch sink failed, stopping scan", "error", sinkErr)
				runErr = sinkErr
				c.shutdown.Store(true)
				break loop
			}
		}

		if c.collector.ErrorBudgetExceeded() {
			c.log.Warn("error budget exceeded, stopping scan")
			break loop
		}

		if c.collector.FatalSeen() {
			c.log.Warn("fatal event received, stopping scan")
			c.shutdown.Store(true)
			break loop
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			c.collector.In <- stats.FatalEvent(err.Error())
			runErr = err
			c.shutdown.Store(true)
			break loop
		}
	}

	d.Join()
	close(c.collector.In)
	<-collectorDone

	return runErr
}

// installSignalHandler arranges for SIGINT/SIGTERM/SIGHUP to set the
// shutdown flag; a second signal of any kind exits the process
// immediately with a non-zero code, matching the "second signal within
// the same run exits immediately" rule.
func (c *Controller) installSignalHandler() {
	c.sigCh = make(chan os.Signal, 1)
	signal.Notify(c.sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		first := true
		for range c.sigCh {
			if !first {
				c.log.Error("second signal received, exiting immediately")
				os.Exit(130)
			}
			first = false
			c.log.Info("received shutdown signal")
			c.shutdown.Store(true)
		}
	}()
}

func (c *Controller) stopSignalHandler() {
	if c.sigCh != nil {
		signal.Stop(c.sigCh)
		close(c.sigCh)
	}
}
