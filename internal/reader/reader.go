package reader

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/stats"
)

// Reader turns an input byte stream into a sequence of Batches. It is a
// leaf: it depends on nothing but its input and the stats event sink.
type Reader struct {
	in             io.Reader
	filter         Filter
	expectSystemID uint8
	statsOut       chan<- stats.Event
	shutdown       *atomic.Bool
	limiter        *rate.Limiter

	offset uint64

	linksSeen  map[uint8]bool
	feesSeen   map[uint16]bool
	systemSeen  bool
	formatSeen  bool
	versionSeen bool
	triggerSeen bool
}

// New builds a Reader over in, filtering CDPs per filter, validating
// system_id against expectSystemID, and emitting typed stat events on
// statsOut. shutdown is polled at every batch boundary so an external
// Ctrl-C handler can stop the scan between batches.
func New(in io.Reader, filter Filter, expectSystemID uint8, statsOut chan<- stats.Event, shutdown *atomic.Bool) *Reader {
	return &Reader{
		in:             in,
		filter:         filter,
		expectSystemID: expectSystemID,
		statsOut:       statsOut,
		shutdown:       shutdown,
		linksSeen:      make(map[uint8]bool),
		feesSeen:       make(map[uint16]bool),
	}
}

// WithLimiter attaches a batch-production rate limiter: Next blocks
// until the limiter admits one batch's worth of CDPs before returning.
// Guards against unbounded memory growth in the per-link channels when
// a validator stalls; nil (the default) disables throttling entirely.
func (r *Reader) WithLimiter(l *rate.Limiter) *Reader {
	r.limiter = l
	return r
}

func (r *Reader) emit(ev stats.Event) {
	if r.statsOut != nil {
		r.statsOut <- ev
	}
}

// Next reads and fills one Batch, returning io.EOF once the stream is
// exhausted (with a possibly non-empty final batch already populated).
// A non-nil, non-EOF error is always a gopastaerr Fatal error.
func (r *Reader) Next() (Batch, error) {
	var b Batch
	for b.Len < Cap {
		if r.shutdown != nil && r.shutdown.Load() {
			return b, nil
		}

		item, matched, err := r.readOne()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return b, io.EOF
			}
			var ge *gopastaerr.Error
			if errors.As(err, &ge) {
				ge.Fatal = true
			}
			return b, err
		}
		if matched {
			b.Items[b.Len] = item
			b.Len++
		}
	}
	r.throttle(b.Len)
	return b, nil
}

// throttle blocks until the limiter admits n events, a no-op when no
// limiter is attached.
func (r *Reader) throttle(n int) {
	if r.limiter == nil || n == 0 {
		return
	}
	_ = r.limiter.WaitN(context.Background(), n)
}

func (r *Reader) readOne() (Item, bool, error) {
	hdr8 := make([]byte, rdh.RDH0Size)
	if _, err := io.ReadFull(r.in, hdr8); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Item{}, false, io.EOF
		}
		return Item{}, false, gopastaerr.NewFatal("reader.readOne", gopastaerr.CodeReadFailure, err.Error())
	}

	r0, err := rdh.DecodeRDH0(hdr8)
	if err != nil {
		return Item{}, false, gopastaerr.Wrap("reader.readOne", err)
	}
	if err := r0.Sanity(r.expectSystemID); err != nil {
		return Item{}, false, gopastaerr.Wrap("reader.readOne", err)
	}

	rest := make([]byte, rdh.Size-rdh.RDH0Size)
	if _, err := io.ReadFull(r.in, rest); err != nil {
		return Item{}, false, gopastaerr.NewFatal("reader.readOne", gopastaerr.CodeReadFailure, "truncated RDH: "+err.Error())
	}
	full := append(append([]byte{}, hdr8...), rest...)
	h, err := rdh.Decode(full)
	if err != nil {
		return Item{}, false, gopastaerr.Wrap("reader.readOne", err)
	}
	if err := h.Sanity(r.expectSystemID); err != nil {
		return Item{}, false, gopastaerr.Wrap("reader.readOne", err)
	}

	memOffset := r.offset
	r.offset += uint64(h.OffsetToNext)

	r.emit(stats.RDHSeen())
	if !r.systemSeen {
		r.systemSeen = true
		r.emit(stats.SystemIDEvent(h.SystemID))
	}
	if !r.formatSeen {
		r.formatSeen = true
		r.emit(stats.DataFormat(h.DataFormat))
	}
	if !r.versionSeen {
		r.versionSeen = true
		r.emit(stats.RDHVersion(h.HeaderID))
	}
	if !r.triggerSeen {
		r.triggerSeen = true
		r.emit(stats.RunTriggerType(h.TriggerType))
	}
	if !r.linksSeen[h.LinkID] {
		r.linksSeen[h.LinkID] = true
		r.emit(stats.LinkObserved(h.LinkID))
	}
	if !r.feesSeen[uint16(h.FeeID)] {
		r.feesSeen[uint16(h.FeeID)] = true
		r.emit(stats.FeeIDObserved(uint16(h.FeeID)))
		r.emit(stats.LayerStaveSeen(h.FeeID.Layer(), h.FeeID.Stave()))
	}
	if h.StopBit == 1 {
		r.emit(stats.HBFSeen())
	}
	r.emit(stats.TriggerType(h.TriggerType))

	if !r.filter.Matches(h) {
		r.emit(stats.RDHFiltered())
		if err := r.skip(int(h.PayloadSize())); err != nil {
			return Item{}, false, err
		}
		return Item{}, false, nil
	}

	payloadSize := h.PayloadSize()
	payload := getBuffer(payloadSize)
	if payloadSize > 0 {
		if _, err := io.ReadFull(r.in, payload); err != nil {
			return Item{}, false, gopastaerr.NewFatal("reader.readOne", gopastaerr.CodeReadFailure, "truncated payload: "+err.Error())
		}
	}
	r.emit(stats.PayloadSize(uint64(payloadSize)))

	return Item{RDH: h, Payload: payload, MemOffset: memOffset}, true, nil
}

// skip discards n bytes from a non-seekable input.
func (r *Reader) skip(n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r.in, int64(n)); err != nil {
		return gopastaerr.NewFatal("reader.skip", gopastaerr.CodeReadFailure, err.Error())
	}
	return nil
}
