package stats

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/ehrlich-b/gopasta/internal/alpide"
	"github.com/ehrlich-b/gopasta/internal/logging"
)

// Collector is the single consumer of the merged stat-event stream.
// Only the goroutine calling Run mutates its Snapshot; every producer
// holds nothing but a send handle on In. errorCount and fatalSeen are
// the only fields another goroutine (the Controller, polling the error
// budget) may read concurrently with Run, so they're atomics rather
// than plain fields guarded by the single-writer rule above.
type Collector struct {
	In chan Event

	snapshot       Snapshot
	runTriggerSeen bool
	dataFormatSeen bool
	systemIDSeen   bool
	rdhVersionSeen bool
	alpideSeen     bool
	alpideFlags    AlpideReadoutFlags
	chipOrders     map[uint8][]uint8

	errorCount atomic.Uint32
	fatalSeen  atomic.Bool

	// MaxTolerateErrors is the centrally-enforced error budget; 0 means
	// unlimited. ErrorBudgetExceeded reports true once the counted errors
	// reach it.
	MaxTolerateErrors uint32

	// allowedCodes, when non-nil, restricts which E-codes apply actually
	// records and counts; every other code is dropped before it reaches
	// the snapshot or the error budget. nil means no filter.
	allowedCodes map[string]bool
}

// NewCollector allocates a Collector with a buffered event channel.
func NewCollector(bufSize int) *Collector {
	return &Collector{In: make(chan Event, bufSize)}
}

// SetAllowedErrorCodes restricts the collector to only recording and
// counting errors whose code appears in codes; an empty or nil slice
// disables the filter, so every error is recorded again.
func (c *Collector) SetAllowedErrorCodes(codes []string) {
	if len(codes) == 0 {
		c.allowedCodes = nil
		return
	}
	m := make(map[string]bool, len(codes))
	for _, code := range codes {
		m[code] = true
	}
	c.allowedCodes = m
}

// Run drains In until it is closed, applying each event to the running
// snapshot. Call this from exactly one goroutine.
func (c *Collector) Run(log *logging.Logger) {
	for ev := range c.In {
		c.apply(ev, log)
	}
}

// ErrorBudgetExceeded reports whether the centrally-enforced error count
// has reached MaxTolerateErrors (0 = unlimited).
func (c *Collector) ErrorBudgetExceeded() bool {
	if c.MaxTolerateErrors == 0 {
		return false
	}
	return c.errorCount.Load() >= c.MaxTolerateErrors
}

// FatalSeen reports whether a Fatal event has reached the collector.
func (c *Collector) FatalSeen() bool { return c.fatalSeen.Load() }

func (c *Collector) apply(ev Event, log *logging.Logger) {
	r := &c.snapshot.RdhStats
	if r.links == nil {
		r.links = make(map[uint8]bool)
	}
	if r.feeIDs == nil {
		r.feeIDs = make(map[uint16]bool)
	}

	switch ev.Kind {
	case EventRDHSeen:
		r.RdhsSeen++
	case EventRDHFiltered:
		r.RdhsFiltered++
	case EventHBFSeen:
		r.HBFsSeen++
	case EventTriggerType:
		r.TriggerStats.Add(ev.U32)
	case EventPayloadSize:
		r.PayloadSize += ev.U64
	case EventLinkObserved:
		if !r.links[ev.U8] {
			r.links[ev.U8] = true
			r.Links = append(r.Links, ev.U8)
		}
	case EventFeeIDObserved:
		if !r.feeIDs[ev.U16] {
			r.feeIDs[ev.U16] = true
			r.FeeIDs = append(r.FeeIDs, ev.U16)
		}
	case EventSystemID:
		if !c.systemIDSeen {
			c.systemIDSeen = true
			r.SystemID = ev.U8
		}
	case EventRunTriggerType:
		if !c.runTriggerSeen {
			c.runTriggerSeen = true
			r.RunTriggerType = ev.U32
		}
	case EventDataFormat:
		if !c.dataFormatSeen {
			c.dataFormatSeen = true
			r.DataFormat = ev.U8
		}
	case EventRDHVersion:
		if !c.rdhVersionSeen {
			c.rdhVersionSeen = true
			r.RdhVersion = ev.U8
		}
	case EventLayerStaveSeen:
		r.ItsStats.Observe(ev.Layer, ev.Stave)
	case EventAlpideStats:
		c.alpideSeen = true
		addAlpideStats(&c.alpideFlags, ev.AlpideStt)
	case EventChipOrder:
		c.alpideSeen = true
		if c.chipOrders == nil {
			c.chipOrders = make(map[uint8][]uint8)
		}
		if _, ok := c.chipOrders[ev.U8]; !ok {
			c.chipOrders[ev.U8] = ev.ChipOrder
		}
	case EventError:
		if ev.Err != nil && (c.allowedCodes == nil || c.allowedCodes[ev.Err.Code]) {
			c.snapshot.RecordError(*ev.Err)
			c.errorCount.Add(1)
		}
	case EventFatal:
		c.snapshot.ErrorStats.FatalError = ev.Msg
		c.fatalSeen.Store(true)
		if log != nil {
			log.Error("fatal event received", "msg", ev.Msg)
		}
	}
}

func addAlpideStats(flags *AlpideReadoutFlags, s alpide.Stats) {
	flags.ChipTrailersSeen += s.ChipTrailersSeen
	flags.BusyViolations += s.BusyViolations
	flags.DataOverrun += s.DataOverrun
	flags.TransmissionInFatal += s.TransmissionInFatal
	flags.FlushedIncomplete += s.FlushedIncomplete
	flags.StrobeExtended += s.StrobeExtended
	flags.BusyTransitions += s.BusyTransitions
}

// Finalize produces the snapshot the report and any serializer consume.
// staveOf resolves a faulting error's byte offset back to the
// (layer,stave) it fell within, when that mapping is known (single-link
// runs with one FEE id, typically); pass nil to skip stave enrichment.
func (c *Collector) Finalize(staveOf func(offset uint64) (layer, stave uint8, ok bool)) Snapshot {
	if c.alpideSeen {
		c.snapshot.AlpideStats = &AlpideStatsSnapshot{ReadoutFlags: c.alpideFlags}
		if len(c.chipOrders) > 0 {
			lanes := make([]uint8, 0, len(c.chipOrders))
			for laneID := range c.chipOrders {
				lanes = append(lanes, laneID)
			}
			sort.Slice(lanes, func(i, j int) bool { return lanes[i] < lanes[j] })
			for _, laneID := range lanes {
				c.snapshot.AlpideStats.ChipOrders = append(c.snapshot.AlpideStats.ChipOrders, c.chipOrders[laneID])
			}
		}
	}
	c.snapshot.Finalize(staveOf)
	return c.snapshot
}

// FormatError renders a ProtocolError in the canonical
// `0x<HEX>: [E<code>] <message> [b0 b1 ... b9]` shape.
func FormatError(e ProtocolError) string {
	return fmt.Sprintf("0x%X: [%s] %s %s", e.Offset, e.Code, e.Message, formatWordBytes(e.Word))
}

func formatWordBytes(w [10]byte) string {
	out := "["
	for i, b := range w {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%02X", b)
	}
	return out + "]"
}
