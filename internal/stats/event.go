// Package stats collects and finalizes the counters and errors produced
// across every reader and validator goroutine into one StatsSnapshot.
package stats

import "github.com/ehrlich-b/gopasta/internal/alpide"

// EventKind discriminates the payload carried by an Event. A single
// channel of Events, rather than one channel per measurement, lets the
// collector drain everything with one receive loop.
type EventKind int

const (
	EventRDHSeen EventKind = iota
	EventRDHFiltered
	EventHBFSeen
	EventTriggerType
	EventPayloadSize
	EventLinkObserved
	EventFeeIDObserved
	EventSystemID
	EventRunTriggerType
	EventDataFormat
	EventRDHVersion
	EventLayerStaveSeen
	EventAlpideStats
	EventChipOrder
	EventError
	EventFatal
)

// Event is the tagged sum of every measurement the pipeline emits. Only
// the field(s) relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind

	U8        uint8
	U16       uint16
	U32       uint32
	U64       uint64
	Layer     uint8
	Stave     uint8
	AlpideStt alpide.Stats
	ChipOrder []uint8

	Err *ProtocolError
	Msg string
}

// ProtocolError is the (offset, code, word, message) tuple carried
// alongside every E-coded error at emit time, so finalization sorts and
// dedupes on structured fields instead of re-parsing formatted strings.
type ProtocolError struct {
	Offset  uint64
	Code    string
	Word    [10]byte
	Message string
}

// RDHSeen builds the event the reader emits for every RDH it decodes,
// whether or not it passed the active filter.
func RDHSeen() Event { return Event{Kind: EventRDHSeen} }

// RDHFiltered builds the event the reader emits for an RDH the active
// filter rejected.
func RDHFiltered() Event { return Event{Kind: EventRDHFiltered} }

// HBFSeen builds the event emitted once per heartbeat frame (an RDH with
// stop_bit=1 closes one).
func HBFSeen() Event { return Event{Kind: EventHBFSeen} }

// TriggerType builds the event carrying one CDP's RDH trigger_type bits.
func TriggerType(v uint32) Event { return Event{Kind: EventTriggerType, U32: v} }

// PayloadSize builds the event carrying one CDP's payload byte count.
func PayloadSize(v uint64) Event { return Event{Kind: EventPayloadSize, U64: v} }

// LinkObserved builds the event emitted the first time a link id is seen.
func LinkObserved(linkID uint8) Event { return Event{Kind: EventLinkObserved, U8: linkID} }

// FeeIDObserved builds the event emitted the first time a FEE id is seen.
func FeeIDObserved(feeID uint16) Event { return Event{Kind: EventFeeIDObserved, U16: feeID} }

// SystemIDEvent builds the once-per-run event carrying the detector system id.
func SystemIDEvent(v uint8) Event { return Event{Kind: EventSystemID, U8: v} }

// RunTriggerType builds the once-per-run event carrying the first CDP's
// trigger_type, used as the report's headline trigger type.
func RunTriggerType(v uint32) Event { return Event{Kind: EventRunTriggerType, U32: v} }

// DataFormat builds the once-per-run event carrying the RDH data_format.
func DataFormat(v uint8) Event { return Event{Kind: EventDataFormat, U8: v} }

// RDHVersion builds the once-per-run event carrying the RDH header_id.
func RDHVersion(v uint8) Event { return Event{Kind: EventRDHVersion, U8: v} }

// LayerStaveSeen builds the event emitted the first time a (layer,stave)
// pair is observed.
func LayerStaveSeen(layer, stave uint8) Event {
	return Event{Kind: EventLayerStaveSeen, Layer: layer, Stave: stave}
}

// AlpideStatsEvent builds the event an AlpideFrameValidator emits on
// closing a frame.
func AlpideStatsEvent(s alpide.Stats) Event { return Event{Kind: EventAlpideStats, AlpideStt: s} }

// ChipOrderEvent builds the event emitted the first time an outer-barrel
// lane's chip connector order is observed, for the chip_orders_ob custom
// check.
func ChipOrderEvent(laneID uint8, order []uint8) Event {
	return Event{Kind: EventChipOrder, U8: laneID, ChipOrder: order}
}

// ErrorEvent builds a Protocol-class error event.
func ErrorEvent(e *ProtocolError) Event { return Event{Kind: EventError, Err: e} }

// FatalEvent builds a Fatal-class event; receiving one sets the
// controller's shutdown flag.
func FatalEvent(msg string) Event { return Event{Kind: EventFatal, Msg: msg} }
