package stats

import "sort"

// TriggerStats counts one bit position per ALICE trigger type, named
// after the bits the CTP sets in an RDH's trigger_type field.
type TriggerStats struct {
	Orbit   uint64 `json:"orbit" toml:"orbit"`
	HB      uint64 `json:"hb" toml:"hb"`
	HBr     uint64 `json:"hbr" toml:"hbr"`
	HC      uint64 `json:"hc" toml:"hc"`
	PhT     uint64 `json:"pht" toml:"pht"`
	PP      uint64 `json:"pp" toml:"pp"`
	Cal     uint64 `json:"cal" toml:"cal"`
	SOT     uint64 `json:"sot" toml:"sot"`
	EOT     uint64 `json:"eot" toml:"eot"`
	SOC     uint64 `json:"soc" toml:"soc"`
	EOC     uint64 `json:"eoc" toml:"eoc"`
	TF      uint64 `json:"tf" toml:"tf"`
	FeRst   uint64 `json:"fe_rst" toml:"fe_rst"`
	RT      uint64 `json:"rt" toml:"rt"`
	RS      uint64 `json:"rs" toml:"rs"`
	LHCGap1 uint64 `json:"lhc_gap1" toml:"lhc_gap1"`
	LHCGap2 uint64 `json:"lhc_gap2" toml:"lhc_gap2"`
	TPCSync uint64 `json:"tpc_sync" toml:"tpc_sync"`
	TPCRst  uint64 `json:"tpc_rst" toml:"tpc_rst"`
	TOF     uint64 `json:"tof" toml:"tof"`
}

// Trigger type bit positions, per the ALICE CTP trigger_type word.
const (
	bitOrbit = 1 << iota
	bitHB
	bitHBr
	bitHC
	bitPhT
	bitPP
	bitCal
	bitSOT
	bitEOT
	bitSOC
	bitEOC
	bitTF
	bitFeRst
	bitRT
	bitRS
	bitLHCGap1
	bitLHCGap2
	bitTPCSync
	bitTPCRst
	bitTOF
)

// Add folds the set bits of one trigger_type value into the per-bit
// counters.
func (t *TriggerStats) Add(triggerType uint32) {
	bump := func(counter *uint64, bit uint32) {
		if triggerType&bit != 0 {
			*counter++
		}
	}
	bump(&t.Orbit, bitOrbit)
	bump(&t.HB, bitHB)
	bump(&t.HBr, bitHBr)
	bump(&t.HC, bitHC)
	bump(&t.PhT, bitPhT)
	bump(&t.PP, bitPP)
	bump(&t.Cal, bitCal)
	bump(&t.SOT, bitSOT)
	bump(&t.EOT, bitEOT)
	bump(&t.SOC, bitSOC)
	bump(&t.EOC, bitEOC)
	bump(&t.TF, bitTF)
	bump(&t.FeRst, bitFeRst)
	bump(&t.RT, bitRT)
	bump(&t.RS, bitRS)
	bump(&t.LHCGap1, bitLHCGap1)
	bump(&t.LHCGap2, bitLHCGap2)
	bump(&t.TPCSync, bitTPCSync)
	bump(&t.TPCRst, bitTPCRst)
	bump(&t.TOF, bitTOF)
}

// LayerStave is one (layer,stave) pair observed during the run.
type LayerStave struct {
	Layer uint8 `json:"0" toml:"-"`
	Stave uint8 `json:"1" toml:"-"`
}

// ItsStats tracks the set of (layer,stave) pairs observed.
type ItsStats struct {
	LayerStaves []LayerStave `json:"layer_staves" toml:"layer_staves"`

	seen map[LayerStave]bool
}

// Observe records a (layer,stave) pair, deduplicating.
func (s *ItsStats) Observe(layer, stave uint8) {
	if s.seen == nil {
		s.seen = make(map[LayerStave]bool)
	}
	ls := LayerStave{Layer: layer, Stave: stave}
	if s.seen[ls] {
		return
	}
	s.seen[ls] = true
	s.LayerStaves = append(s.LayerStaves, ls)
}

// RdhStats is the headline per-run RDH/CDP accounting.
type RdhStats struct {
	RdhsSeen       uint64       `json:"rdhs_seen" toml:"rdhs_seen"`
	RdhsFiltered   uint64       `json:"rdhs_filtered" toml:"rdhs_filtered"`
	RdhVersion     uint8        `json:"rdh_version" toml:"rdh_version"`
	HBFsSeen       uint64       `json:"hbfs_seen" toml:"hbfs_seen"`
	PayloadSize    uint64       `json:"payload_size" toml:"payload_size"`
	DataFormat     uint8        `json:"data_format" toml:"data_format"`
	Links          []uint8      `json:"links" toml:"links"`
	FeeIDs         []uint16     `json:"fee_id" toml:"fee_id"`
	SystemID       uint8        `json:"system_id" toml:"system_id"`
	RunTriggerType uint32       `json:"run_trigger_type" toml:"run_trigger_type"`
	ItsStats       ItsStats     `json:"its_stats" toml:"its_stats"`
	TriggerStats   TriggerStats `json:"trigger_stats" toml:"trigger_stats"`

	links  map[uint8]bool
	feeIDs map[uint16]bool
}

// AlpideReadoutFlags mirrors alpide.Stats with JSON/TOML tags for the
// snapshot's public shape.
type AlpideReadoutFlags struct {
	ChipTrailersSeen    uint64 `json:"chip_trailers_seen" toml:"chip_trailers_seen"`
	BusyViolations      uint64 `json:"busy_violations" toml:"busy_violations"`
	DataOverrun         uint64 `json:"data_overrun" toml:"data_overrun"`
	TransmissionInFatal uint64 `json:"transmission_in_fatal" toml:"transmission_in_fatal"`
	FlushedIncomplete   uint64 `json:"flushed_incomplete" toml:"flushed_incomplete"`
	StrobeExtended      uint64 `json:"strobe_extended" toml:"strobe_extended"`
	BusyTransitions     uint64 `json:"busy_transitions" toml:"busy_transitions"`
}

// AlpideStatsSnapshot is the optional alpide_stats section of the
// snapshot, present only when an AlpideFrameValidator ran.
type AlpideStatsSnapshot struct {
	ReadoutFlags AlpideReadoutFlags `json:"readout_flags" toml:"readout_flags"`
	// ChipOrders holds each outer-barrel lane's observed chip connector
	// order, one entry per lane, sorted by lane id. Empty when no
	// outer-barrel lane carrying chip headers was seen.
	ChipOrders [][]uint8 `json:"chip_orders_ob,omitempty" toml:"chip_orders_ob,omitempty"`
}

// ErrorStats is the error-count/classification section of the snapshot.
type ErrorStats struct {
	FatalError            string   `json:"fatal_error,omitempty" toml:"fatal_error,omitempty"`
	ReportedErrors         []string `json:"reported_errors" toml:"reported_errors"`
	CustomChecksStatsErr   []string `json:"custom_checks_stats_errors" toml:"custom_checks_stats_errors"`
	TotalErrors            uint64   `json:"total_errors" toml:"total_errors"`
	UniqueErrorCodes       []string `json:"unique_error_codes,omitempty" toml:"unique_error_codes,omitempty"`
	StavesWithErrors       []LayerStave `json:"staves_with_errors,omitempty" toml:"staves_with_errors,omitempty"`

	byOffset []ProtocolError
}

// Snapshot is the aggregated, finalized record the collector produces
// at end of run.
type Snapshot struct {
	RdhStats    RdhStats             `json:"rdh_stats" toml:"rdh_stats"`
	ErrorStats  ErrorStats           `json:"error_stats" toml:"error_stats"`
	AlpideStats *AlpideStatsSnapshot `json:"alpide_stats,omitempty" toml:"alpide_stats,omitempty"`
}

// Finalize sorts errors by offset, dedupes error codes, and derives the
// staves-with-errors list by passing each error's offset to staveOf; a
// nil staveOf leaves that list empty. Idempotent: calling it twice
// yields the same result.
func (s *Snapshot) Finalize(staveOf func(offset uint64) (layer, stave uint8, ok bool)) {
	sort.SliceStable(s.ErrorStats.byOffset, func(i, j int) bool {
		return s.ErrorStats.byOffset[i].Offset < s.ErrorStats.byOffset[j].Offset
	})

	s.ErrorStats.ReportedErrors = s.ErrorStats.ReportedErrors[:0]
	seenCode := make(map[string]bool)
	var codes []string
	seenStave := make(map[LayerStave]bool)
	var staves []LayerStave

	for _, e := range s.ErrorStats.byOffset {
		s.ErrorStats.ReportedErrors = append(s.ErrorStats.ReportedErrors, FormatError(e))
		if !seenCode[e.Code] {
			seenCode[e.Code] = true
			codes = append(codes, e.Code)
		}
		if staveOf != nil {
			if layer, stave, ok := staveOf(e.Offset); ok {
				ls := LayerStave{Layer: layer, Stave: stave}
				if !seenStave[ls] {
					seenStave[ls] = true
					staves = append(staves, ls)
				}
			}
		}
	}

	sort.Strings(codes)
	s.ErrorStats.UniqueErrorCodes = codes
	s.ErrorStats.StavesWithErrors = staves
	s.ErrorStats.TotalErrors = uint64(len(s.ErrorStats.byOffset))
}

// RecordError appends a structured error to the pending, unsorted set
// Finalize will sort and dedupe.
func (s *Snapshot) RecordError(e ProtocolError) {
	s.ErrorStats.byOffset = append(s.ErrorStats.byOffset, e)
}
