package validator

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/fsm"
	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/stats"
	"github.com/ehrlich-b/gopasta/internal/words"
)

// Config carries the run-wide options CdpRunningValidator needs beyond
// the stream itself.
type Config struct {
	// AllChecks enables the stricter "check all" running checks (DDW0
	// stop_bit/pages_counter checks) on top of the always-on sanity
	// checks.
	AllChecks bool
	// TriggerPeriod is the user-supplied expected internal-trigger
	// period in BC units; 0 disables the check. The check runs whether
	// or not TrackAlpide is set.
	TriggerPeriod uint16
	// TrackAlpide enables ALPIDE readout-frame aggregation and the
	// AlpideFrameValidator pass at frame close.
	TrackAlpide bool
	MuteErrors  bool
}

// CdpRunningValidator drives the FSM over one CDP's words, sanity-checks
// each status word, performs the cross-word checks the spec assigns to
// the "continuation"/"after_packet_done"/internal-trigger-period
// variants, and (when enabled) aggregates ALPIDE lane data into readout
// frames.
type CdpRunningValidator struct {
	cfg Config
	fsm *fsm.FSM
	sw  statusWordContainer
	afv *alpideFrameValidator

	currentRDH   rdh.RDH
	rdhMemPos    uint64
	wordCounter  int
	wordPadding  int
	staveLayer   rdh.Layer
	staveRecorded bool

	openFrame *readoutFrame
}

// NewCdpRunningValidator builds a validator for one link.
func NewCdpRunningValidator(cfg Config) *CdpRunningValidator {
	cv := &CdpRunningValidator{cfg: cfg, fsm: fsm.New()}
	if cfg.TrackAlpide {
		cv.afv = newAlpideFrameValidator(cfg.MuteErrors)
	}
	return cv
}

// SetCurrentRDH must be called once per CDP before any Check calls.
func (cv *CdpRunningValidator) SetCurrentRDH(h rdh.RDH, memPos uint64) {
	cv.currentRDH = h
	cv.rdhMemPos = memPos
	cv.wordCounter = 0
	if h.DataFormat == 0 {
		cv.wordPadding = 6
	} else {
		cv.wordPadding = 0
	}
	if cv.cfg.TrackAlpide && !cv.staveRecorded {
		cv.staveRecorded = true
		cv.staveLayer = rdh.LayerOf(h.FeeID.Layer())
	}
}

// ResetFSM forwards to the FSM's Reset; callers log the warning.
func (cv *CdpRunningValidator) ResetFSM() { cv.fsm.Reset() }

// currentWordOffset computes the absolute offset of the word about to be
// checked, per the spec's position-accounting formula.
func (cv *CdpRunningValidator) currentWordOffset() uint64 {
	n := uint64(cv.wordCounter + 1)
	return cv.rdhMemPos + 64 + (n-1)*(10+uint64(cv.wordPadding))
}

// Check advances the FSM by one word, runs the appropriate sanity and
// cross-word checks, and returns every structured error produced.
// statsOut receives AlpideStats events emitted on frame close.
func (cv *CdpRunningValidator) Check(raw words.GbtWord, statsOut chan<- stats.Event) []stats.ProtocolError {
	offset := cv.currentWordOffset()
	cv.wordCounter++

	decoded, decErr := words.Decode(raw)

	noData, packetDone := false, false
	if decErr == nil {
		switch decoded.Kind {
		case words.KindTDH:
			noData = decoded.Status.(words.TDH).NoData
		case words.KindTDT:
			packetDone = decoded.Status.(words.TDT).PacketDone
		}
	}

	kind, fsmErr := cv.fsm.Next(raw.ID(), noData, packetDone)

	var out []stats.ProtocolError
	emit := func(code, format string, args ...any) {
		out = append(out, stats.ProtocolError{Offset: offset, Code: code, Word: raw, Message: fmt.Sprintf(format, args...)})
	}

	if ambErr, ok := asAmbiguous(fsmErr); ok {
		code := ambiguousCode(ambErr.Candidate)
		emit(code, "%v", ambErr)
	}

	switch kind {
	case fsm.KindIHW, fsm.KindIHWContinuation:
		cv.checkIHW(raw, emit)
	case fsm.KindTDH, fsm.KindTDHContinuation, fsm.KindTDHAfterPacketDone:
		cv.checkTDH(raw, kind, emit)
	case fsm.KindTDT:
		cv.checkTDT(raw, statsOut, emit)
	case fsm.KindDDW0:
		cv.checkDDW0(raw, emit)
	case fsm.KindDataWord:
		cv.checkDataWord(raw, emit)
	case fsm.KindCDW:
		cv.checkCDW(raw, emit)
	}

	return out
}

func asAmbiguous(err error) (*fsm.AmbiguousError, bool) {
	if err == nil {
		return nil, false
	}
	ambErr, ok := err.(*fsm.AmbiguousError)
	return ambErr, ok
}

func ambiguousCode(c fsm.Candidate) string {
	switch c {
	case fsm.CandidateTDHOrDDW0:
		return "E990"
	case fsm.CandidateDWOrTDTCDW:
		return "E991"
	case fsm.CandidateDDW0OrTDHOrIHW:
		return "E992"
	default:
		return "E99"
	}
}

func (cv *CdpRunningValidator) checkIHW(raw words.GbtWord, emit func(string, string, ...any)) {
	ihw := words.DecodeIHW(raw)
	if err := ihw.SanityCheck(); err != nil {
		emit("E11", "IHW sanity: %v", err)
	}
	if cv.currentRDH.StopBit != 0 {
		emit("E12", "IHW seen but owning RDH has stop_bit set")
	}
	cv.sw.setIHW(ihw)
}

func (cv *CdpRunningValidator) checkTDH(raw words.GbtWord, kind fsm.Kind, emit func(string, string, ...any)) {
	tdh := words.DecodeTDH(raw)
	if err := tdh.SanityCheck(); err != nil {
		emit("E30", "TDH sanity: %v", err)
	}
	if tdh.TriggerType == 0 && !tdh.InternalTrigger {
		emit("E40", "TDH has neither trigger_type nor internal_trigger set")
	}

	prev := cv.sw.currentTDH

	switch kind {
	case fsm.KindTDHAfterPacketDone:
		if prev != nil && tdh.TriggerBC <= prev.TriggerBC {
			emit("E440", "TDH after packet_done: trigger_bc %#x did not increase from previous %#x", tdh.TriggerBC, prev.TriggerBC)
		}
	case fsm.KindTDHContinuation:
		if !tdh.Continuation {
			emit("E41", "continuation TDH has continuation=0")
		}
		if prev != nil {
			if tdh.TriggerBC != prev.TriggerBC {
				emit("E441", "continuation TDH trigger_bc %#x != previous %#x", tdh.TriggerBC, prev.TriggerBC)
			}
			if tdh.TriggerOrbit != prev.TriggerOrbit {
				emit("E442", "continuation TDH trigger_orbit %d != previous %d", tdh.TriggerOrbit, prev.TriggerOrbit)
			}
			if tdh.TriggerType != prev.TriggerType {
				emit("E443", "continuation TDH trigger_type %#x != previous %#x", tdh.TriggerType, prev.TriggerType)
			}
		}
	default: // fsm.KindTDH: first TDH following an IHW, no continuation
		if tdh.Continuation {
			emit("E42", "first TDH of page has continuation=1")
		}
		if tdh.TriggerOrbit != cv.currentRDH.Orbit {
			emit("E444", "TDH trigger_orbit %d != RDH orbit %d", tdh.TriggerOrbit, cv.currentRDH.Orbit)
		}
		if cv.currentRDH.PagesCounter == 0 && tdh.InternalTrigger {
			if tdh.TriggerBC != cv.currentRDH.BC {
				emit("E445", "TDH trigger_bc %#x != RDH bc %#x", tdh.TriggerBC, cv.currentRDH.BC)
			}
			if tdh.TriggerType != uint16(cv.currentRDH.TriggerType&0x0FFF) {
				emit("E44", "TDH trigger_type %#x != RDH trigger_type[11:0] %#x", tdh.TriggerType, cv.currentRDH.TriggerType&0x0FFF)
			}
		}
	}

	if cv.cfg.TrackAlpide && cv.openFrame == nil && !tdh.Continuation {
		cv.openFrame = newFrame(cv.currentWordOffset(), cv.staveLayer)
	}

	cv.sw.setTDH(tdh)

	if cv.cfg.TriggerPeriod != 0 && cv.sw.prevIntTDH != nil && tdh.InternalTrigger {
		detected := bcDelta(cv.sw.prevIntTDH.TriggerBC, tdh.TriggerBC)
		if detected != cv.cfg.TriggerPeriod {
			emit("E45", "its-trigger-period mismatch: %d != %d", cv.cfg.TriggerPeriod, detected)
		}
	}
}

// bcDelta computes the BC distance between two trigger_bc values,
// handling the wrap at MAX_BC (the orbit's bunch-crossing count).
func bcDelta(prev, cur uint16) uint16 {
	if cur >= prev {
		return cur - prev
	}
	return (words_MaxBC - prev) + cur + 1
}

const words_MaxBC = 0xDEB

func (cv *CdpRunningValidator) checkTDT(raw words.GbtWord, statsOut chan<- stats.Event, emit func(string, string, ...any)) {
	tdt := words.DecodeTDT(raw)
	if err := tdt.SanityCheck(); err != nil {
		emit("E50", "TDT sanity: %v", err)
	}
	cv.sw.setTDT(tdt)

	if cv.cfg.TrackAlpide && tdt.PacketDone {
		if cv.openFrame == nil {
			emit("E59", "TDT packet_done with no frame open")
		} else {
			if err := cv.openFrame.tryClose(cv.currentWordOffset()); err == nil {
				fe := cv.afv.processFrame(cv.openFrame, cv.sw.currentTDT, cv.sw.currentDDW0, func(ev stats.Event) {
					if statsOut != nil {
						statsOut <- ev
					}
				})
				for _, e := range fe.errs {
					emit(e.code, "%s", e.msg)
				}
			}
			cv.openFrame = nil
		}
	}
}

func (cv *CdpRunningValidator) checkDDW0(raw words.GbtWord, emit func(string, string, ...any)) {
	d := words.DecodeDDW0(raw)
	if err := d.SanityCheck(); err != nil {
		emit("E60", "DDW0 sanity: %v", err)
	}
	if d.Index != 0 {
		emit("E60", "DDW0 index %d != 0", d.Index)
	}
	cv.sw.setDDW0(d)

	if cv.cfg.AllChecks {
		if cv.currentRDH.StopBit != 1 {
			emit("E110", "DDW0 seen but RDH stop_bit != 1")
		}
		if cv.currentRDH.PagesCounter == 0 {
			emit("E111", "DDW0 seen but RDH pages_counter == 0")
		}
	}
}

func (cv *CdpRunningValidator) checkDataWord(raw words.GbtWord, emit func(string, string, ...any)) {
	dw, err := words.DecodeDataWord(raw)
	if err != nil {
		emit("E70", "data word decode: %v", err)
		return
	}

	if cv.sw.lastIHW == nil {
		emit("E70", "data word seen before any IHW")
		return
	}

	switch dw.Barrel {
	case words.BarrelInner:
		if !cv.sw.lastIHW.LaneActive(dw.LaneID) {
			emit("E72", "inner barrel lane %d not active in IHW", dw.LaneID)
		}
	case words.BarrelOuter:
		if !cv.sw.lastIHW.LaneActive(dw.LaneID) {
			emit("E71", "outer barrel lane %d not active in IHW", dw.LaneID)
		}
		if dw.Connector > 6 {
			emit("E73", "outer barrel connector %d exceeds max 6", dw.Connector)
		}
	}

	if cv.cfg.TrackAlpide && cv.openFrame != nil {
		cv.openFrame.storeLaneData(dw.LaneID, dw.Payload[:])
	}
}

func (cv *CdpRunningValidator) checkCDW(raw words.GbtWord, emit func(string, string, ...any)) {
	cdw := words.DecodeCDW(raw)
	if err := cdw.SanityCheck(); err != nil {
		emit("E81", "CDW sanity: %v", err)
	}
	prevDiffered := cv.sw.setCDW(cdw)
	if prevDiffered && cdw.CalibrationWordIndex != 0 {
		emit("E81", "calibration_user_fields changed but calibration_word_index != 0")
	}
}
