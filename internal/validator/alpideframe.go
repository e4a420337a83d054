package validator

import (
	"fmt"
	"sort"

	"github.com/ehrlich-b/gopasta/internal/alpide"
	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/stats"
	"github.com/ehrlich-b/gopasta/internal/words"
)

// alpideFrameValidator aggregates lane data across one readout frame and
// performs the cross-lane and intra-lane checks at frame close. Carries
// no per-frame state of its own: the frame it works on is passed in.
// The fatal lane set it accumulates across a whole link's stream is kept
// in fatalLanes.
type alpideFrameValidator struct {
	fatalLanes map[uint8]bool
	muteErrors bool

	// chipOrdersSeen remembers, per outer-barrel lane, whether its chip
	// order has already been reported upstream; the chip connector
	// ordering is fixed for a run, so only the first frame's reading is
	// emitted.
	chipOrdersSeen map[uint8]bool
}

func newAlpideFrameValidator(muteErrors bool) *alpideFrameValidator {
	return &alpideFrameValidator{
		fatalLanes:     make(map[uint8]bool),
		muteErrors:     muteErrors,
		chipOrdersSeen: make(map[uint8]bool),
	}
}

// frameErrors is what processFrame reports for one closed frame: each
// entry carries an E-code and a message; the caller supplies the byte
// offset when wrapping it into a stats.ProtocolError.
type frameErrors struct {
	errs []protoErr
}

type protoErr struct {
	code string
	msg  string
}

func (fe *frameErrors) add(code, format string, args ...any) {
	fe.errs = append(fe.errs, protoErr{code: code, msg: fmt.Sprintf(format, args...)})
}

// processFrame runs the full per-frame validation described by the spec:
// empty-frame detection, per-lane ALPIDE decode, lane-composition check
// against the layer's expected lane count, and AlpideStats emission.
func (v *alpideFrameValidator) processFrame(
	f *readoutFrame,
	lastTDT *words.TDT,
	lastDDW0 *words.DDW0,
	emit func(stats.Event),
) frameErrors {
	var fe frameErrors

	if f.isEmpty() {
		if v.anyFatalReported(lastTDT, lastDDW0) {
			return fe
		}
		fe.add("E701", "empty readout frame [%#x,%#x) with no lane reported fatal", f.startOffset, f.endOffset)
		return fe
	}

	var total alpide.Stats
	for laneID, data := range f.lanes {
		words_, err := alpide.ScanWords(data)
		if err != nil {
			fe.add("E70", "lane %d: %v", laneID, err)
			continue
		}
		r := alpide.DecodeLane(words_)
		total.Add(r.Stats)
		if r.Fatal {
			v.fatalLanes[laneID] = true
		}
		if len(r.Errors) > 0 {
			code := errCodeForBarrel(f.fromLayer)
			for _, msg := range r.Errors {
				if v.muteErrors {
					fe.add(code, "lane %d", laneID)
				} else {
					fe.add(code, "lane %d: %s", laneID, msg)
				}
			}
		}
		if f.fromLayer != rdh.LayerInner && len(r.ChipOrder) > 0 && !v.chipOrdersSeen[laneID] {
			v.chipOrdersSeen[laneID] = true
			emit(stats.ChipOrderEvent(laneID, r.ChipOrder))
		}
	}
	emit(stats.AlpideStatsEvent(total))

	v.checkComposition(f, &fe)

	return fe
}

func (v *alpideFrameValidator) anyFatalReported(lastTDT *words.TDT, lastDDW0 *words.DDW0) bool {
	if lastDDW0 != nil && (lastDDW0.LaneStatus15_0 != 0 || lastDDW0.LaneStatus23_16 != 0 || lastDDW0.LaneStatus27_24 != 0) {
		return true
	}
	if lastTDT != nil && (lastTDT.LaneStatus15_0 != 0 || lastTDT.LaneStatus23_16 != 0 || lastTDT.LaneStatus27_24 != 0) {
		return true
	}
	return false
}

func (v *alpideFrameValidator) checkComposition(f *readoutFrame, fe *frameErrors) {
	expected := f.fromLayer.ExpectedLaneCount()
	var present []int
	for laneID := range f.lanes {
		if v.fatalLanes[laneID] {
			continue
		}
		present = append(present, int(laneID))
	}
	sort.Ints(present)

	if len(present) != expected {
		code := "E72"
		if f.fromLayer != rdh.LayerInner {
			code = "E73"
		}
		fe.add(code, "lane composition %v does not match expected count %d for layer", present, expected)
	}
}

func errCodeForBarrel(layer rdh.Layer) string {
	if layer == rdh.LayerInner {
		return "E74"
	}
	return "E75"
}
