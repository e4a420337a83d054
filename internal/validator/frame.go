package validator

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/ehrlich-b/gopasta/internal/rdh"
)

// readoutFrame is the byte accumulator for one TDH/TDT-delimited ALPIDE
// readout frame: lane data collected between a TDH with continuation=0
// and the TDT that closes it with packet_done=1. Exclusively owned by
// the CdpRunningValidator that opened it; handed to the frame validator
// by pointer on close.
type readoutFrame struct {
	startOffset uint64
	endOffset   uint64
	closed      bool
	fromLayer   rdh.Layer
	lanes       map[uint8][]byte
}

func newFrame(startOffset uint64, layer rdh.Layer) *readoutFrame {
	return &readoutFrame{startOffset: startOffset, fromLayer: layer, lanes: make(map[uint8][]byte)}
}

func (f *readoutFrame) storeLaneData(laneID uint8, payload []byte) {
	f.lanes[laneID] = append(f.lanes[laneID], payload...)
}

// tryClose closes the frame at endOffset. Fails with E59 if the frame
// was already closed (or nil).
func (f *readoutFrame) tryClose(endOffset uint64) error {
	if f == nil {
		return gopastaerr.New("validator.readoutFrame.tryClose", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("[E59] no frame open to close at offset %#x", endOffset))
	}
	if f.closed {
		return gopastaerr.New("validator.readoutFrame.tryClose", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("[E59] frame already closed, cannot close again at offset %#x", endOffset))
	}
	f.endOffset = endOffset
	f.closed = true
	return nil
}

func (f *readoutFrame) isEmpty() bool {
	for _, data := range f.lanes {
		if len(data) > 0 {
			return false
		}
	}
	return true
}
