// Package testfixture builds byte streams of well-formed (or
// deliberately broken) CDPs for scenario tests, the way the teacher's
// testing.go builds a mock backend: a small accumulator with fluent
// append methods, standing in for a recorded capture file.
package testfixture

import (
	"bytes"

	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/words"
)

// Stream accumulates a sequence of CDPs (RDH + GBT words) into a byte
// buffer suitable for feeding directly to reader.New.
type Stream struct {
	buf bytes.Buffer
}

// NewStream returns an empty stream.
func NewStream() *Stream { return &Stream{} }

// Bytes returns the accumulated stream.
func (s *Stream) Bytes() []byte { return s.buf.Bytes() }

// CDP describes one page to append: a header template (FeeID,
// SystemID, LinkID, etc. already set by the caller) and the GBT words
// making up its payload. OffsetToNext and MemorySize are computed from
// len(Words)*10, overriding whatever the caller set.
type CDP struct {
	RDH   rdh.RDH
	Words []words.GbtWord
}

// Append encodes one CDP and appends it to the stream.
func (s *Stream) Append(c CDP) *Stream {
	h := c.RDH
	payloadSize := uint16(len(c.Words) * words.Size)
	h.MemorySize = rdh.Size + payloadSize
	h.OffsetToNext = h.MemorySize
	s.buf.Write(rdh.Encode(h))
	for _, w := range c.Words {
		s.buf.Write(w[:])
	}
	return s
}

// IHW builds an Index Header Word with the given active-lanes bitmap.
func IHW(activeLanes uint32) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDIHW
	w[0] = byte(activeLanes)
	w[1] = byte(activeLanes >> 8)
	w[2] = byte(activeLanes >> 16)
	w[3] = byte(activeLanes >> 24)
	return w
}

// TDH builds a Trigger Data Header.
func TDH(bc, triggerType uint16, orbit uint32, continuation, noData, internalTrig bool) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDTDH
	w[0] = byte(bc)
	w[1] = byte(bc >> 8)
	flags := triggerType
	if continuation {
		flags |= 1 << 12
	}
	if noData {
		flags |= 1 << 13
	}
	if internalTrig {
		flags |= 1 << 14
	}
	w[2] = byte(flags)
	w[3] = byte(flags >> 8)
	w[4] = byte(orbit)
	w[5] = byte(orbit >> 8)
	w[6] = byte(orbit >> 16)
	w[7] = byte(orbit >> 24)
	return w
}

// TDT builds a Trigger Data Trailer with the given packet_done bit and
// no lane errors.
func TDT(packetDone bool) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDTDT
	if packetDone {
		w[7] = 0x01
	}
	return w
}

// DDW0 builds a Diagnostic Data Word with no error flags set.
func DDW0() words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDDDW0
	return w
}

// CDW builds a Calibration Data Word; calibrationUserField fills the
// low 48 bits, calWordIndex the top 16.
func CDW(calibrationUserField uint64, calWordIndex uint16) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDCDW
	for i := 0; i < 6; i++ {
		w[i] = byte(calibrationUserField >> (8 * i))
	}
	w[6] = byte(calWordIndex)
	w[7] = byte(calWordIndex >> 8)
	return w
}

// InnerDataWord builds an inner-barrel data word addressing lane.
func InnerDataWord(lane uint8, payload [9]byte) words.GbtWord {
	var w words.GbtWord
	w[9] = 0x20 | (lane & 0x1F)
	copy(w[0:9], payload[:])
	return w
}

// SimpleRDH returns an RDH template with the fields every CDP needs:
// a supported version, the matching header size, and the given FEE,
// link, and trigger context. OffsetToNext/MemorySize are overwritten
// by Stream.Append.
func SimpleRDH(feeID rdh.FeeID, linkID uint8, orbit uint32, bc uint16) rdh.RDH {
	return rdh.RDH{
		HeaderID:    7,
		HeaderSize:  rdh.Size,
		FeeID:       feeID,
		SystemID:    32,
		LinkID:      linkID,
		DataFormat:  2,
		Orbit:       orbit,
		BC:          bc,
		TriggerType: 0x1,
	}
}
