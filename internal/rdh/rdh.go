// Package rdh decodes and sanity-checks the 64-byte Raw Data Header that
// prefixes every CDP in the ALICE CRU readout stream.
package rdh

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// Size is the on-wire size of a full RDH, for every header version this
// package supports (header versions >= 6 require HeaderSize == Size).
const Size = 64

// MinHeaderID and MaxHeaderID bound the legal RDH version range.
const (
	MinHeaderID = 3
	MaxHeaderID = 100
)

// MaxOffsetToNextPayload bounds offset_to_next - 64 (the payload size a
// single RDH page may describe).
const MaxOffsetToNextPayload = 0x4FFF

// MaxBC is the largest legal 12-bit bunch-crossing value.
const MaxBC = 0xDEB

// ITSSystemID is the system_id value the ITS detector's RDHs carry.
const ITSSystemID uint8 = 32

// RDH is the decoded 64-byte Raw Data Header.
type RDH struct {
	HeaderID      uint8
	HeaderSize    uint8
	FeeID         FeeID
	PriorityBit   uint8
	SystemID      uint8
	OffsetToNext  uint16
	MemorySize    uint16
	LinkID        uint8
	PacketCounter uint8
	CruID         uint16 // low 12 bits of the cruid_dw field
	DW            uint8  // high 4 bits of the cruid_dw field
	BC            uint16 // 12-bit bunch crossing
	Orbit         uint32
	DataFormat    uint8
	TriggerType   uint32
	PagesCounter  uint16
	StopBit       uint8
	DetectorField uint32
	ParBit        uint16
}

// PayloadSize returns the number of payload bytes following this RDH.
func (r RDH) PayloadSize() int {
	if int(r.MemorySize) < Size {
		return 0
	}
	return int(r.MemorySize) - Size
}

// Decode parses a 64-byte slice into an RDH. It does not sanity-check the
// result; call Sanity for that.
func Decode(buf []byte) (RDH, error) {
	if len(buf) < Size {
		return RDH{}, gopastaerr.New("rdh.Decode", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("need %d bytes, got %d", Size, len(buf)))
	}

	var r RDH
	r.HeaderID = buf[0]
	r.HeaderSize = buf[1]
	r.FeeID = FeeID(binary.LittleEndian.Uint16(buf[2:4]))
	r.PriorityBit = buf[4]
	r.SystemID = buf[5]
	// buf[6:8] reserved0

	r.OffsetToNext = binary.LittleEndian.Uint16(buf[8:10])
	r.MemorySize = binary.LittleEndian.Uint16(buf[10:12])

	r.LinkID = buf[12]
	r.PacketCounter = buf[13]
	cruidDW := binary.LittleEndian.Uint16(buf[14:16])
	r.CruID = cruidDW & 0x0FFF
	r.DW = uint8(cruidDW >> 12)

	bcReserved := binary.LittleEndian.Uint32(buf[16:20])
	r.BC = uint16(bcReserved & 0x0FFF)
	r.Orbit = binary.LittleEndian.Uint32(buf[20:24])

	dataFormatReserved := binary.LittleEndian.Uint64(buf[24:32])
	r.DataFormat = uint8(dataFormatReserved & 0xFF)

	r.TriggerType = binary.LittleEndian.Uint32(buf[32:36])
	r.PagesCounter = binary.LittleEndian.Uint16(buf[36:38])
	r.StopBit = buf[38]
	// buf[39] reserved0

	// buf[40:48] reserved

	r.DetectorField = binary.LittleEndian.Uint32(buf[48:52])
	r.ParBit = binary.LittleEndian.Uint16(buf[52:54])
	// buf[54:56] reserved0
	// buf[56:64] reserved

	return r, nil
}

// Encode serializes an RDH back to 64 bytes. Reserved fields are written as
// zero. Used by the writer collaborator and by tests building fixtures.
func Encode(r RDH) []byte {
	buf := make([]byte, Size)
	buf[0] = r.HeaderID
	buf[1] = r.HeaderSize
	binary.LittleEndian.PutUint16(buf[2:4], uint16(r.FeeID))
	buf[4] = r.PriorityBit
	buf[5] = r.SystemID

	binary.LittleEndian.PutUint16(buf[8:10], r.OffsetToNext)
	binary.LittleEndian.PutUint16(buf[10:12], r.MemorySize)

	buf[12] = r.LinkID
	buf[13] = r.PacketCounter
	cruidDW := (r.CruID & 0x0FFF) | (uint16(r.DW) << 12)
	binary.LittleEndian.PutUint16(buf[14:16], cruidDW)

	bcReserved := uint32(r.BC) & 0x0FFF
	binary.LittleEndian.PutUint32(buf[16:20], bcReserved)
	binary.LittleEndian.PutUint32(buf[20:24], r.Orbit)

	dataFormatReserved := uint64(r.DataFormat)
	binary.LittleEndian.PutUint64(buf[24:32], dataFormatReserved)

	binary.LittleEndian.PutUint32(buf[32:36], r.TriggerType)
	binary.LittleEndian.PutUint16(buf[36:38], r.PagesCounter)
	buf[38] = r.StopBit

	binary.LittleEndian.PutUint32(buf[48:52], r.DetectorField)
	binary.LittleEndian.PutUint16(buf[52:54], r.ParBit)

	return buf
}

// Sanity checks header_id range, header_size consistency, fee_id reserved
// bits, and offset_to_next bounds. Callers pass the expected system id for
// the detector under test.
func (r RDH) Sanity(expectSystemID uint8) error {
	if r.HeaderID < MinHeaderID || r.HeaderID > MaxHeaderID {
		return gopastaerr.New("rdh.Sanity", gopastaerr.CodeUnsupportedRDH,
			fmt.Sprintf("header_id %d out of range [%d,%d]", r.HeaderID, MinHeaderID, MaxHeaderID))
	}
	if r.HeaderID >= 6 && r.HeaderSize != Size {
		return gopastaerr.New("rdh.Sanity", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("header_size %d != %d for header_id %d", r.HeaderSize, Size, r.HeaderID))
	}
	if err := r.FeeID.Sanity(); err != nil {
		return err
	}
	if r.SystemID != expectSystemID {
		return gopastaerr.New("rdh.Sanity", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("system_id %d != expected %d", r.SystemID, expectSystemID))
	}
	if r.OffsetToNext < Size {
		return gopastaerr.New("rdh.Sanity", gopastaerr.CodeBadOffset,
			fmt.Sprintf("offset_to_next %d < %d", r.OffsetToNext, Size))
	}
	if r.OffsetToNext-Size > MaxOffsetToNextPayload {
		return gopastaerr.New("rdh.Sanity", gopastaerr.CodeBadOffset,
			fmt.Sprintf("offset_to_next-%d %d > %#x", Size, r.OffsetToNext-Size, MaxOffsetToNextPayload))
	}
	if r.BC > MaxBC {
		return gopastaerr.New("rdh.Sanity", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("bc %#x > max %#x", r.BC, MaxBC))
	}
	return nil
}

// String renders a compact, single-line summary used by error context and
// the unstyled RDH view.
func (r RDH) String() string {
	return fmt.Sprintf("RDH{v=%d fee=%s link=%d pkt=%d pages=%d stop=%d orbit=%d bc=%#x mem=%d}",
		r.HeaderID, r.FeeID, r.LinkID, r.PacketCounter, r.PagesCounter, r.StopBit, r.Orbit, r.BC, r.MemorySize)
}
