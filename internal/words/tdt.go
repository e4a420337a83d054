package words

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// TDT (Trigger Data Trailer) closes an ITS readout frame and carries the
// per-lane status accumulated across it, 2 bits per lane (0=ok, 1=warning,
// 2=error, 3=fault) for up to 28 lanes.
//
// Wire layout (10 bytes):
//
//	[0:4)  lane_status_15_0  (u32, lanes 0-15)
//	[4:6)  lane_status_23_16 (u16, lanes 16-23)
//	[6]    lane_status_27_24 (u8,  lanes 24-27)
//	[7]    packet_done=bit0, reserved bits1-7 must be zero
//	[8]    reserved, must be zero
//	[9]    id (0xF0)
type TDT struct {
	LaneStatus15_0  uint32
	LaneStatus23_16 uint16
	LaneStatus27_24 uint8
	PacketDone      bool
	raw             GbtWord
}

// DecodeTDT decodes a 10-byte GBT word as a TDT.
func DecodeTDT(w GbtWord) TDT {
	return TDT{
		LaneStatus15_0:  binary.LittleEndian.Uint32(w[0:4]),
		LaneStatus23_16: binary.LittleEndian.Uint16(w[4:6]),
		LaneStatus27_24: w[6],
		PacketDone:      w[7]&0x01 != 0,
		raw:             w,
	}
}

func (t TDT) ID() byte { return t.raw.ID() }

func (t TDT) ReservedOK() bool {
	if t.raw[7]&^0x01 != 0 {
		return false
	}
	return t.raw[8] == 0
}

func (t TDT) SanityCheck() error {
	if t.ID() != IDTDT {
		return gopastaerr.New("words.TDT.SanityCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("id %#02x != %#02x", t.ID(), IDTDT))
	}
	if !t.ReservedOK() {
		return gopastaerr.New("words.TDT.SanityCheck", gopastaerr.CodeInvalidInput, "reserved bits set")
	}
	return nil
}

// LaneStatus is the 2-bit status code for a single lane.
type LaneStatus uint8

const (
	LaneStatusOK LaneStatus = iota
	LaneStatusWarning
	LaneStatusError
	LaneStatusFault
)

// LaneStatusOf extracts the 2-bit status for the given lane (0-27).
func (t TDT) LaneStatusOf(lane uint8) LaneStatus {
	switch {
	case lane < 16:
		return LaneStatus((t.LaneStatus15_0 >> (2 * lane)) & 0x3)
	case lane < 24:
		return LaneStatus((t.LaneStatus23_16 >> (2 * (lane - 16))) & 0x3)
	case lane < 28:
		return LaneStatus((t.LaneStatus27_24 >> (2 * (lane - 24))) & 0x3)
	default:
		return LaneStatusOK
	}
}

func (t TDT) String() string {
	return fmt.Sprintf("TDT{packet_done=%v lane_status_15_0=%#08x lane_status_23_16=%#04x lane_status_27_24=%#02x}",
		t.PacketDone, t.LaneStatus15_0, t.LaneStatus23_16, t.LaneStatus27_24)
}

var _ StatusWord = TDT{}
