package words

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// DDW0 (Diagnostic Data Word 0) closes an HBF when the link carries no
// further readout frames. It shares the TDT's lane-status bitmap layout
// plus an index and two link-level flags.
//
// Wire layout (10 bytes):
//
//	[0]    index
//	[1:5)  lane_status_15_0  (u32, lanes 0-15)
//	[5:7)  lane_status_23_16 (u16, lanes 16-23)
//	[7]    lane_status_27_24 (u8,  lanes 24-27)
//	[8]    lane_starts_violation=bit0, transmission_timeout=bit1,
//	       reserved bits2-7 must be zero
//	[9]    id (0xE4)
type DDW0 struct {
	Index                uint8
	LaneStatus15_0       uint32
	LaneStatus23_16      uint16
	LaneStatus27_24      uint8
	LaneStartsViolation  bool
	TransmissionTimeout  bool
	raw                  GbtWord
}

// DecodeDDW0 decodes a 10-byte GBT word as a DDW0.
func DecodeDDW0(w GbtWord) DDW0 {
	return DDW0{
		Index:               w[0],
		LaneStatus15_0:      binary.LittleEndian.Uint32(w[1:5]),
		LaneStatus23_16:     binary.LittleEndian.Uint16(w[5:7]),
		LaneStatus27_24:     w[7],
		LaneStartsViolation: w[8]&0x01 != 0,
		TransmissionTimeout: w[8]&0x02 != 0,
		raw:                 w,
	}
}

func (d DDW0) ID() byte { return d.raw.ID() }

func (d DDW0) ReservedOK() bool {
	return d.raw[8]&^0x03 == 0
}

func (d DDW0) SanityCheck() error {
	if d.ID() != IDDDW0 {
		return gopastaerr.New("words.DDW0.SanityCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("id %#02x != %#02x", d.ID(), IDDDW0))
	}
	if !d.ReservedOK() {
		return gopastaerr.New("words.DDW0.SanityCheck", gopastaerr.CodeInvalidInput, "reserved bits set")
	}
	return nil
}

// LaneStatusOf extracts the 2-bit status for the given lane (0-27), using
// the same encoding as TDT.LaneStatusOf.
func (d DDW0) LaneStatusOf(lane uint8) LaneStatus {
	switch {
	case lane < 16:
		return LaneStatus((d.LaneStatus15_0 >> (2 * lane)) & 0x3)
	case lane < 24:
		return LaneStatus((d.LaneStatus23_16 >> (2 * (lane - 16))) & 0x3)
	case lane < 28:
		return LaneStatus((d.LaneStatus27_24 >> (2 * (lane - 24))) & 0x3)
	default:
		return LaneStatusOK
	}
}

func (d DDW0) String() string {
	return fmt.Sprintf("DDW0{index=%d lane_starts_violation=%v transmission_timeout=%v}",
		d.Index, d.LaneStartsViolation, d.TransmissionTimeout)
}

var _ StatusWord = DDW0{}
