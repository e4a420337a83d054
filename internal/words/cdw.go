package words

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// CDW (Calibration Data Word) marks a calibration trigger sequence
// interleaved with regular readout.
//
// Wire layout (10 bytes):
//
//	[0:6)  calibration_user_fields (48 bits, stored in a u64)
//	[6:8)  calibration_word_index (u16)
//	[8]    reserved, must be zero
//	[9]    id (0xF8)
type CDW struct {
	CalibrationUserFields uint64 // low 48 bits
	CalibrationWordIndex  uint16
	raw                   GbtWord
}

// DecodeCDW decodes a 10-byte GBT word as a CDW.
func DecodeCDW(w GbtWord) CDW {
	var buf8 [8]byte
	copy(buf8[:6], w[0:6])
	return CDW{
		CalibrationUserFields: binary.LittleEndian.Uint64(buf8[:]),
		CalibrationWordIndex:  binary.LittleEndian.Uint16(w[6:8]),
		raw:                   w,
	}
}

func (c CDW) ID() byte { return c.raw.ID() }

func (c CDW) ReservedOK() bool {
	return c.raw[8] == 0
}

func (c CDW) SanityCheck() error {
	if c.ID() != IDCDW {
		return gopastaerr.New("words.CDW.SanityCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("id %#02x != %#02x", c.ID(), IDCDW))
	}
	if !c.ReservedOK() {
		return gopastaerr.New("words.CDW.SanityCheck", gopastaerr.CodeInvalidInput, "reserved bits set")
	}
	return nil
}

func (c CDW) String() string {
	return fmt.Sprintf("CDW{index=%d user_fields=%#012x}", c.CalibrationWordIndex, c.CalibrationUserFields)
}

var _ StatusWord = CDW{}
