package words

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// TDH (Trigger Data Header) opens an ITS readout frame and carries the
// trigger context for it.
//
// Wire layout (10 bytes):
//
//	[0:2)  trigger_bc (u16, low 12 bits significant)
//	[2:4)  trigger_type [11:0], continuation=bit12, no_data=bit13,
//	       internal_trigger=bit14, reserved=bit15
//	[4:8)  trigger_orbit (u32)
//	[8]    reserved, must be zero
//	[9]    id (0xE8)
type TDH struct {
	TriggerBC       uint16
	TriggerType     uint16
	TriggerOrbit    uint32
	Continuation    bool
	NoData          bool
	InternalTrigger bool
	raw             GbtWord
}

// DecodeTDH decodes a 10-byte GBT word as a TDH.
func DecodeTDH(w GbtWord) TDH {
	bcField := binary.LittleEndian.Uint16(w[0:2])
	typeField := binary.LittleEndian.Uint16(w[2:4])
	return TDH{
		TriggerBC:       bcField & 0x0FFF,
		TriggerType:     typeField & 0x0FFF,
		TriggerOrbit:    binary.LittleEndian.Uint32(w[4:8]),
		Continuation:    typeField&(1<<12) != 0,
		NoData:          typeField&(1<<13) != 0,
		InternalTrigger: typeField&(1<<14) != 0,
		raw:             w,
	}
}

func (h TDH) ID() byte { return h.raw.ID() }

func (h TDH) ReservedOK() bool {
	bcField := binary.LittleEndian.Uint16(h.raw[0:2])
	typeField := binary.LittleEndian.Uint16(h.raw[2:4])
	if bcField&^0x0FFF != 0 {
		return false
	}
	if typeField&(1<<15) != 0 {
		return false
	}
	return h.raw[8] == 0
}

func (h TDH) SanityCheck() error {
	if h.ID() != IDTDH {
		return gopastaerr.New("words.TDH.SanityCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("id %#02x != %#02x", h.ID(), IDTDH))
	}
	if !h.ReservedOK() {
		return gopastaerr.New("words.TDH.SanityCheck", gopastaerr.CodeInvalidInput, "reserved bits set")
	}
	if h.TriggerBC > MaxTDHBC {
		return gopastaerr.New("words.TDH.SanityCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("trigger_bc %#x exceeds max %#x", h.TriggerBC, MaxTDHBC))
	}
	return nil
}

// MaxTDHBC mirrors the RDH's bunch-crossing ceiling; a TDH's trigger_bc
// must fall within the same 3564-slot orbit.
const MaxTDHBC = 0xDEB

func (h TDH) String() string {
	return fmt.Sprintf("TDH{bc=%#x orbit=%d trigger_type=%#x cont=%v no_data=%v internal=%v}",
		h.TriggerBC, h.TriggerOrbit, h.TriggerType, h.Continuation, h.NoData, h.InternalTrigger)
}

var _ StatusWord = TDH{}
