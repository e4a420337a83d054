package words

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// IHW (Index Header Word) opens a page and carries the bitmap of lanes
// active for the remainder of the payload.
//
// Wire layout (10 bytes):
//
//	[0:4)  active_lanes (u32, low 28 bits significant)
//	[4:9)  reserved, must be zero
//	[9]    id (0xE0)
type IHW struct {
	ActiveLanes uint32 // low 28 bits
	raw         GbtWord
}

// DecodeIHW decodes a 10-byte GBT word as an IHW.
func DecodeIHW(w GbtWord) IHW {
	return IHW{
		ActiveLanes: binary.LittleEndian.Uint32(w[0:4]),
		raw:         w,
	}
}

func (h IHW) ID() byte { return h.raw.ID() }

func (h IHW) ReservedOK() bool {
	if h.ActiveLanes&^0x0FFFFFFF != 0 {
		return false
	}
	for _, b := range h.raw[4:9] {
		if b != 0 {
			return false
		}
	}
	return true
}

func (h IHW) SanityCheck() error {
	if h.ID() != IDIHW {
		return gopastaerr.New("words.IHW.SanityCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("id %#02x != %#02x", h.ID(), IDIHW))
	}
	if !h.ReservedOK() {
		return gopastaerr.New("words.IHW.SanityCheck", gopastaerr.CodeInvalidInput, "reserved bits set")
	}
	return nil
}

// LaneActive reports whether the given lane number is set in the bitmap.
func (h IHW) LaneActive(lane uint8) bool {
	if lane >= 28 {
		return false
	}
	return h.ActiveLanes&(1<<lane) != 0
}

func (h IHW) String() string {
	return fmt.Sprintf("IHW{active_lanes=%#07x}", h.ActiveLanes)
}

var _ StatusWord = IHW{}
