package rdh

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// RDH0Size is the size of the leading slice the reader inspects before
// deciding how many more bytes make up the full header.
const RDH0Size = 8

// RDH0 is the first 8 bytes of every RDH, common across all header
// versions. The reader decodes this first to learn HeaderID (the version)
// before re-reading the full, version-sized header.
type RDH0 struct {
	HeaderID   uint8
	HeaderSize uint8
	FeeID      FeeID
	SystemID   uint8
}

// DecodeRDH0 parses the first 8 bytes of an RDH.
func DecodeRDH0(buf []byte) (RDH0, error) {
	if len(buf) < RDH0Size {
		return RDH0{}, gopastaerr.New("rdh.DecodeRDH0", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("need %d bytes, got %d", RDH0Size, len(buf)))
	}
	return RDH0{
		HeaderID:   buf[0],
		HeaderSize: buf[1],
		FeeID:      FeeID(binary.LittleEndian.Uint16(buf[2:4])),
		SystemID:   buf[5],
	}, nil
}

// Sanity checks the RDH0-visible invariants: header_id range, fee_id
// reserved bits, and the expected detector system id. This is the cheap
// check the reader runs before deciding how much more to read.
func (r0 RDH0) Sanity(expectSystemID uint8) error {
	if r0.HeaderID < MinHeaderID || r0.HeaderID > MaxHeaderID {
		return gopastaerr.NewFatal("rdh.RDH0.Sanity", gopastaerr.CodeUnsupportedRDH,
			fmt.Sprintf("header_id %d out of range [%d,%d]", r0.HeaderID, MinHeaderID, MaxHeaderID))
	}
	if err := r0.FeeID.Sanity(); err != nil {
		return gopastaerr.Wrap("rdh.RDH0.Sanity", err)
	}
	if r0.SystemID != expectSystemID {
		return gopastaerr.NewFatal("rdh.RDH0.Sanity", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("system_id %d != expected %d", r0.SystemID, expectSystemID))
	}
	return nil
}
