package words

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// Barrel distinguishes the two lane-addressing schemes a data word's top 3
// ID bits select between.
type Barrel int

const (
	// BarrelInner addresses a lane directly in the low 5 ID bits.
	BarrelInner Barrel = iota
	// BarrelOuter addresses a lane through a connector lookup table.
	BarrelOuter
)

const (
	innerBarrelTopBits = 0x20 // 0b001 in the top 3 bits of the ID byte
	outerBarrelTopBits = 0x40 // 0b010 in the top 3 bits of the ID byte
	topBitsMask        = 0xE0
	maxConnectorInput  = 6
)

// obLaneEntry is one row of the outer-barrel decoder table: which
// connector and which lane within it an ID's low 5 bits select.
type obLaneEntry struct {
	Connector uint8
	Lane      uint8
}

// obDecoderTable is the fixed outer-barrel lookup: 7 connectors (0-6) of 4
// lanes each, indexed by the ID byte's low 5 bits. Indices 28-31 decode
// to connector 7, which DecodeDataWord rejects.
var obDecoderTable = func() [32]obLaneEntry {
	var t [32]obLaneEntry
	for i := 0; i < 32; i++ {
		t[i] = obLaneEntry{Connector: uint8(i / 4), Lane: uint8(i % 4)}
	}
	return t
}()

// DataWord is a generic GBT word carrying ALPIDE lane payload, classified
// by the top 3 bits of its ID byte into inner- or outer-barrel addressing.
type DataWord struct {
	Barrel    Barrel
	LaneID    uint8
	Connector uint8 // outer barrel only
	Payload   [9]byte
}

// IsDataWordID reports whether an ID byte belongs to a data word rather
// than one of the five status-word kinds.
func IsDataWordID(id byte) bool {
	top := id & topBitsMask
	return top == innerBarrelTopBits || top == outerBarrelTopBits
}

// DecodeDataWord classifies and decodes a GBT word already known to carry
// a data-word ID (see IsDataWordID).
func DecodeDataWord(w GbtWord) (DataWord, error) {
	id := w.ID()
	top := id & topBitsMask
	var payload [9]byte
	copy(payload[:], w[0:9])

	switch top {
	case innerBarrelTopBits:
		return DataWord{
			Barrel:  BarrelInner,
			LaneID:  id & 0x1F,
			Payload: payload,
		}, nil
	case outerBarrelTopBits:
		idx := id & 0x1F
		entry := obDecoderTable[idx]
		if entry.Connector > maxConnectorInput {
			return DataWord{}, gopastaerr.New("words.DecodeDataWord", gopastaerr.CodeInvalidInput,
				fmt.Sprintf("outer barrel connector %d exceeds max %d", entry.Connector, maxConnectorInput))
		}
		return DataWord{
			Barrel:    BarrelOuter,
			LaneID:    entry.Lane,
			Connector: entry.Connector,
			Payload:   payload,
		}, nil
	default:
		return DataWord{}, gopastaerr.New("words.DecodeDataWord", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("id %#02x is not a recognized data word", id))
	}
}

func (d DataWord) String() string {
	if d.Barrel == BarrelOuter {
		return fmt.Sprintf("DataWord{outer connector=%d lane=%d}", d.Connector, d.LaneID)
	}
	return fmt.Sprintf("DataWord{inner lane=%d}", d.LaneID)
}
