// Package alpide classifies the individual bytes of ALPIDE sensor readout
// carried inside ITS data words, and tracks the protocol-extension (APE)
// error signals the sensor can emit inline with its data.
package alpide

import "fmt"

// Kind enumerates the distinct ALPIDE word shapes a byte can open.
type Kind int

const (
	KindChipHeader Kind = iota
	KindChipEmptyFrame
	KindChipTrailer
	KindRegionHeader
	KindDataShort
	KindDataLong
	KindBusyOn
	KindBusyOff
	KindAPE
)

func (k Kind) String() string {
	switch k {
	case KindChipHeader:
		return "CHIP_HEADER"
	case KindChipEmptyFrame:
		return "CHIP_EMPTY_FRAME"
	case KindChipTrailer:
		return "CHIP_TRAILER"
	case KindRegionHeader:
		return "REGION_HEADER"
	case KindDataShort:
		return "DATA_SHORT"
	case KindDataLong:
		return "DATA_LONG"
	case KindBusyOn:
		return "BUSY_ON"
	case KindBusyOff:
		return "BUSY_OFF"
	case KindAPE:
		return "APE"
	default:
		return "UNKNOWN"
	}
}

// Leading-byte ranges/masks, in order of discrimination precedence: data
// words are matched by their top 2 bits, region headers by their top 3,
// chip words by their top 4, leaving the 0xF0-0xFF range for busy markers
// and protocol extensions.
const (
	dataShortTop  = 0x40
	dataLongTop   = 0x00
	dataTopMask   = 0xC0
	regionTop     = 0xC0
	regionTopMask = 0xE0
	chipEmptyTop  = 0xE0
	chipTrailTop  = 0xB0
	chipTopMask   = 0xF0
	chipHeaderLo  = 0xA0
	chipHeaderHi  = 0xAF
	busyOn        = 0xF0
	busyOff       = 0xF1
)

// Word is a single classified ALPIDE leading byte plus its kind-specific
// payload bits.
type Word struct {
	Kind Kind
	APE  APE // valid when Kind == KindAPE

	ChipID           uint8 // ChipHeader, ChipEmptyFrame
	BunchCounterHigh uint8 // ChipHeader, ChipEmptyFrame: bits [10:3]
	ReadoutFlags     uint8 // ChipTrailer
	RegionID         uint8 // RegionHeader
	EncoderID        uint8 // DataShort, DataLong
}

// Classify inspects a single leading byte and, for the multi-byte kinds
// (ChipHeader/ChipEmptyFrame carry a second byte, DataLong a third), the
// bytes that follow it in buf (buf[0] is the leading byte).
func Classify(buf []byte) (Word, error) {
	if len(buf) == 0 {
		return Word{}, fmt.Errorf("alpide.Classify: empty buffer")
	}
	b := buf[0]

	switch {
	case b&dataTopMask == dataShortTop:
		return Word{Kind: KindDataShort, EncoderID: (b >> 2) & 0x0F}, nil
	case b&dataTopMask == dataLongTop:
		return Word{Kind: KindDataLong, EncoderID: (b >> 2) & 0x0F}, nil
	case b&regionTopMask == regionTop:
		return Word{Kind: KindRegionHeader, RegionID: b & 0x1F}, nil
	case b&chipTopMask == chipEmptyTop:
		w := Word{Kind: KindChipEmptyFrame, ChipID: b & 0x0F}
		if len(buf) > 1 {
			w.BunchCounterHigh = buf[1]
		}
		return w, nil
	case b >= chipHeaderLo && b <= chipHeaderHi:
		w := Word{Kind: KindChipHeader, ChipID: b & 0x0F}
		if len(buf) > 1 {
			w.BunchCounterHigh = buf[1]
		}
		return w, nil
	case b&chipTopMask == chipTrailTop:
		return Word{Kind: KindChipTrailer, ReadoutFlags: b & 0x0F}, nil
	default:
		return matchExact(b)
	}
}

func matchExact(b byte) (Word, error) {
	switch b {
	case busyOn:
		return Word{Kind: KindBusyOn}, nil
	case busyOff:
		return Word{Kind: KindBusyOff}, nil
	default:
		ape, ok := apeFromByte(b)
		if !ok {
			return Word{}, fmt.Errorf("alpide.Classify: byte %#02x matches no known word", b)
		}
		return Word{Kind: KindAPE, APE: ape}, nil
	}
}
