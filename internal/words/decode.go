package words

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// Kind enumerates what a GBT word turned out to be, for callers that need
// to switch on it without a type assertion.
type Kind int

const (
	KindIHW Kind = iota
	KindTDH
	KindTDT
	KindDDW0
	KindCDW
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindIHW:
		return "IHW"
	case KindTDH:
		return "TDH"
	case KindTDT:
		return "TDT"
	case KindDDW0:
		return "DDW0"
	case KindCDW:
		return "CDW"
	case KindData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// Decoded is the result of classifying a single GBT word: exactly one of
// Status or Data is populated, per Kind.
type Decoded struct {
	Kind   Kind
	Status StatusWord // nil when Kind == KindData
	Data   DataWord
}

// Decode classifies a raw GBT word by its ID byte and decodes it into the
// concrete status-word type or a DataWord. This single dispatch point
// stands in for what would otherwise be a class hierarchy with virtual
// dispatch: one interface (StatusWord) plus a sum type (Kind) covers the
// same ground.
func Decode(w GbtWord) (Decoded, error) {
	switch w.ID() {
	case IDIHW:
		return Decoded{Kind: KindIHW, Status: DecodeIHW(w)}, nil
	case IDTDH:
		return Decoded{Kind: KindTDH, Status: DecodeTDH(w)}, nil
	case IDTDT:
		return Decoded{Kind: KindTDT, Status: DecodeTDT(w)}, nil
	case IDDDW0:
		return Decoded{Kind: KindDDW0, Status: DecodeDDW0(w)}, nil
	case IDCDW:
		return Decoded{Kind: KindCDW, Status: DecodeCDW(w)}, nil
	default:
		if IsDataWordID(w.ID()) {
			dw, err := DecodeDataWord(w)
			if err != nil {
				return Decoded{}, err
			}
			return Decoded{Kind: KindData, Data: dw}, nil
		}
		return Decoded{}, gopastaerr.New("words.Decode", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("unrecognized GBT word id %#02x", w.ID()))
	}
}
