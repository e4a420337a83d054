package rdh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
)

// FeeID is the packed 16-bit Front-End Electronics id: bits [14:12] select
// the detector layer, bits [5:0] select the stave within that layer. All
// other bits are reserved and must be zero.
type FeeID uint16

const (
	feeLayerShift = 12
	feeLayerMask  = 0x7
	feeStaveMask  = 0x3F
	feeValidMask  = feeLayerMask<<feeLayerShift | feeStaveMask
)

// Layer extracts the 3-bit layer field.
func (f FeeID) Layer() uint8 { return uint8((f >> feeLayerShift) & feeLayerMask) }

// Stave extracts the 6-bit stave field.
func (f FeeID) Stave() uint8 { return uint8(f & feeStaveMask) }

// Sanity checks that every bit outside the layer/stave fields is zero.
func (f FeeID) Sanity() error {
	if uint16(f)&^uint16(feeValidMask) != 0 {
		return gopastaerr.New("rdh.FeeID.Sanity", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("fee_id %#04x has nonzero reserved bits", uint16(f)))
	}
	return nil
}

// String renders the "L<layer>_<stave>" form used throughout the CLI and
// error messages.
func (f FeeID) String() string {
	return fmt.Sprintf("L%d_%d", f.Layer(), f.Stave())
}

// MaskedForStaveFilter returns the FEE id with only the layer/stave bits
// retained, for comparison against a filter that names a stave without a
// link.
func (f FeeID) MaskedForStaveFilter() FeeID {
	return FeeID(uint16(f) & feeValidMask)
}

// ParseLayerStave parses a "L<layer>_<stave>" string (e.g. "L0_12") into a
// masked FeeID usable for filtering.
func ParseLayerStave(s string) (FeeID, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "L") && !strings.HasPrefix(s, "l") {
		return 0, gopastaerr.New("rdh.ParseLayerStave", gopastaerr.CodeUserError,
			fmt.Sprintf("%q does not start with 'L'", s))
	}
	rest := s[1:]
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, gopastaerr.New("rdh.ParseLayerStave", gopastaerr.CodeUserError,
			fmt.Sprintf("%q is not of the form L<layer>_<stave>", s))
	}
	layer, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil || layer > feeLayerMask {
		return 0, gopastaerr.New("rdh.ParseLayerStave", gopastaerr.CodeUserError,
			fmt.Sprintf("invalid layer in %q", s))
	}
	stave, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || stave > feeStaveMask {
		return 0, gopastaerr.New("rdh.ParseLayerStave", gopastaerr.CodeUserError,
			fmt.Sprintf("invalid stave in %q", s))
	}
	return FeeID(layer<<feeLayerShift | stave), nil
}

// Layer names the three physical barrels the spec groups staves into.
type Layer int

const (
	LayerInner Layer = iota
	LayerMiddle
	LayerOuter
)

// LayerOf maps an ITS layer number (0-6) to its barrel grouping.
func LayerOf(layerNum uint8) Layer {
	switch {
	case layerNum <= 2:
		return LayerInner
	case layerNum <= 4:
		return LayerMiddle
	default:
		return LayerOuter
	}
}

// ExpectedLaneCount returns how many ALPIDE lanes a readout frame from this
// layer should carry, absent any chip-count override from custom-checks.
func (l Layer) ExpectedLaneCount() int {
	if l == LayerInner {
		return 3
	}
	return 14
}
