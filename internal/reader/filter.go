package reader

import "github.com/ehrlich-b/gopasta/internal/rdh"

// Filter is the reader's coarse, mutually-exclusive CDP filter: at most
// one of the three fields is active (non-nil) at a time.
type Filter struct {
	LinkID     *uint8
	FeeID      *uint16
	StaveFeeID *rdh.FeeID // masked layer/stave FeeID; link bits ignored
}

// Matches reports whether h passes the active filter. An empty Filter
// matches everything.
func (f Filter) Matches(h rdh.RDH) bool {
	switch {
	case f.LinkID != nil:
		return h.LinkID == *f.LinkID
	case f.FeeID != nil:
		return uint16(h.FeeID) == *f.FeeID
	case f.StaveFeeID != nil:
		return h.FeeID.MaskedForStaveFilter() == *f.StaveFeeID
	default:
		return true
	}
}
