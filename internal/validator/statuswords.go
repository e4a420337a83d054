// Package validator drives the ITS payload state machine over one link's
// CDPs: RDH running checks, status-word sanity and cross-word checks,
// and ALPIDE readout-frame aggregation and decoding.
package validator

import "github.com/ehrlich-b/gopasta/internal/words"

// statusWordContainer remembers just enough status-word history to run
// the cross-word checks in CdpRunningValidator: the last IHW, the
// current and previous TDH, the previous TDH that had internal_trigger
// set, the current and previous TDT, the current DDW0, and the previous
// CDW.
type statusWordContainer struct {
	lastIHW *words.IHW

	currentTDH *words.TDH
	prevTDH    *words.TDH
	prevIntTDH *words.TDH

	currentTDT *words.TDT
	prevTDT    *words.TDT

	currentDDW0 *words.DDW0

	prevCDW *words.CDW
}

func (c *statusWordContainer) setTDH(tdh words.TDH) {
	if c.currentTDH != nil {
		prev := *c.currentTDH
		if prev.InternalTrigger {
			promoted := prev
			c.prevIntTDH = &promoted
		}
		c.prevTDH = &prev
	}
	cur := tdh
	c.currentTDH = &cur
}

func (c *statusWordContainer) setTDT(tdt words.TDT) {
	if c.currentTDT != nil {
		prev := *c.currentTDT
		c.prevTDT = &prev
	}
	cur := tdt
	c.currentTDT = &cur
}

func (c *statusWordContainer) setIHW(ihw words.IHW) {
	cur := ihw
	c.lastIHW = &cur
}

func (c *statusWordContainer) setDDW0(d words.DDW0) {
	cur := d
	c.currentDDW0 = &cur
}

func (c *statusWordContainer) setCDW(cdw words.CDW) (prevDiffered bool) {
	prevDiffered = c.prevCDW != nil && c.prevCDW.CalibrationUserFields != cdw.CalibrationUserFields
	cur := cdw
	c.prevCDW = &cur
	return prevDiffered
}
