package validator

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/ehrlich-b/gopasta/internal/logging"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/stats"
)

// runningRDHCheck learns a link's page-counter increment from its first
// two RDHs, then enforces it: stop_bit=0 requires pages_counter equal the
// running expectation and advances it; stop_bit=1 requires it match and
// resets to zero.
type runningRDHCheck struct {
	learned       bool
	increment     uint16
	expected      uint16
	lastPageCount uint16
	seenFirst     bool
}

func (c *runningRDHCheck) check(h rdh.RDH) error {
	if !c.seenFirst {
		c.seenFirst = true
		c.expected = h.PagesCounter
		c.lastPageCount = h.PagesCounter
		return nil
	}
	if !c.learned {
		c.learned = true
		if h.PagesCounter >= c.lastPageCount {
			c.increment = h.PagesCounter - c.lastPageCount
		} else {
			c.increment = 1
		}
		c.expected = c.lastPageCount + c.increment
	}

	var err error
	if h.PagesCounter != c.expected {
		err = gopastaerr.New("validator.runningRDHCheck", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("pages_counter %d != expected %d", h.PagesCounter, c.expected))
	}
	c.lastPageCount = h.PagesCounter
	if h.StopBit == 1 {
		c.expected = 0
	} else {
		c.expected += c.increment
	}
	return err
}

// LinkValidator runs RDH sanity and (optionally) running checks for one
// link, and feeds preprocessed payload words to a CdpRunningValidator
// when a detector target is configured.
type LinkValidator struct {
	linkID         uint8
	expectSystemID uint8
	allChecks      bool

	running runningRDHCheck
	rdhRing [2]rdh.RDH
	ringLen int

	cdp *CdpRunningValidator

	log *logging.Logger
}

// NewLinkValidator builds a validator for one link. cdp may be nil when
// no detector target is configured (RDH-only checks).
func NewLinkValidator(linkID, expectSystemID uint8, allChecks bool, cdp *CdpRunningValidator, log *logging.Logger) *LinkValidator {
	if log == nil {
		log = logging.Default()
	}
	return &LinkValidator{linkID: linkID, expectSystemID: expectSystemID, allChecks: allChecks, cdp: cdp, log: log.WithLink(linkID)}
}

// ProcessCDP runs RDH sanity (and running checks, if enabled), then
// preprocesses and checks the payload if a CdpRunningValidator is wired
// up. Structured errors are sent directly on out.
func (lv *LinkValidator) ProcessCDP(item reader.Item, out chan<- stats.Event) {
	h := item.RDH

	if err := h.Sanity(lv.expectSystemID); err != nil {
		lv.emitErr(out, item.MemOffset, "E11", err.Error())
	}

	if lv.allChecks {
		if err := lv.running.check(h); err != nil {
			lv.emitErr(out, item.MemOffset, "E12", err.Error()+lv.ringContext())
		}
	}
	lv.rdhRing[0], lv.rdhRing[1] = lv.rdhRing[1], h
	if lv.ringLen < 2 {
		lv.ringLen++
	}

	if lv.cdp == nil || len(item.Payload) == 0 {
		return
	}

	gwords, err := reader.Preprocess(item.Payload)
	if err != nil {
		lv.emitErr(out, item.MemOffset+64, "E98", err.Error())
		lv.cdp.ResetFSM()
		lv.log.Warn("payload preprocessing failed, FSM reset", "error", err)
		return
	}

	lv.cdp.SetCurrentRDH(h, item.MemOffset)
	for _, w := range gwords {
		for _, e := range lv.cdp.Check(w, out) {
			out <- stats.ErrorEvent(&e)
		}
	}
}

func (lv *LinkValidator) emitErr(out chan<- stats.Event, offset uint64, code, msg string) {
	if out == nil {
		return
	}
	out <- stats.ErrorEvent(&stats.ProtocolError{Offset: offset, Code: code, Message: msg})
}

func (lv *LinkValidator) ringContext() string {
	if lv.ringLen < 2 {
		return ""
	}
	return fmt.Sprintf(" (prev pages_counter=%d, cur pages_counter=%d)", lv.rdhRing[0].PagesCounter, lv.rdhRing[1].PagesCounter)
}
