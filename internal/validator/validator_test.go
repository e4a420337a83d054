package validator

import (
	"testing"

	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/stats"
	"github.com/ehrlich-b/gopasta/internal/words"
	"github.com/stretchr/testify/require"
)

func ihwWord(activeLanes uint32) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDIHW
	w[0] = byte(activeLanes)
	w[1] = byte(activeLanes >> 8)
	w[2] = byte(activeLanes >> 16)
	w[3] = byte(activeLanes >> 24)
	return w
}

func tdhWord(bc, triggerType uint16, orbit uint32, continuation, noData, internalTrig bool) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDTDH
	w[0] = byte(bc)
	w[1] = byte(bc >> 8)
	flags := triggerType
	if continuation {
		flags |= 1 << 12
	}
	if noData {
		flags |= 1 << 13
	}
	if internalTrig {
		flags |= 1 << 14
	}
	w[2] = byte(flags)
	w[3] = byte(flags >> 8)
	w[4] = byte(orbit)
	w[5] = byte(orbit >> 8)
	w[6] = byte(orbit >> 16)
	w[7] = byte(orbit >> 24)
	return w
}

func tdtWord(packetDone bool) words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDTDT
	if packetDone {
		w[7] = 0x01
	}
	return w
}

func ddw0Word() words.GbtWord {
	var w words.GbtWord
	w[9] = words.IDDDW0
	return w
}

func sampleRDH() rdh.RDH {
	return rdh.RDH{
		HeaderID:     7,
		HeaderSize:   rdh.Size,
		FeeID:        rdh.FeeID(0<<12 | 12),
		SystemID:     32,
		OffsetToNext: 64,
		MemorySize:   64,
		DataFormat:   2,
		Orbit:        99,
		BC:           10,
		TriggerType:  0x1,
	}
}

func TestCdpRunningValidatorHappyPath(t *testing.T) {
	cv := NewCdpRunningValidator(Config{AllChecks: true})
	h := sampleRDH()
	cv.SetCurrentRDH(h, 0)

	errs := cv.Check(ihwWord(0x7), nil)
	require.Empty(t, errs)

	errs = cv.Check(tdhWord(h.BC, uint16(h.TriggerType), h.Orbit, false, false, false), nil)
	require.Empty(t, errs)

	errs = cv.Check(tdtWord(true), nil)
	require.Empty(t, errs)

	h.StopBit = 1
	h.PagesCounter = 1
	cv.SetCurrentRDH(h, 64)
	errs = cv.Check(ddw0Word(), nil)
	require.Empty(t, errs)
}

func TestCdpRunningValidatorRejectsBadIHWOnNonZeroStopBit(t *testing.T) {
	cv := NewCdpRunningValidator(Config{})
	h := sampleRDH()
	h.StopBit = 1
	cv.SetCurrentRDH(h, 0)

	errs := cv.Check(ihwWord(0x1), nil)
	require.NotEmpty(t, errs)
	require.Equal(t, "E12", errs[0].Code)
}

func TestCdpRunningValidatorDataWordInactiveLane(t *testing.T) {
	cv := NewCdpRunningValidator(Config{})
	h := sampleRDH()
	cv.SetCurrentRDH(h, 0)

	_ = cv.Check(ihwWord(0x1), nil) // only lane 0 active
	_ = cv.Check(tdhWord(h.BC, uint16(h.TriggerType), h.Orbit, false, false, false), nil)

	var dw words.GbtWord
	dw[9] = 0x20 | 0x05 // inner barrel, lane 5 (inactive)
	errs := cv.Check(dw, nil)
	require.NotEmpty(t, errs)
	require.Equal(t, "E72", errs[0].Code)
}

func TestRunningRDHCheckLearnsIncrementAndDetectsGap(t *testing.T) {
	c := &runningRDHCheck{}
	h1 := rdh.RDH{PagesCounter: 0, StopBit: 0}
	h2 := rdh.RDH{PagesCounter: 1, StopBit: 0}
	h3 := rdh.RDH{PagesCounter: 3, StopBit: 0} // should have been 2

	require.NoError(t, c.check(h1))
	require.NoError(t, c.check(h2))
	require.Error(t, c.check(h3))
}

func TestRunningRDHCheckResetsOnStopBit(t *testing.T) {
	c := &runningRDHCheck{}
	require.NoError(t, c.check(rdh.RDH{PagesCounter: 0, StopBit: 0}))
	require.NoError(t, c.check(rdh.RDH{PagesCounter: 1, StopBit: 1}))
	require.NoError(t, c.check(rdh.RDH{PagesCounter: 0, StopBit: 0}))
}

func TestDispatcherRoutesPerLink(t *testing.T) {
	out := make(chan stats.Event, 64)
	d := NewDispatcher(func(linkID uint8) *LinkValidator {
		return NewLinkValidator(linkID, 32, false, nil, nil)
	}, out, nil)

	var b reader.Batch
	b.Items[0] = reader.Item{RDH: rdh.RDH{HeaderID: 7, HeaderSize: rdh.Size, SystemID: 32, LinkID: 0}}
	b.Items[1] = reader.Item{RDH: rdh.RDH{HeaderID: 7, HeaderSize: rdh.Size, SystemID: 32, LinkID: 1}}
	b.Len = 2

	d.Dispatch(b)
	d.Join()
}
