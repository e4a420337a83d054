package controller

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/validator"
	"github.com/stretchr/testify/require"
)

func sampleHeader(payloadLen int) rdh.RDH {
	return rdh.RDH{
		HeaderID:     7,
		HeaderSize:   rdh.Size,
		FeeID:        rdh.FeeID(0<<12 | 12),
		SystemID:     32,
		OffsetToNext: uint16(rdh.Size + payloadLen),
		MemorySize:   uint16(rdh.Size + payloadLen),
		LinkID:       0,
		BC:           10,
		Orbit:        1,
		DataFormat:   2,
		TriggerType:  0x6A03,
	}
}

func TestControllerRunsPipelineToCompletion(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		h := sampleHeader(0)
		h.PagesCounter = uint16(i)
		buf.Write(rdh.Encode(h))
	}

	ctl := New(Config{}, 32, nil)
	r := reader.New(&buf, reader.Filter{}, 32, ctl.Collector().In, ctl.ShutdownFlag())
	d := validator.NewDispatcher(func(linkID uint8) *validator.LinkValidator {
		return validator.NewLinkValidator(linkID, 32, true, nil, nil)
	}, ctl.Collector().In, nil)

	err := ctl.Run(r, d)
	require.NoError(t, err)

	snap := ctl.Collector().Finalize(nil)
	require.Equal(t, uint64(3), snap.RdhStats.RdhsSeen)
}

func TestControllerStopsOnErrorBudget(t *testing.T) {
	var buf bytes.Buffer
	pagesCounters := []uint16{0, 1, 5, 6, 20} // two running-check gaps
	for _, pc := range pagesCounters {
		h := sampleHeader(0)
		h.PagesCounter = pc
		buf.Write(rdh.Encode(h))
	}

	ctl := New(Config{MaxTolerateErrors: 1}, 32, nil)
	r := reader.New(&buf, reader.Filter{}, 32, ctl.Collector().In, ctl.ShutdownFlag())
	d := validator.NewDispatcher(func(linkID uint8) *validator.LinkValidator {
		return validator.NewLinkValidator(linkID, 32, true, nil, nil)
	}, ctl.Collector().In, nil)

	err := ctl.Run(r, d)
	require.NoError(t, err)
	require.True(t, ctl.Collector().ErrorBudgetExceeded())
}

func TestShutdownFlagStopsReaderBetweenBatches(t *testing.T) {
	ctl := New(Config{}, 8, nil)
	ctl.ShutdownFlag().Store(true)

	var buf bytes.Buffer
	buf.Write(rdh.Encode(sampleHeader(0)))
	r := reader.New(&buf, reader.Filter{}, 32, ctl.Collector().In, ctl.ShutdownFlag())
	d := validator.NewDispatcher(func(linkID uint8) *validator.LinkValidator {
		return validator.NewLinkValidator(linkID, 32, false, nil, nil)
	}, ctl.Collector().In, nil)

	err := ctl.Run(r, d)
	require.NoError(t, err)

	snap := ctl.Collector().Finalize(nil)
	require.Equal(t, uint64(0), snap.RdhStats.RdhsSeen)
}

func TestBatchSinkReceivesEveryBatch(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 2; i++ {
		h := sampleHeader(0)
		h.PagesCounter = uint16(i)
		buf.Write(rdh.Encode(h))
	}

	ctl := New(Config{}, 8, nil)
	r := reader.New(&buf, reader.Filter{}, 32, ctl.Collector().In, ctl.ShutdownFlag())
	d := validator.NewDispatcher(func(linkID uint8) *validator.LinkValidator {
		return validator.NewLinkValidator(linkID, 32, false, nil, nil)
	}, ctl.Collector().In, nil)

	var sunk int
	ctl.SetBatchSink(func(b reader.Batch) error {
		sunk += b.Len
		return nil
	})

	err := ctl.Run(r, d)
	require.NoError(t, err)
	require.Equal(t, 2, sunk)
}

func TestBatchSinkErrorStopsRun(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(rdh.Encode(sampleHeader(0)))

	ctl := New(Config{}, 8, nil)
	r := reader.New(&buf, reader.Filter{}, 32, ctl.Collector().In, ctl.ShutdownFlag())
	d := validator.NewDispatcher(func(linkID uint8) *validator.LinkValidator {
		return validator.NewLinkValidator(linkID, 32, false, nil, nil)
	}, ctl.Collector().In, nil)

	sinkErr := errors.New("disk full")
	ctl.SetBatchSink(func(b reader.Batch) error { return sinkErr })

	err := ctl.Run(r, d)
	require.ErrorIs(t, err, sinkErr)
}
