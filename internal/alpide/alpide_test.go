package alpide

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyStructuralRanges(t *testing.T) {
	cases := []struct {
		b    byte
		kind Kind
	}{
		{0xA0, KindChipHeader},
		{0xAF, KindChipHeader},
		{0xE0, KindChipEmptyFrame},
		{0xEF, KindChipEmptyFrame},
		{0xB0, KindChipTrailer},
		{0xBF, KindChipTrailer},
		{0xC0, KindRegionHeader},
		{0xDF, KindRegionHeader},
		{0x40, KindDataShort},
		{0x7F, KindDataShort},
		{0x00, KindDataLong}, // 0x00 matches the data-long range before APE_PADDING is ever considered
		{0x3F, KindDataLong},
		{0xF0, KindBusyOn},
		{0xF1, KindBusyOff},
	}
	for _, c := range cases {
		w, err := Classify([]byte{c.b, 0x00, 0x00})
		require.NoError(t, err, "byte %#02x", c.b)
		require.Equal(t, c.kind, w.Kind, "byte %#02x", c.b)
	}
}

func TestClassifyAPEVariants(t *testing.T) {
	cases := map[byte]APE{
		0xF2: APEStripStart,
		0xF4: APEDetectorTimeout,
		0xF5: APEOutOfTable,
		0xF6: APEProtocolError,
		0xF7: APELaneFifoOverflowError,
		0xF8: APEFsmError,
		0xF9: APEPendingDetectorEventLimit,
		0xFA: APEPendingLaneEventLimit,
		0xFB: APEO2NError,
		0xFC: APERateMissingTriggerError,
		0xFD: APEPeDataMissing,
		0xFE: APEOotDataMissing,
	}
	for b, want := range cases {
		w, err := Classify([]byte{b})
		require.NoError(t, err)
		require.Equal(t, KindAPE, w.Kind)
		require.Equal(t, want, w.APE)
	}
}

func TestAPESeverity(t *testing.T) {
	require.Equal(t, SeverityOK, APEPadding.Severity())
	require.Equal(t, SeverityWarning, APEStripStart.Severity())
	require.Equal(t, SeverityFatal, APEProtocolError.Severity())
}

func TestDecodeLaneHappyPath(t *testing.T) {
	words, err := ScanWords([]byte{
		0xA0, 0x00, // chip header
		0xC0,       // region header
		0x40, 0x00, // data short
		0xB0, // chip trailer
	})
	require.NoError(t, err)
	require.Len(t, words, 4)

	r := DecodeLane(words)
	require.Empty(t, r.Errors)
	require.Equal(t, uint64(1), r.Stats.ChipTrailersSeen)
	require.False(t, r.Fatal)
}

func TestDecodeLaneDataOverrun(t *testing.T) {
	words, err := ScanWords([]byte{0x40, 0x00}) // data short with no region open
	require.NoError(t, err)

	r := DecodeLane(words)
	require.NotEmpty(t, r.Errors)
	require.Equal(t, uint64(1), r.Stats.DataOverrun)
}

func TestDecodeLaneBusyViolation(t *testing.T) {
	words, err := ScanWords([]byte{0xF0, 0xF0}) // busy-on twice
	require.NoError(t, err)

	r := DecodeLane(words)
	require.Equal(t, uint64(1), r.Stats.BusyViolations)
	require.Equal(t, uint64(2), r.Stats.BusyTransitions)
}

func TestDecodeLaneFatalAPEMarksTransmissions(t *testing.T) {
	words, err := ScanWords([]byte{0xF6, 0x40, 0x00}) // protocol error, then data short
	require.NoError(t, err)

	r := DecodeLane(words)
	require.True(t, r.Fatal)
	require.Equal(t, uint64(1), r.Stats.TransmissionInFatal)
}

func TestDecodeLaneFlushedIncomplete(t *testing.T) {
	words, err := ScanWords([]byte{0xA0, 0x00}) // chip header, never trailed
	require.NoError(t, err)

	r := DecodeLane(words)
	require.Equal(t, uint64(1), r.Stats.FlushedIncomplete)
}

func TestStatsAdd(t *testing.T) {
	a := Stats{ChipTrailersSeen: 1, BusyViolations: 2}
	b := Stats{ChipTrailersSeen: 3, DataOverrun: 1}
	a.Add(b)
	require.Equal(t, uint64(4), a.ChipTrailersSeen)
	require.Equal(t, uint64(2), a.BusyViolations)
	require.Equal(t, uint64(1), a.DataOverrun)
}
