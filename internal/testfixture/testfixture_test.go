package testfixture

import (
	"testing"

	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/words"
	"github.com/stretchr/testify/require"
)

func TestStreamAppendComputesOffsets(t *testing.T) {
	h := SimpleRDH(rdh.FeeID(12), 0, 99, 10)
	s := NewStream().Append(CDP{RDH: h, Words: []words.GbtWord{IHW(0x1), TDH(10, 0x1, 99, false, false, false), TDT(true), DDW0()}})

	b := s.Bytes()
	require.Len(t, b, rdh.Size+4*words.Size)

	got, err := rdh.Decode(b[:rdh.Size])
	require.NoError(t, err)
	require.Equal(t, uint16(rdh.Size+4*words.Size), got.MemorySize)
	require.Equal(t, got.MemorySize, got.OffsetToNext)
}

func TestStreamAppendMultipleCDPs(t *testing.T) {
	h := SimpleRDH(rdh.FeeID(12), 0, 99, 10)
	s := NewStream().
		Append(CDP{RDH: h, Words: []words.GbtWord{IHW(0x1)}}).
		Append(CDP{RDH: h, Words: []words.GbtWord{DDW0()}})

	require.Len(t, s.Bytes(), 2*(rdh.Size+words.Size))
}

func TestWordBuildersRoundTripThroughDecode(t *testing.T) {
	ihw := IHW(0x7)
	decoded, err := words.Decode(ihw)
	require.NoError(t, err)
	require.Equal(t, words.KindIHW, decoded.Kind)

	tdt := TDT(true)
	decoded, err = words.Decode(tdt)
	require.NoError(t, err)
	require.Equal(t, words.KindTDT, decoded.Kind)
	require.True(t, words.DecodeTDT(tdt).PacketDone)

	cdw := CDW(0xABCDEF, 3)
	decoded, err = words.Decode(cdw)
	require.NoError(t, err)
	require.Equal(t, words.KindCDW, decoded.Kind)
	require.Equal(t, uint64(0xABCDEF), words.DecodeCDW(cdw).CalibrationUserFields)
}
