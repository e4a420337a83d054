package rdh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRDH() RDH {
	return RDH{
		HeaderID:      7,
		HeaderSize:    Size,
		FeeID:         FeeID(0<<12 | 12),
		SystemID:      32,
		OffsetToNext:  64 + 100,
		MemorySize:    64 + 100,
		LinkID:        0,
		PacketCounter: 1,
		BC:            0x100,
		Orbit:         42,
		DataFormat:    2,
		TriggerType:   0x6A03,
		PagesCounter:  0,
		StopBit:       0,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleRDH()
	buf := Encode(want)
	require.Len(t, buf, Size)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSanityHeaderIDRange(t *testing.T) {
	r := sampleRDH()
	r.HeaderID = 2
	require.Error(t, r.Sanity(32))

	r.HeaderID = 101
	require.Error(t, r.Sanity(32))

	r.HeaderID = 7
	require.NoError(t, r.Sanity(32))
}

func TestSanityHeaderSizeForV6Plus(t *testing.T) {
	r := sampleRDH()
	r.HeaderSize = 48
	require.Error(t, r.Sanity(32))
}

func TestSanitySystemIDMismatch(t *testing.T) {
	r := sampleRDH()
	require.Error(t, r.Sanity(99))
}

func TestSanityOffsetToNextBounds(t *testing.T) {
	r := sampleRDH()
	r.OffsetToNext = 10
	require.Error(t, r.Sanity(32))

	r.OffsetToNext = Size + MaxOffsetToNextPayload + 1
	require.Error(t, r.Sanity(32))

	r.OffsetToNext = Size + MaxOffsetToNextPayload
	require.NoError(t, r.Sanity(32))
}

func TestSanityBCRange(t *testing.T) {
	r := sampleRDH()
	r.BC = MaxBC + 1
	require.Error(t, r.Sanity(32))

	r.BC = MaxBC
	require.NoError(t, r.Sanity(32))
}

func TestFeeIDLayerStave(t *testing.T) {
	f := FeeID(3<<12 | 45)
	require.Equal(t, uint8(3), f.Layer())
	require.Equal(t, uint8(45), f.Stave())
	require.Equal(t, "L3_45", f.String())
	require.NoError(t, f.Sanity())
}

func TestFeeIDReservedBitsRejected(t *testing.T) {
	f := FeeID(1 << 6) // bit 6 is reserved
	require.Error(t, f.Sanity())
}

func TestParseLayerStave(t *testing.T) {
	f, err := ParseLayerStave("L0_12")
	require.NoError(t, err)
	require.Equal(t, uint8(0), f.Layer())
	require.Equal(t, uint8(12), f.Stave())

	_, err = ParseLayerStave("bogus")
	require.Error(t, err)

	_, err = ParseLayerStave("L9_1")
	require.Error(t, err)
}

func TestPayloadSize(t *testing.T) {
	r := sampleRDH()
	require.Equal(t, 100, r.PayloadSize())
}
