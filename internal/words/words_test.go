package words

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func wordWithID(id byte) GbtWord {
	var w GbtWord
	w[Size-1] = id
	return w
}

func TestIHWDecodeAndSanity(t *testing.T) {
	w := wordWithID(IDIHW)
	binary.LittleEndian.PutUint32(w[0:4], 0x0000007)
	h := DecodeIHW(w)
	require.NoError(t, h.SanityCheck())
	require.True(t, h.LaneActive(0))
	require.True(t, h.LaneActive(1))
	require.True(t, h.LaneActive(2))
	require.False(t, h.LaneActive(3))

	w[4] = 0x01 // corrupts a reserved byte
	h2 := DecodeIHW(w)
	require.Error(t, h2.SanityCheck())
}

func TestTDHDecodeAndFlags(t *testing.T) {
	w := wordWithID(IDTDH)
	typeField := uint16(0x123) | (1 << 12) | (1 << 13)
	binary.LittleEndian.PutUint16(w[0:2], 0x0ABC)
	binary.LittleEndian.PutUint16(w[2:4], typeField)
	binary.LittleEndian.PutUint32(w[4:8], 99)

	h := DecodeTDH(w)
	require.NoError(t, h.SanityCheck())
	require.Equal(t, uint16(0x0ABC), h.TriggerBC)
	require.Equal(t, uint16(0x123), h.TriggerType)
	require.True(t, h.Continuation)
	require.True(t, h.NoData)
	require.False(t, h.InternalTrigger)
	require.Equal(t, uint32(99), h.TriggerOrbit)
}

func TestTDHRejectsReservedBit(t *testing.T) {
	w := wordWithID(IDTDH)
	binary.LittleEndian.PutUint16(w[2:4], 1<<15)
	h := DecodeTDH(w)
	require.Error(t, h.SanityCheck())
}

func TestTDTLaneStatus(t *testing.T) {
	w := wordWithID(IDTDT)
	binary.LittleEndian.PutUint32(w[0:4], 0x2) // lane 0 -> status 2 (error)
	w[7] = 0x01                                // packet_done
	tdt := DecodeTDT(w)
	require.NoError(t, tdt.SanityCheck())
	require.True(t, tdt.PacketDone)
	require.Equal(t, LaneStatusError, tdt.LaneStatusOf(0))
	require.Equal(t, LaneStatusOK, tdt.LaneStatusOf(1))
}

func TestTDTRejectsReservedBits(t *testing.T) {
	w := wordWithID(IDTDT)
	w[7] = 0x80
	tdt := DecodeTDT(w)
	require.Error(t, tdt.SanityCheck())
}

func TestDDW0Decode(t *testing.T) {
	w := wordWithID(IDDDW0)
	w[0] = 5
	w[8] = 0x03 // both flags set
	d := DecodeDDW0(w)
	require.NoError(t, d.SanityCheck())
	require.Equal(t, uint8(5), d.Index)
	require.True(t, d.LaneStartsViolation)
	require.True(t, d.TransmissionTimeout)
}

func TestDDW0RejectsReservedBits(t *testing.T) {
	w := wordWithID(IDDDW0)
	w[8] = 0x04
	d := DecodeDDW0(w)
	require.Error(t, d.SanityCheck())
}

func TestCDWDecode(t *testing.T) {
	w := wordWithID(IDCDW)
	binary.LittleEndian.PutUint16(w[6:8], 7)
	c := DecodeCDW(w)
	require.NoError(t, c.SanityCheck())
	require.Equal(t, uint16(7), c.CalibrationWordIndex)
}

func TestDataWordInnerBarrel(t *testing.T) {
	w := wordWithID(innerBarrelTopBits | 0x05)
	dw, err := DecodeDataWord(w)
	require.NoError(t, err)
	require.Equal(t, BarrelInner, dw.Barrel)
	require.Equal(t, uint8(5), dw.LaneID)
}

func TestDataWordOuterBarrel(t *testing.T) {
	w := wordWithID(outerBarrelTopBits | 0x09) // idx 9 -> connector 2, lane 1
	dw, err := DecodeDataWord(w)
	require.NoError(t, err)
	require.Equal(t, BarrelOuter, dw.Barrel)
	require.Equal(t, uint8(2), dw.Connector)
	require.Equal(t, uint8(1), dw.LaneID)
}

func TestDataWordOuterBarrelConnectorOverflow(t *testing.T) {
	w := wordWithID(outerBarrelTopBits | 0x1F) // idx 31 -> outside the 28-entry table
	_, err := DecodeDataWord(w)
	require.Error(t, err)
}

func TestDecodeDispatch(t *testing.T) {
	cases := []struct {
		id   byte
		kind Kind
	}{
		{IDIHW, KindIHW},
		{IDTDH, KindTDH},
		{IDTDT, KindTDT},
		{IDDDW0, KindDDW0},
		{IDCDW, KindCDW},
		{innerBarrelTopBits | 0x02, KindData},
	}
	for _, c := range cases {
		w := wordWithID(c.id)
		d, err := Decode(w)
		require.NoError(t, err)
		require.Equal(t, c.kind, d.Kind)
	}
}

func TestDecodeUnrecognizedID(t *testing.T) {
	w := wordWithID(0x01)
	_, err := Decode(w)
	require.Error(t, err)
}
