package fsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHappyPathOnePage(t *testing.T) {
	f := New()

	k, err := f.Next(idIHW, false, false)
	require.NoError(t, err)
	require.Equal(t, KindIHW, k)
	require.Equal(t, StateTDH, f.State())

	k, err = f.Next(idTDH, false, false)
	require.NoError(t, err)
	require.Equal(t, KindTDH, k)
	require.Equal(t, StateData, f.State())

	k, err = f.Next(0x20, false, false) // inner barrel data word
	require.NoError(t, err)
	require.Equal(t, KindDataWord, k)
	require.Equal(t, StateData, f.State())

	k, err = f.Next(idCDW, false, false)
	require.NoError(t, err)
	require.Equal(t, KindCDW, k)

	k, err = f.Next(idTDT, false, true) // packet_done
	require.NoError(t, err)
	require.Equal(t, KindTDT, k)
	require.Equal(t, StateDDW0OrTDHOrIHW, f.State())

	k, err = f.Next(idDDW0, false, false)
	require.NoError(t, err)
	require.Equal(t, KindDDW0, k)
	require.Equal(t, StateIHW, f.State())
}

func TestTDHNoDataHoldsForDDW0OrTDH(t *testing.T) {
	f := New()
	_, err := f.Next(idIHW, false, false)
	require.NoError(t, err)

	k, err := f.Next(idTDH, true, false) // no_data=1
	require.NoError(t, err)
	require.Equal(t, KindTDH, k)
	require.Equal(t, StateDDW0OrTDH, f.State())

	k, err = f.Next(idDDW0, false, false)
	require.NoError(t, err)
	require.Equal(t, KindDDW0, k)
	require.Equal(t, StateIHW, f.State())
}

func TestContinuationChain(t *testing.T) {
	f := New()
	_, _ = f.Next(idIHW, false, false)
	_, _ = f.Next(idTDH, false, false)
	_, _ = f.Next(0x20, false, false)
	_, err := f.Next(idTDT, false, false) // packet_done=false -> c_IHW_
	require.NoError(t, err)
	require.Equal(t, StateCIHW, f.State())

	k, err := f.Next(0xFF, false, false)
	require.NoError(t, err)
	require.Equal(t, KindIHWContinuation, k)
	require.Equal(t, StateCTDH, f.State())

	k, err = f.Next(0xFF, false, false)
	require.NoError(t, err)
	require.Equal(t, KindTDHContinuation, k)
	require.Equal(t, StateCData, f.State())

	k, err = f.Next(0x20, false, false)
	require.NoError(t, err)
	require.Equal(t, KindDataWord, k)
}

func TestMalformedIHWByteIsNotAmbiguous(t *testing.T) {
	f := New()
	k, err := f.Next(0x01, false, false) // not a real IHW id
	require.NoError(t, err)
	require.Equal(t, KindIHW, k)
	require.Equal(t, StateTDH, f.State())
}

func TestMalformedTDHByteIsNotAmbiguous(t *testing.T) {
	f := New()
	_, _ = f.Next(idIHW, false, false)
	k, err := f.Next(0x01, false, false) // not a real TDH id
	require.NoError(t, err)
	require.Equal(t, KindTDH, k)
	require.Equal(t, StateData, f.State())
}

func TestAmbiguousTransitionStillAdvances(t *testing.T) {
	f := New()
	_, _ = f.Next(idIHW, false, false)
	_, _ = f.Next(idTDH, false, false)
	k, err := f.Next(0x01, false, false) // not a data/TDT/CDW id
	require.Error(t, err)
	var ambErr *AmbiguousError
	require.True(t, errors.As(err, &ambErr))
	require.Equal(t, CandidateDWOrTDTCDW, ambErr.Candidate)
	require.Equal(t, KindDataWord, k)
	require.Equal(t, StateData, f.State())
}

func TestResetReturnsToIHW(t *testing.T) {
	f := New()
	_, _ = f.Next(idIHW, false, false)
	require.Equal(t, StateTDH, f.State())
	f.Reset()
	require.Equal(t, StateIHW, f.State())
}
