package validator

import (
	"testing"

	"github.com/ehrlich-b/gopasta/internal/words"
	"github.com/stretchr/testify/require"
)

func TestSetTDHPromotesImmediatelyPrecedingInternalTDH(t *testing.T) {
	var c statusWordContainer

	c.setTDH(words.TDH{TriggerBC: 100, InternalTrigger: true})
	require.Nil(t, c.prevIntTDH, "no prior TDH to promote yet")

	c.setTDH(words.TDH{TriggerBC: 200, InternalTrigger: true})
	require.NotNil(t, c.prevIntTDH)
	require.Equal(t, uint16(100), c.prevIntTDH.TriggerBC, "the immediately preceding internal TDH, not an older one")

	c.setTDH(words.TDH{TriggerBC: 300, InternalTrigger: false})
	require.Equal(t, uint16(200), c.prevIntTDH.TriggerBC, "the TDH demoted out of currentTDH (200) had internal_trigger=1 and is promoted; the new non-internal TDH is not")

	c.setTDH(words.TDH{TriggerBC: 400, InternalTrigger: true})
	require.Equal(t, uint16(200), c.prevIntTDH.TriggerBC, "the TDH demoted out of currentTDH (300) had internal_trigger=0, so prevIntTDH is unchanged")
}
