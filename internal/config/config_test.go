package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validOptions() Options {
	return Options{IsCheck: true, Level: LevelSanity}
}

func TestValidateFilterExclusivity(t *testing.T) {
	link := uint8(3)
	fee := uint16(7)
	o := validOptions()
	o.FilterLink = &link
	o.FilterFee = &fee
	require.Error(t, o.Validate())
}

func TestValidateOutputRequiresFilter(t *testing.T) {
	o := validOptions()
	o.Output = "stdout"
	require.Error(t, o.Validate())

	link := uint8(3)
	o.FilterLink = &link
	require.NoError(t, o.Validate())
}

func TestValidateVerbosityRange(t *testing.T) {
	o := validOptions()
	o.Verbosity = -1
	require.Error(t, o.Validate())

	o.Verbosity = 5
	require.Error(t, o.Validate())

	o.Verbosity = 4
	require.NoError(t, o.Validate())
}

func TestValidateAnyErrorsExitCodeRange(t *testing.T) {
	o := validOptions()
	o.AnyErrorsExitCode = 256
	require.Error(t, o.Validate())

	o.AnyErrorsExitCode = -1
	require.Error(t, o.Validate())

	o.AnyErrorsExitCode = 0
	require.NoError(t, o.Validate())

	o.AnyErrorsExitCode = 17
	require.NoError(t, o.Validate())
}

func TestValidateTriggerPeriodRequiresStaveFilter(t *testing.T) {
	o := validOptions()
	o.ITSTriggerPeriod = 100
	require.Error(t, o.Validate())

	o.FilterITSStave = "L0_12"
	o.Target = TargetITSStave
	require.NoError(t, o.Validate())
}

func TestValidateOutputStatsRequiresFormat(t *testing.T) {
	o := validOptions()
	o.OutputStats = "stdout"
	require.Error(t, o.Validate())

	o.StatsFormat = StatsFormatJSON
	require.NoError(t, o.Validate())
}

func TestValidateOutputStatsNoneSkipsFormat(t *testing.T) {
	o := validOptions()
	o.OutputStats = "none"
	require.NoError(t, o.Validate())
}

func TestValidateStatsFormatMustBeKnown(t *testing.T) {
	o := validOptions()
	o.OutputStats = "stdout"
	o.StatsFormat = StatsFormat("yaml")
	require.Error(t, o.Validate())
}

func TestValidateCheckViewMutuallyExclusive(t *testing.T) {
	o := validOptions()
	o.IsView = true
	o.View = ViewRDH
	require.Error(t, o.Validate())
}

func TestValidateCheckLevelMustBeKnown(t *testing.T) {
	o := validOptions()
	o.Level = CheckLevel("partial")
	require.Error(t, o.Validate())
}

func TestValidateCheckTargetMustBeKnown(t *testing.T) {
	o := validOptions()
	o.Target = CheckTarget("bogus")
	require.Error(t, o.Validate())
}

func TestValidateItsStaveTargetRequiresStaveFilter(t *testing.T) {
	o := validOptions()
	o.Target = TargetITSStave
	require.Error(t, o.Validate())

	o.FilterITSStave = "L3_05"
	require.NoError(t, o.Validate())
}

func TestValidateViewKindMustBeKnown(t *testing.T) {
	o := Options{IsView: true, View: ViewKind("nonsense")}
	require.Error(t, o.Validate())

	o.View = ViewITSReadoutFramesData
	require.NoError(t, o.Validate())
}

func TestValidateNeitherCheckNorView(t *testing.T) {
	o := Options{}
	require.NoError(t, o.Validate())
}

func TestParsedStaveFeeIDEmptyMeansNotRequested(t *testing.T) {
	o := Options{}
	_, ok, err := o.ParsedStaveFeeID()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParsedStaveFeeIDParsesLayerStave(t *testing.T) {
	o := Options{FilterITSStave: "L0_12"}
	fee, ok, err := o.ParsedStaveFeeID()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotZero(t, fee)
}

func TestParsedStaveFeeIDRejectsMalformed(t *testing.T) {
	o := Options{FilterITSStave: "garbage"}
	_, _, err := o.ParsedStaveFeeID()
	require.Error(t, err)
}
