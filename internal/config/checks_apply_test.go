package config

import (
	"testing"

	"github.com/ehrlich-b/gopasta/internal/stats"
	"github.com/stretchr/testify/require"
)

func TestCheckCustomNoMismatches(t *testing.T) {
	snap := stats.Snapshot{}
	snap.RdhStats.RdhsSeen = 10
	snap.RdhStats.RdhVersion = 7
	snap.RdhStats.TriggerStats.PhT = 3

	cc := CustomChecks{Cdps: 10, RdhVersion: 7, TriggersPht: 3}
	require.Empty(t, CheckCustom(cc, snap))
}

func TestCheckCustomReportsMismatches(t *testing.T) {
	snap := stats.Snapshot{}
	snap.RdhStats.RdhsSeen = 9
	snap.RdhStats.RdhVersion = 6

	cc := CustomChecks{Cdps: 10, RdhVersion: 7}
	errs := CheckCustom(cc, snap)
	require.Len(t, errs, 2)
}

func TestCheckCustomZeroFieldsSkipped(t *testing.T) {
	snap := stats.Snapshot{}
	snap.RdhStats.RdhsSeen = 123

	require.Empty(t, CheckCustom(CustomChecks{}, snap))
}

func TestCheckCustomChipOrderMismatchReportsE9005(t *testing.T) {
	snap := stats.Snapshot{}
	cc := CustomChecks{ChipOrdersOb: [][]uint8{{0, 1, 2}}}
	errs := CheckCustom(cc, snap)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "E9005")
}

func TestCheckCustomChipOrderMatches(t *testing.T) {
	snap := stats.Snapshot{}
	snap.AlpideStats = &stats.AlpideStatsSnapshot{ChipOrders: [][]uint8{{0, 1, 2}}}
	cc := CustomChecks{ChipOrdersOb: [][]uint8{{0, 1, 2}}, ChipCountOb: 3}
	require.Empty(t, CheckCustom(cc, snap))
}

func TestCheckCustomChipCountMismatchReportsE9005(t *testing.T) {
	snap := stats.Snapshot{}
	snap.AlpideStats = &stats.AlpideStatsSnapshot{ChipOrders: [][]uint8{{0, 1}}}
	cc := CustomChecks{ChipCountOb: 3}
	errs := CheckCustom(cc, snap)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "E9005")
}

func TestBuildCustomChecksFromSnapshot(t *testing.T) {
	snap := stats.Snapshot{}
	snap.RdhStats.RdhsSeen = 42
	snap.RdhStats.RdhVersion = 7
	snap.RdhStats.TriggerStats.PhT = 5

	cc := BuildCustomChecks(snap)
	require.Equal(t, uint32(42), cc.Cdps)
	require.Equal(t, uint8(7), cc.RdhVersion)
	require.Equal(t, uint32(5), cc.TriggersPht)
}
