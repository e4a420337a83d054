package config

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/stats"
)

// CheckCustom compares a finished run's snapshot against a loaded
// CustomChecks reference, returning one message per field that
// disagreed. Fields left at their zero value in cc are not checked.
func CheckCustom(cc CustomChecks, snap stats.Snapshot) []string {
	var errs []string

	if cc.Cdps != 0 && uint64(cc.Cdps) != snap.RdhStats.RdhsSeen {
		errs = append(errs, fmt.Sprintf("cdps: got %d, want %d", snap.RdhStats.RdhsSeen, cc.Cdps))
	}
	if cc.TriggersPht != 0 && uint64(cc.TriggersPht) != snap.RdhStats.TriggerStats.PhT {
		errs = append(errs, fmt.Sprintf("triggers_pht: got %d, want %d", snap.RdhStats.TriggerStats.PhT, cc.TriggersPht))
	}
	if cc.RdhVersion != 0 && cc.RdhVersion != snap.RdhStats.RdhVersion {
		errs = append(errs, fmt.Sprintf("rdh_version: got %d, want %d", snap.RdhStats.RdhVersion, cc.RdhVersion))
	}
	errs = append(errs, checkChipOrders(cc, snap)...)

	return errs
}

// checkChipOrders validates the outer-barrel chip connector ordering and
// per-lane chip count against what this run actually observed, reporting
// an E9005 for any lane whose order or count disagrees.
func checkChipOrders(cc CustomChecks, snap stats.Snapshot) []string {
	if len(cc.ChipOrdersOb) == 0 && cc.ChipCountOb == 0 {
		return nil
	}

	var observed [][]uint8
	if snap.AlpideStats != nil {
		observed = snap.AlpideStats.ChipOrders
	}

	var errs []string

	if len(cc.ChipOrdersOb) != 0 {
		if len(observed) != len(cc.ChipOrdersOb) {
			errs = append(errs, fmt.Sprintf("chip_orders_ob: [E9005] got %d outer-barrel lanes, want %d", len(observed), len(cc.ChipOrdersOb)))
		}
		n := len(observed)
		if len(cc.ChipOrdersOb) < n {
			n = len(cc.ChipOrdersOb)
		}
		for i := 0; i < n; i++ {
			if !chipOrderEqual(observed[i], cc.ChipOrdersOb[i]) {
				errs = append(errs, fmt.Sprintf("chip_orders_ob: [E9005] lane %d chip id order %v != want %v", i, observed[i], cc.ChipOrdersOb[i]))
			}
		}
	}

	if cc.ChipCountOb != 0 {
		for i, order := range observed {
			if len(order) != int(cc.ChipCountOb) {
				errs = append(errs, fmt.Sprintf("chip_count_ob: [E9005] lane %d chip count %d != want %d", i, len(order), cc.ChipCountOb))
			}
		}
	}

	return errs
}

func chipOrderEqual(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BuildCustomChecks renders a starter reference from a finished run's
// snapshot, the counterpart --generate-checks-toml writes out.
func BuildCustomChecks(snap stats.Snapshot) CustomChecks {
	cc := CustomChecks{
		Cdps:        uint32(snap.RdhStats.RdhsSeen),
		TriggersPht: uint32(snap.RdhStats.TriggerStats.PhT),
		RdhVersion:  snap.RdhStats.RdhVersion,
	}
	if snap.AlpideStats != nil && len(snap.AlpideStats.ChipOrders) > 0 {
		cc.ChipOrdersOb = snap.AlpideStats.ChipOrders
		cc.ChipCountOb = uint8(len(snap.AlpideStats.ChipOrders[0]))
	}
	return cc
}
