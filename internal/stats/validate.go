package stats

import "fmt"

// Mismatch names one field that disagreed between a finalized snapshot
// and a user-supplied reference.
type Mismatch struct {
	Field string
	Got   string
	Want  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: got %s, want %s", m.Field, m.Got, m.Want)
}

// Validate compares got against a reference snapshot field by field and
// returns every mismatch found. Hand-written per field, not reflected or
// generated: Design Note 9's code-gen suggestion has no macro or
// go:generate equivalent in this corpus to ground on, so each compared
// field is named explicitly here. Compared: the rdh_stats counters and
// scalars, trigger_stats, the its_stats layer/stave set, total_errors,
// unique_error_codes, fatal_error, and alpide readout flags. Not
// compared: links, fee ids, reported_errors, custom_checks_stats_errors,
// staves_with_errors, and alpide chip orders. Adding a field to Snapshot
// without adding its comparison here is a silent regression the caller
// must watch for in review; there is no compiler enforcement of
// completeness.
func Validate(got, want Snapshot) []Mismatch {
	var mm []Mismatch
	eq := func(field string, gotV, wantV any, ok bool) {
		if !ok {
			mm = append(mm, Mismatch{Field: field, Got: fmt.Sprint(gotV), Want: fmt.Sprint(wantV)})
		}
	}

	eq("rdh_stats.rdhs_seen", got.RdhStats.RdhsSeen, want.RdhStats.RdhsSeen, got.RdhStats.RdhsSeen == want.RdhStats.RdhsSeen)
	eq("rdh_stats.rdhs_filtered", got.RdhStats.RdhsFiltered, want.RdhStats.RdhsFiltered, got.RdhStats.RdhsFiltered == want.RdhStats.RdhsFiltered)
	eq("rdh_stats.rdh_version", got.RdhStats.RdhVersion, want.RdhStats.RdhVersion, got.RdhStats.RdhVersion == want.RdhStats.RdhVersion)
	eq("rdh_stats.hbfs_seen", got.RdhStats.HBFsSeen, want.RdhStats.HBFsSeen, got.RdhStats.HBFsSeen == want.RdhStats.HBFsSeen)
	eq("rdh_stats.payload_size", got.RdhStats.PayloadSize, want.RdhStats.PayloadSize, got.RdhStats.PayloadSize == want.RdhStats.PayloadSize)
	eq("rdh_stats.data_format", got.RdhStats.DataFormat, want.RdhStats.DataFormat, got.RdhStats.DataFormat == want.RdhStats.DataFormat)
	eq("rdh_stats.system_id", got.RdhStats.SystemID, want.RdhStats.SystemID, got.RdhStats.SystemID == want.RdhStats.SystemID)
	eq("rdh_stats.run_trigger_type", got.RdhStats.RunTriggerType, want.RdhStats.RunTriggerType, got.RdhStats.RunTriggerType == want.RdhStats.RunTriggerType)

	eq("rdh_stats.trigger_stats", got.RdhStats.TriggerStats, want.RdhStats.TriggerStats, got.RdhStats.TriggerStats == want.RdhStats.TriggerStats)

	eq("rdh_stats.its_stats.layer_staves", layerStaveSet(got.RdhStats.ItsStats.LayerStaves), layerStaveSet(want.RdhStats.ItsStats.LayerStaves),
		sameSet(got.RdhStats.ItsStats.LayerStaves, want.RdhStats.ItsStats.LayerStaves))

	eq("error_stats.total_errors", got.ErrorStats.TotalErrors, want.ErrorStats.TotalErrors, got.ErrorStats.TotalErrors == want.ErrorStats.TotalErrors)
	eq("error_stats.unique_error_codes", got.ErrorStats.UniqueErrorCodes, want.ErrorStats.UniqueErrorCodes, sameStrings(got.ErrorStats.UniqueErrorCodes, want.ErrorStats.UniqueErrorCodes))
	eq("error_stats.fatal_error", got.ErrorStats.FatalError, want.ErrorStats.FatalError, got.ErrorStats.FatalError == want.ErrorStats.FatalError)

	if got.AlpideStats != nil && want.AlpideStats != nil {
		eq("alpide_stats.readout_flags", got.AlpideStats.ReadoutFlags, want.AlpideStats.ReadoutFlags, got.AlpideStats.ReadoutFlags == want.AlpideStats.ReadoutFlags)
	} else {
		eq("alpide_stats.present", got.AlpideStats != nil, want.AlpideStats != nil, (got.AlpideStats == nil) == (want.AlpideStats == nil))
	}

	return mm
}

func sameStrings(a, b []string) bool {
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

func sameSet(a, b []LayerStave) bool {
	if len(a) != len(b) {
		return false
	}
	bSet := make(map[LayerStave]bool, len(b))
	for _, ls := range b {
		bSet[ls] = true
	}
	for _, ls := range a {
		if !bSet[ls] {
			return false
		}
	}
	return true
}

func layerStaveSet(ls []LayerStave) []LayerStave { return ls }
