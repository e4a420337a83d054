// Package config parses and validates the CLI surface: filters, output
// targets, error-tolerance policy, and the check/view subcommand
// targets, grounded on the teacher's flag-parsing CLI
// (cmd/ublk-mem/main.go) but built on cobra for the subcommand tree the
// scanner needs.
package config

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/ehrlich-b/gopasta/internal/rdh"
)

// CheckTarget names the scope a `check` subcommand run covers.
type CheckTarget string

const (
	TargetITS      CheckTarget = "its"
	TargetITSStave CheckTarget = "its-stave"
)

// CheckLevel is the `check sanity|all` distinction: sanity runs only the
// always-on RDH/word sanity checks, all additionally enables the
// running (cross-CDP) checks.
type CheckLevel string

const (
	LevelSanity CheckLevel = "sanity"
	LevelAll    CheckLevel = "all"
)

// ViewKind names a `view` subcommand target.
type ViewKind string

const (
	ViewRDH                  ViewKind = "rdh"
	ViewITSReadoutFrames     ViewKind = "its-readout-frames"
	ViewITSReadoutFramesData ViewKind = "its-readout-frames-data"
)

// StatsFormat is the serialization chosen with --stats-format; the
// --output-stats path's extension does not select it.
type StatsFormat string

const (
	StatsFormatJSON StatsFormat = "json"
	StatsFormatTOML StatsFormat = "toml"
)

// Options is the fully-parsed, not-yet-validated CLI surface of one
// invocation. The check fields (IsCheck, Level, Target) or the view
// fields (IsView, View) are meaningful depending on which subcommand
// ran; the other group keeps its zero value.
type Options struct {
	InputPath string // positional; empty means stdin

	// Mutually exclusive filters.
	FilterLink     *uint8
	FilterFee      *uint16
	FilterITSStave string // raw "L<layer>_<stave>" form; parsed by ParsedStaveFeeID

	Output string // "", "stdout", or a file path

	Verbosity int // 0..4

	MaxTolerateErrors uint32 // 0 = unlimited
	AnyErrorsExitCode int    // 0 = unset, else 1..255

	ITSTriggerPeriod uint16 // requires FilterITSStave

	MuteErrors              bool
	ShowOnlyErrorsWithCodes []string

	// CPUAffinity pins each link worker round-robin over this CPU list;
	// empty disables pinning.
	CPUAffinity []int
	// RateLimitBatchesPerSec throttles batch production to this many
	// batches/sec; 0 disables throttling.
	RateLimitBatchesPerSec float64

	OutputStats    string // "", "stdout", "none", or a path
	StatsFormat    StatsFormat
	InputStatsFile string

	ChecksTOML         string
	GenerateChecksTOML bool

	DisableStyledViews bool

	// Subcommand selection. IsCheck and IsView are mutually exclusive;
	// Validate does not require either of them to be true.
	IsCheck bool
	Level   CheckLevel
	Target  CheckTarget

	IsView bool
	View   ViewKind
}

// Validate enforces the flag-combination rules from the CLI surface
// (spec.md §6): filter exclusivity, --output requiring a filter,
// --its-trigger-period requiring --filter-its-stave, a well-formed
// any-errors-exit-code, and --output-stats requiring --stats-format.
// Errors are gopastaerr.CodeUserError, the class main maps to exit(2).
func (o *Options) Validate() error {
	filterCount := 0
	if o.FilterLink != nil {
		filterCount++
	}
	if o.FilterFee != nil {
		filterCount++
	}
	if o.FilterITSStave != "" {
		filterCount++
	}
	if filterCount > 1 {
		return userErr("--filter-link, --filter-fee, and --filter-its-stave are mutually exclusive")
	}

	if o.Output != "" && filterCount == 0 {
		return userErr("--output requires one of --filter-link, --filter-fee, --filter-its-stave")
	}

	if o.Verbosity < 0 || o.Verbosity > 4 {
		return userErr(fmt.Sprintf("--verbosity %d out of range [0,4]", o.Verbosity))
	}

	if o.AnyErrorsExitCode != 0 && (o.AnyErrorsExitCode < 1 || o.AnyErrorsExitCode > 255) {
		return userErr(fmt.Sprintf("--any-errors-exit-code %d out of range [1,255]", o.AnyErrorsExitCode))
	}

	if o.ITSTriggerPeriod != 0 && o.FilterITSStave == "" {
		return userErr("--its-trigger-period requires --filter-its-stave")
	}

	if o.RateLimitBatchesPerSec < 0 {
		return userErr("--rate-limit must be >= 0")
	}

	if o.OutputStats != "" && o.OutputStats != "none" && o.StatsFormat == "" {
		return userErr("--output-stats requires --stats-format")
	}
	if o.StatsFormat != "" && o.StatsFormat != StatsFormatJSON && o.StatsFormat != StatsFormatTOML {
		return userErr(fmt.Sprintf("--stats-format %q must be json or toml", o.StatsFormat))
	}

	if o.IsCheck && o.IsView {
		return userErr("check and view are mutually exclusive")
	}
	if o.IsCheck {
		if o.Level != LevelSanity && o.Level != LevelAll {
			return userErr(fmt.Sprintf("check level %q must be sanity or all", o.Level))
		}
		if o.Target != "" && o.Target != TargetITS && o.Target != TargetITSStave {
			return userErr(fmt.Sprintf("check target %q must be its or its-stave", o.Target))
		}
		if o.Target == TargetITSStave && o.FilterITSStave == "" {
			return userErr("check all its-stave requires --filter-its-stave")
		}
	}
	if o.IsView {
		switch o.View {
		case ViewRDH, ViewITSReadoutFrames, ViewITSReadoutFramesData:
		default:
			return userErr(fmt.Sprintf("view target %q must be rdh, its-readout-frames, or its-readout-frames-data", o.View))
		}
	}

	return nil
}

// ParsedStaveFeeID parses FilterITSStave as "L<layer>_<stave>", returning
// ok=false when no stave filter was requested.
func (o *Options) ParsedStaveFeeID() (rdh.FeeID, bool, error) {
	if o.FilterITSStave == "" {
		return 0, false, nil
	}
	fee, err := rdh.ParseLayerStave(o.FilterITSStave)
	if err != nil {
		return 0, false, err
	}
	return fee, true, nil
}

func userErr(msg string) error {
	return gopastaerr.New("config.Validate", gopastaerr.CodeUserError, msg)
}
