package config

import (
	"github.com/spf13/cobra"
)

// RunFunc is what main wires up: given fully-parsed, validated Options,
// drive the scanner and return its exit code.
type RunFunc func(Options) (int, error)

// NewRootCommand builds the gopasta command tree: persistent flags
// shared by every leaf, a `check sanity|all` subcommand tree, and a
// `view rdh|its-readout-frames|its-readout-frames-data` subcommand
// tree. run is invoked once flags are bound into Options and Validate
// has passed. It returns the command and an accessor that yields run's
// exit code once Execute has returned; cobra's RunE protocol has no
// return-code channel of its own, so callers read it through this.
func NewRootCommand(run RunFunc) (*cobra.Command, func() int) {
	var o Options
	var exitCode int

	root := &cobra.Command{
		Use:           "gopasta [path]",
		Short:         "Scan and validate an ALICE CRU ITS readout stream",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindPersistentFlags(root, &o)

	check := &cobra.Command{
		Use:   "check",
		Short: "Run protocol checks over the input",
	}
	check.AddCommand(
		newCheckLevelCommand(LevelSanity, &o, run, &exitCode),
		newCheckLevelCommand(LevelAll, &o, run, &exitCode),
	)

	view := &cobra.Command{
		Use:   "view",
		Short: "Render a terminal view of the input instead of validating it",
	}
	view.AddCommand(
		newViewCommand(ViewRDH, &o, run, &exitCode),
		newViewCommand(ViewITSReadoutFrames, &o, run, &exitCode),
		newViewCommand(ViewITSReadoutFramesData, &o, run, &exitCode),
	)

	root.AddCommand(check, view)
	return root, func() int { return exitCode }
}

func bindPersistentFlags(cmd *cobra.Command, o *Options) {
	flags := cmd.PersistentFlags()

	var linkID uint8
	var feeID uint16
	flags.Uint8Var(&linkID, "filter-link", 0, "filter to one link id (0-255)")
	flags.Uint16Var(&feeID, "filter-fee", 0, "filter to one FEE id")
	flags.StringVar(&o.FilterITSStave, "filter-its-stave", "", "filter to one stave, e.g. L0_12")

	flags.StringVarP(&o.Output, "output", "o", "", `write filtered CDPs to path ("stdout" for stdout); requires a filter`)
	flags.IntVarP(&o.Verbosity, "verbosity", "v", 1, "log verbosity 0-4")
	flags.Uint32VarP(&o.MaxTolerateErrors, "max-tolerate-errors", "e", 0, "stop after this many errors (0 = unlimited)")
	flags.IntVarP(&o.AnyErrorsExitCode, "any-errors-exit-code", "E", 0, "exit with this code (1-255) if any error was seen")
	flags.Uint16VarP(&o.ITSTriggerPeriod, "its-trigger-period", "p", 0, "expected internal-trigger BC period; requires --filter-its-stave")
	flags.BoolVarP(&o.MuteErrors, "mute-errors", "m", false, "suppress per-error output, keep counting")
	flags.StringSliceVarP(&o.ShowOnlyErrorsWithCodes, "show-only-errors-with-codes", "w", nil, "only report these E-codes")
	flags.StringVarP(&o.OutputStats, "output-stats", "S", "", `write the stats snapshot to path ("stdout", "none", or a path)`)
	var statsFormat string
	flags.StringVarP(&statsFormat, "stats-format", "D", "", "stats snapshot format: json or toml")
	flags.StringVarP(&o.InputStatsFile, "input-stats-file", "i", "", "compare against a previously captured stats snapshot")
	flags.StringVarP(&o.ChecksTOML, "checks-toml", "c", "", "path to a custom-checks TOML file")
	flags.BoolVarP(&o.GenerateChecksTOML, "generate-checks-toml", "g", false, "emit a starter custom-checks TOML from this run and exit")
	flags.BoolVarP(&o.DisableStyledViews, "disable-styled-views", "d", false, "disable ANSI styling in views and the report")
	flags.IntSliceVar(&o.CPUAffinity, "cpu-affinity", nil, "pin link workers round-robin over this CPU list")
	flags.Float64Var(&o.RateLimitBatchesPerSec, "rate-limit", 0, "throttle batch production to this many batches/sec (0 = unlimited)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if f := cmd.Flags().Lookup("filter-link"); f != nil && f.Changed {
			v := uint8(linkID)
			o.FilterLink = &v
		}
		if f := cmd.Flags().Lookup("filter-fee"); f != nil && f.Changed {
			o.FilterFee = &feeID
		}
		if statsFormat != "" {
			o.StatsFormat = StatsFormat(statsFormat)
		}
		if len(args) == 1 {
			o.InputPath = args[0]
		}
		return nil
	}
}

func newCheckLevelCommand(level CheckLevel, o *Options, run RunFunc, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:       string(level) + " [its|its-stave] [path]",
		Short:     "Run " + string(level) + " checks",
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: []string{string(TargetITS), string(TargetITSStave)},
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		o.IsCheck = true
		o.Level = level
		switch len(args) {
		case 2:
			o.Target = CheckTarget(args[0])
			o.InputPath = args[1]
		case 1:
			if t := CheckTarget(args[0]); t == TargetITS || t == TargetITSStave {
				o.Target = t
				o.InputPath = ""
			} else {
				o.InputPath = args[0]
			}
		}
		if err := o.Validate(); err != nil {
			return err
		}
		code, err := run(*o)
		*exitCode = code
		return err
	}
	return cmd
}

func newViewCommand(kind ViewKind, o *Options, run RunFunc, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind) + " [path]",
		Short: "Render the " + string(kind) + " view",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		o.IsView = true
		o.View = kind
		if len(args) == 1 {
			o.InputPath = args[0]
		}
		if err := o.Validate(); err != nil {
			return err
		}
		code, err := run(*o)
		*exitCode = code
		return err
	}
	return cmd
}
