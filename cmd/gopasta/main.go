// Command gopasta scans, validates, filters, and optionally re-emits an
// ALICE CRU ITS readout stream, grounded on the device-lifecycle wiring
// of cmd/ublk-mem/main.go: parse flags, build a logger, drive the work
// through to completion, and translate the outcome into an exit code.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ehrlich-b/gopasta/internal/config"
	"github.com/ehrlich-b/gopasta/internal/controller"
	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/ehrlich-b/gopasta/internal/logging"
	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/stats"
	"github.com/ehrlich-b/gopasta/internal/validator"
	"github.com/ehrlich-b/gopasta/internal/view"
	"github.com/ehrlich-b/gopasta/internal/writer"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/time/rate"
)

func main() {
	root, exitCode := config.NewRootCommand(run)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(exitCode())
}

// run is the config.RunFunc cobra invokes once flags are bound and
// Validate has passed. It owns the whole pipeline lifetime: opening
// input, wiring the reader/dispatcher/controller (or the view writer),
// and translating the finished run into a report and an exit code.
func run(o config.Options) (int, error) {
	log := logging.NewLogger(&logging.Config{Level: verbosityToLevel(o.Verbosity)})

	in, closeIn, err := openInput(o.InputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fatalExitCode(err), nil
	}
	defer closeIn()

	filter, err := buildFilter(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2, nil
	}

	var customChecks config.CustomChecks
	if o.ChecksTOML != "" {
		customChecks, err = config.LoadChecksTOML(o.ChecksTOML)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2, nil
		}
	}

	if o.IsView {
		return runView(o, in, filter, log)
	}
	return runCheck(o, in, filter, customChecks, log)
}

// runView drains the input through a bare reader.Reader (no dispatcher,
// no error accounting) into an internal/view.Writer; view mode never
// fails on protocol errors, only on read failures.
func runView(o config.Options, in io.Reader, filter reader.Filter, log *logging.Logger) (int, error) {
	var kind view.Kind
	switch o.View {
	case config.ViewRDH:
		kind = view.KindRDH
	case config.ViewITSReadoutFrames:
		kind = view.KindITSReadoutFrames
	case config.ViewITSReadoutFramesData:
		kind = view.KindITSReadoutFramesData
	}

	out := os.Stdout
	vw := view.New(kind, out)

	r := reader.New(in, filter, rdh.ITSSystemID, nil, nil)
	for {
		b, err := r.Next()
		if rerr := vw.RenderBatch(b); rerr != nil {
			return fatalExitCode(rerr), nil
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			fmt.Fprintln(os.Stderr, err)
			return fatalExitCode(err), nil
		}
	}
	if err := vw.Flush(); err != nil {
		return fatalExitCode(err), nil
	}
	return 0, nil
}

// runCheck drives the full validating pipeline: reader -> dispatcher ->
// collector, under the controller's signal handling and error-budget
// policy, then finalizes, serializes, compares, reports, and computes
// the exit code.
func runCheck(o config.Options, in io.Reader, filter reader.Filter, cc config.CustomChecks, log *logging.Logger) (int, error) {
	ctl := controller.New(controller.Config{MaxTolerateErrors: o.MaxTolerateErrors}, 4096, log)
	ctl.Collector().SetAllowedErrorCodes(o.ShowOnlyErrorsWithCodes)

	r := reader.New(in, filter, rdh.ITSSystemID, ctl.Collector().In, ctl.ShutdownFlag())
	if o.RateLimitBatchesPerSec > 0 {
		r.WithLimiter(rate.NewLimiter(rate.Limit(o.RateLimitBatchesPerSec), reader.Cap))
	}

	triggerPeriod, trackAlpide := uint16(0), false
	if o.ITSTriggerPeriod != 0 {
		triggerPeriod, trackAlpide = o.ITSTriggerPeriod, true
	}

	d := validator.NewDispatcher(func(linkID uint8) *validator.LinkValidator {
		var cv *validator.CdpRunningValidator
		if o.Target != "" {
			cv = validator.NewCdpRunningValidator(validator.Config{
				AllChecks:     o.Level == config.LevelAll,
				TriggerPeriod: triggerPeriod,
				TrackAlpide:   trackAlpide,
				MuteErrors:    o.MuteErrors,
			})
		}
		return validator.NewLinkValidator(linkID, rdh.ITSSystemID, o.Level == config.LevelAll, cv, log)
	}, ctl.Collector().In, log)
	d.CPUAffinity = o.CPUAffinity

	outWriter, closeOut, err := wireOutput(o, ctl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2, nil
	}
	if closeOut != nil {
		defer closeOut()
	}

	runErr := ctl.Run(r, d)
	if outWriter != nil {
		if ferr := outWriter.Flush(); ferr != nil && runErr == nil {
			runErr = ferr
		}
	}

	snap := ctl.Collector().Finalize(nil)

	if len(cc.ChipOrdersOb) != 0 || cc.Cdps != 0 || cc.TriggersPht != 0 || cc.RdhVersion != 0 || cc.ChipCountOb != 0 {
		snap.ErrorStats.CustomChecksStatsErr = config.CheckCustom(cc, snap)
	}

	if o.InputStatsFile != "" {
		want, err := loadReferenceSnapshot(o.InputStatsFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2, nil
		}
		if mismatches := stats.Validate(snap, want); len(mismatches) > 0 {
			for _, m := range mismatches {
				fmt.Fprintln(os.Stderr, m.String())
			}
		}
	}

	if o.GenerateChecksTOML {
		out, err := config.GenerateChecksTOML(config.BuildCustomChecks(snap))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2, nil
		}
		os.Stdout.Write(out)
		return 0, nil
	}

	if err := writeStatsSnapshot(o, snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2, nil
	}

	renderReport(o, snap)

	if runErr != nil {
		return fatalExitCode(runErr), nil
	}
	if ctl.Collector().FatalSeen() {
		return 1, nil
	}
	if o.AnyErrorsExitCode != 0 && snap.ErrorStats.TotalErrors > 0 {
		return o.AnyErrorsExitCode, nil
	}
	return 0, nil
}

func wireOutput(o config.Options, ctl *controller.Controller) (*writer.Writer, func() error, error) {
	if o.Output == "" {
		return nil, nil, nil
	}

	var dst io.Writer
	var closer func() error
	if o.Output == "stdout" {
		dst = os.Stdout
		closer = func() error { return nil }
	} else {
		f, err := os.Create(o.Output)
		if err != nil {
			return nil, nil, gopastaerr.New("main.wireOutput", gopastaerr.CodeReadFailure, err.Error())
		}
		dst = f
		closer = f.Close
	}

	w := writer.New(dst)
	ctl.SetBatchSink(w.WriteBatch)
	return w, closer, nil
}

func buildFilter(o config.Options) (reader.Filter, error) {
	var f reader.Filter
	if o.FilterLink != nil {
		f.LinkID = o.FilterLink
	}
	if o.FilterFee != nil {
		f.FeeID = o.FilterFee
	}
	if fee, ok, err := o.ParsedStaveFeeID(); err != nil {
		return f, err
	} else if ok {
		f.StaveFeeID = &fee
	}
	return f, nil
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, gopastaerr.NewFatal("main.openInput", gopastaerr.CodeReadFailure, err.Error())
	}
	return f, f.Close, nil
}

func writeStatsSnapshot(o config.Options, snap stats.Snapshot) error {
	if o.OutputStats == "" || o.OutputStats == "none" {
		return nil
	}

	var data []byte
	var err error
	switch o.StatsFormat {
	case config.StatsFormatTOML:
		data, err = toml.Marshal(snap)
	default:
		data, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return gopastaerr.New("main.writeStatsSnapshot", gopastaerr.CodeInvalidInput, err.Error())
	}

	if o.OutputStats == "stdout" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(o.OutputStats, data, 0o644)
}

func loadReferenceSnapshot(path string) (stats.Snapshot, error) {
	var snap stats.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, gopastaerr.New("main.loadReferenceSnapshot", gopastaerr.CodeReadFailure, err.Error())
	}
	if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil {
		return snap, nil
	}
	if tomlErr := toml.Unmarshal(data, &snap); tomlErr != nil {
		return snap, gopastaerr.New("main.loadReferenceSnapshot", gopastaerr.CodeInvalidInput, tomlErr.Error())
	}
	return snap, nil
}

// renderReport prints the end-of-run summary spec.md §7 describes:
// total errors, unique error codes, implicated staves, a FATAL banner
// when one occurred. Styling is a bare ANSI green/red toggle; the full
// styled table product these lines stand in for is out of scope.
func renderReport(o config.Options, snap stats.Snapshot) {
	green, red, reset := "\033[32m", "\033[31m", "\033[0m"
	if o.DisableStyledViews {
		green, red, reset = "", "", ""
	}

	if snap.ErrorStats.FatalError != "" {
		fmt.Printf("%sFATAL: %s%s\n", red, snap.ErrorStats.FatalError, reset)
	}

	color := green
	if snap.ErrorStats.TotalErrors > 0 {
		color = red
	}
	fmt.Printf("%stotal errors: %d%s\n", color, snap.ErrorStats.TotalErrors, reset)
	if len(snap.ErrorStats.UniqueErrorCodes) > 0 {
		fmt.Printf("error codes: %v\n", snap.ErrorStats.UniqueErrorCodes)
	}
	if len(snap.ErrorStats.StavesWithErrors) > 0 {
		fmt.Printf("staves with errors: %v\n", snap.ErrorStats.StavesWithErrors)
	}
	for _, msg := range snap.ErrorStats.CustomChecksStatsErr {
		fmt.Printf("%scustom check failed: %s%s\n", red, msg, reset)
	}

	fmt.Printf("rdhs seen: %d, filtered: %d, hbfs: %d\n",
		snap.RdhStats.RdhsSeen, snap.RdhStats.RdhsFiltered, snap.RdhStats.HBFsSeen)
}

func verbosityToLevel(v int) logging.LogLevel {
	switch {
	case v <= 0:
		return logging.LevelError
	case v == 1:
		return logging.LevelWarn
	case v == 2:
		return logging.LevelInfo
	default:
		return logging.LevelDebug
	}
}

// fatalExitCode maps a structured fatal error to a small, stable
// nonzero exit code family: read failures and unsupported RDH versions
// get distinct codes so a caller's shell script can tell them apart.
func fatalExitCode(err error) int {
	switch {
	case gopastaerr.IsCode(err, gopastaerr.CodeUnsupportedRDH):
		return 3
	case gopastaerr.IsCode(err, gopastaerr.CodeReadFailure):
		return 4
	case gopastaerr.IsCode(err, gopastaerr.CodeBadOffset), gopastaerr.IsCode(err, gopastaerr.CodeInvalidInput):
		return 5
	default:
		return 1
	}
}
