package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wscheck/internal/diag"
	"wscheck/internal/diagfmt"
	"wscheck/internal/driver"
	"wscheck/internal/project"
	"wscheck/internal/version"
)

// errDiagnostics is returned after diagnostics with errors were printed.
var errDiagnostics = errors.New("diagnostics reported errors")

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [directory]",
	Short: "Validate the WebSocket services of every package under a directory",
	Long: `Validate every package (a directory holding *.svc.yaml files) under the given
directory, or the current directory when omitted. A file argument selects the
package that contains it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	diagCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	diagCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	diagCmd.Flags().Bool("disk-cache", false, "reuse results of unchanged packages from the disk cache")
	diagCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

type diagFlags struct {
	format           string
	maxDiagnostics   int
	maxFromFlag      bool
	showTimings      bool
	quiet            bool
	noWarnings       bool
	warningsAsErrors bool
	jobs             int
	withNotes        bool
	fullPath         bool
	diskCache        bool
	ui               uiMode
}

func readDiagFlags(cmd *cobra.Command) (diagFlags, error) {
	var (
		f   diagFlags
		err error
	)
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch f.format {
	case "pretty", "short", "json", "sarif":
	default:
		return f, fmt.Errorf("unknown format: %s", f.format)
	}
	if f.maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return f, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	f.maxFromFlag = cmd.Root().PersistentFlags().Changed("max-diagnostics")
	if f.showTimings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.noWarnings, err = cmd.Flags().GetBool("no-warnings"); err != nil {
		return f, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if f.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return f, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if f.noWarnings && f.warningsAsErrors {
		return f, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	if f.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if f.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return f, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if f.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return f, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if f.diskCache, err = cmd.Flags().GetBool("disk-cache"); err != nil {
		return f, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiStr); err != nil {
		return f, err
	}
	return f, nil
}

// runDiagnose executes the "diag" command: it validates every package under
// the target, renders the diagnostics in the chosen format and fails with
// errDiagnostics when any error diagnostic was reported.
func runDiagnose(cmd *cobra.Command, args []string) error {
	ctx := contextOf(cmd)
	defer dumpTraceOnPanic(ctx)

	flags, err := readDiagFlags(cmd)
	if err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	st, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !st.IsDir() {
		root = filepath.Dir(root)
	}

	manifest, _, err := project.Discover(root)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	opts := driver.Options{
		MaxDiagnostics:   flags.maxDiagnostics,
		Jobs:             flags.jobs,
		WarningsAsErrors: flags.warningsAsErrors,
		IgnoreWarnings:   flags.noWarnings,
		EnableTimings:    flags.showTimings,
		Manifest:         manifest,
	}
	if manifest != nil && !flags.maxFromFlag && manifest.Config.Check.MaxDiagnostics > 0 {
		opts.MaxDiagnostics = manifest.Config.Check.MaxDiagnostics
	}
	if flags.diskCache || (manifest != nil && manifest.Config.Cache.Enabled) {
		if opts.Cache, err = openCache(manifest); err != nil {
			return err
		}
	}

	var res *driver.DirResult
	if shouldUseTUI(flags.ui, flags.format) && !flags.quiet {
		res, err = runDirWithUI(ctx, "checking "+root, root, opts)
	} else {
		res, err = driver.DiagnoseDir(ctx, root, opts)
	}
	if err != nil {
		dumpTraceRing(ctx, cmd.ErrOrStderr())
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	color, err := useColor(cmd)
	if err != nil {
		return err
	}
	if err := writeResults(cmd.OutOrStdout(), res, flags, color); err != nil {
		return err
	}
	if !flags.quiet && flags.format == "pretty" {
		writeSummary(cmd.ErrOrStderr(), res)
	}

	if res.HasErrors() {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errDiagnostics
	}
	return nil
}

func openCache(m *project.Manifest) (*driver.DiskCache, error) {
	var (
		cache *driver.DiskCache
		err   error
	)
	if dir := m.CacheDir(); dir != "" {
		cache, err = driver.OpenDiskCacheAt(dir)
	} else {
		cache, err = driver.OpenDiskCache("wscheck")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open disk cache: %w", err)
	}
	return cache, nil
}

func writeResults(w io.Writer, res *driver.DirResult, flags diagFlags, color bool) error {
	pathMode := diagfmt.PathModeAuto
	if flags.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch flags.format {
	case "pretty":
		opts := diagfmt.PrettyOpts{
			Color:     color,
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: flags.withNotes,
		}
		first := true
		for _, p := range res.Packages {
			if p.Bag.Len() == 0 && p.Bag.Dropped() == 0 {
				continue
			}
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			fmt.Fprintf(w, "== %s ==\n", displayDir(p.Dir, flags.fullPath))
			diagfmt.Pretty(w, p.Bag, res.FileSet, opts)
		}
	case "short":
		merged := mergeBags(res)
		if output := diag.FormatShortDiagnostics(merged.Items(), res.FileSet, flags.withNotes); output != "" {
			fmt.Fprintln(w, output)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     flags.withNotes,
		}
		output := make(map[string]diagfmt.DiagnosticsOutput, len(res.Packages))
		for _, p := range res.Packages {
			output[displayDir(p.Dir, flags.fullPath)] = diagfmt.BuildDiagnosticsOutput(p.Bag, res.FileSet, jsonOpts)
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "wscheck",
			ToolVersion:    version.Current().Version,
			InvocationArgs: os.Args,
		}
		if err := diagfmt.Sarif(w, mergeBags(res), res.FileSet, meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	return nil
}

// mergeBags concatenates the package bags in package order.
func mergeBags(res *driver.DirResult) *diag.Bag {
	merged := diag.NewBag(0)
	for _, p := range res.Packages {
		merged.Merge(p.Bag)
	}
	return merged
}

func writeSummary(w io.Writer, res *driver.DirResult) {
	var errs, warns, cached int
	for _, p := range res.Packages {
		if p.Cached {
			cached++
		}
		for _, d := range p.Bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	fmt.Fprintf(w, "checked %d packages (%d cached): %d errors, %d warnings\n",
		len(res.Packages), cached, errs, warns)
}

func displayDir(dir string, abs bool) string {
	if abs {
		if p, err := filepath.Abs(dir); err == nil {
			return p
		}
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		if p, err := filepath.Abs(dir); err == nil {
			if rel, err := filepath.Rel(wd, p); err == nil {
				return rel
			}
		}
	}
	return dir
}
