package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Plinth-Labs/maquette/pkg/config"
	"github.com/Plinth-Labs/maquette/pkg/drift"
)

// runCompareCmd compares two directories of panel rasters. Files are
// paired by name, and the name without its extension is the panel
// type, so elevations and plans pick up their category tolerances.
// Exit 0 when the sheet passes, 1 when it fails, 2 on runtime errors.
func runCompareCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("compare", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	baseDir := cmd.String("baseline-dir", "", "directory of baseline rasters (required)")
	candDir := cmd.String("candidate-dir", "", "directory of candidate rasters (required)")
	profilePath := cmd.String("profile", "", "tolerance profile YAML (default $TOLERANCE_PROFILE)")
	edgeTol := cmd.Int("edge-tolerance", 0, "enable edge scoring with this pixel tolerance")
	jsonOut := cmd.Bool("json", false, "emit the sheet report as JSON")
	var only multiFlag
	cmd.Var(&only, "only", "restrict to this panel type (repeatable)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *baseDir == "" || *candDir == "" {
		fmt.Fprintf(stderr, "error: --baseline-dir and --candidate-dir are required\n")
		cmd.Usage()
		return 2
	}

	cfg := config.Load()
	if *profilePath != "" {
		cfg.ProfilePath = *profilePath
	}
	profile, err := config.LoadToleranceProfile(cfg.ProfilePath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	pairs, unmatched, err := pairRasterDirs(*baseDir, *candDir, only)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	for _, name := range unmatched {
		fmt.Fprintf(stderr, "%swarning:%s %s has no counterpart, skipped\n", ColorYellow, ColorReset, name)
	}
	if len(pairs) == 0 {
		fmt.Fprintf(stderr, "error: no comparable panel pairs in %s and %s\n", *baseDir, *candDir)
		return 2
	}

	opts := profile.ComparatorOptions()
	if *edgeTol > 0 {
		opts = append(opts, drift.WithEdgeScoring(*edgeTol))
	}
	comparator := drift.NewComparator(opts...)
	report := comparator.CompareSheet(context.Background(), pairs)

	if *jsonOut {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Fprintln(stdout, string(out))
	} else {
		printSheetReport(stdout, report)
	}

	if report.Passed {
		return 0
	}
	return 1
}

// pairRasterDirs matches raster files across two directories by name.
// Files present on only one side come back in unmatched.
func pairRasterDirs(baseDir, candDir string, only []string) ([]drift.PanelPair, []string, error) {
	base, err := listRasters(baseDir)
	if err != nil {
		return nil, nil, err
	}
	cand, err := listRasters(candDir)
	if err != nil {
		return nil, nil, err
	}

	wanted := make(map[string]bool, len(only))
	for _, t := range only {
		wanted[t] = true
	}

	names := make([]string, 0, len(base))
	for name := range base {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []drift.PanelPair
	var unmatched []string
	for _, name := range names {
		panelType := strings.TrimSuffix(name, filepath.Ext(name))
		if len(wanted) > 0 && !wanted[panelType] {
			continue
		}
		candPath, ok := cand[name]
		if !ok {
			unmatched = append(unmatched, filepath.Join(baseDir, name))
			continue
		}
		baseData, err := os.ReadFile(base[name])
		if err != nil {
			return nil, nil, err
		}
		candData, err := os.ReadFile(candPath)
		if err != nil {
			return nil, nil, err
		}
		pairs = append(pairs, drift.PanelPair{
			PanelType: panelType,
			Baseline:  baseData,
			Candidate: candData,
		})
		delete(cand, name)
	}
	for name := range cand {
		panelType := strings.TrimSuffix(name, filepath.Ext(name))
		if len(wanted) > 0 && !wanted[panelType] {
			continue
		}
		unmatched = append(unmatched, filepath.Join(candDir, name))
	}
	sort.Strings(unmatched)
	return pairs, unmatched, nil
}

func listRasters(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			out[e.Name()] = filepath.Join(dir, e.Name())
		}
	}
	return out, nil
}

func printSheetReport(w io.Writer, report drift.SheetReport) {
	for _, c := range report.Panels {
		icon := ColorYellow + "⚠️ " + ColorReset
		switch {
		case c.Degraded:
		case c.Passed != nil && *c.Passed:
			icon = ColorGreen + "✅" + ColorReset
		default:
			icon = ColorRed + "❌" + ColorReset
		}
		fmt.Fprintf(w, "%s %-22s %-20s", icon, c.PanelType, c.Category)
		if c.ImageCompared {
			fmt.Fprintf(w, " similarity %.3f  hash distance %d", c.Similarity, c.HashDistance)
		}
		if c.Edges != nil {
			fmt.Fprintf(w, "  edge F1 %.3f", c.Edges.F1)
		}
		fmt.Fprintln(w)
		for _, warn := range c.Warnings {
			fmt.Fprintf(w, "     %s%s%s\n", ColorGray, warn, ColorReset)
		}
	}

	status := ColorGreen + "PASS" + ColorReset
	if !report.Passed {
		status = ColorRed + "FAIL" + ColorReset
	}
	fmt.Fprintf(w, "\n%s%s%s  similarity %.3f  pass rate %.2f",
		ColorBold, status, ColorReset, report.OverallSimilarity, report.PassRate)
	if report.DegradedCount > 0 {
		fmt.Fprintf(w, "  degraded %d", report.DegradedCount)
	}
	fmt.Fprintln(w)
}
