package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Plinth-Labs/maquette/pkg/dna"
)

// runDiffCmd diffs a candidate building description against a
// baseline. Exit 0 when the candidate is structurally faithful, 1 when
// drift was found, 2 on runtime errors.
func runDiffCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("diff", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	basePath := cmd.String("baseline", "", "path to the baseline description JSON (required)")
	candPath := cmd.String("candidate", "", "path to the candidate description JSON (required)")
	tolerance := cmd.Float64("tolerance", dna.DefaultDimensionTolerance, "relative dimension tolerance")
	jsonOut := cmd.Bool("json", false, "emit machine-readable JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *basePath == "" || *candPath == "" {
		fmt.Fprintf(stderr, "error: --baseline and --candidate are required\n")
		cmd.Usage()
		return 2
	}

	base, err := loadDescription(*basePath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	cand, err := loadDescription(*candPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	differ := dna.NewDiffer(dna.WithDimensionTolerance(*tolerance))
	drift := differ.Diff(base, cand)

	if *jsonOut {
		out, _ := json.MarshalIndent(drift, "", "  ")
		fmt.Fprintln(stdout, string(out))
	} else {
		printDrift(stdout, drift)
	}

	if drift.HasDrift {
		return 1
	}
	return 0
}

func loadDescription(path string) (dna.BuildingDescription, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dna.BuildingDescription{}, err
	}
	return dna.Parse(raw)
}

func printDrift(w io.Writer, drift dna.StructuralDrift) {
	if !drift.HasDrift {
		fmt.Fprintf(w, "%s✓ no structural drift%s (score %.4f)\n", ColorGreen, ColorReset, drift.Score)
		return
	}
	fmt.Fprintf(w, "%s✗ structural drift%s (score %.4f)\n", ColorRed, ColorReset, drift.Score)
	fmt.Fprintf(w, "  dimension drift: mean %.4f, max %.4f\n", drift.DimensionDrift, drift.MaxDimensionDrift)
	if drift.MaterialDrift > 0 {
		fmt.Fprintf(w, "  material drift:  %.4f\n", drift.MaterialDrift)
	}
	if drift.StyleChanged {
		fmt.Fprintf(w, "  style changed\n")
	}
	if drift.ProjectTypeChanged {
		fmt.Fprintf(w, "  project type changed\n")
	}
	for _, v := range drift.Violations {
		switch v.Kind {
		case dna.KindDimensionDrift:
			fmt.Fprintf(w, "  %s%s%s %s: %s -> %s (Δ %.4f)\n",
				ColorYellow, v.Kind, ColorReset, v.Field, v.Base, v.Candidate, v.Delta)
		default:
			fmt.Fprintf(w, "  %s%s%s %s: %s -> %s\n",
				ColorYellow, v.Kind, ColorReset, v.Field, v.Base, v.Candidate)
		}
	}
}
