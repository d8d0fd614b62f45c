package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Plinth-Labs/maquette/pkg/dna"
	"github.com/Plinth-Labs/maquette/pkg/pack"
)

// runFingerprintCmd validates a building description and prints its
// design hash and derived geometry hash. Exit 0 on a valid
// description, 1 when validation fails, 2 on runtime errors.
func runFingerprintCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	descPath := cmd.String("description", "", "path to the building description JSON (required)")
	jsonOut := cmd.Bool("json", false, "emit machine-readable JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *descPath == "" {
		fmt.Fprintf(stderr, "error: --description is required\n")
		cmd.Usage()
		return 2
	}

	raw, err := os.ReadFile(*descPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	validator, err := dna.NewValidator()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	result := validator.Validate(raw)
	if !result.Valid {
		if *jsonOut {
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Fprintln(stdout, string(out))
		} else {
			fmt.Fprintf(stderr, "%s✗ invalid building description%s\n", ColorRed, ColorReset)
			for _, e := range result.Errors {
				fmt.Fprintf(stderr, "  %s%s%s %s: %s\n", ColorYellow, e.Code, ColorReset, e.Field, e.Message)
			}
		}
		return 1
	}

	desc, err := dna.Parse(raw)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	p, err := pack.Assemble(desc)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if *jsonOut {
		out, _ := json.MarshalIndent(map[string]string{
			"designHash":   p.DesignHash,
			"geometryHash": p.GeometryHash,
		}, "", "  ")
		fmt.Fprintln(stdout, string(out))
		return 0
	}

	fmt.Fprintf(stdout, "%s✓ valid%s\n", ColorGreen, ColorReset)
	fmt.Fprintf(stdout, "  design hash:   %s\n", p.DesignHash)
	fmt.Fprintf(stdout, "  geometry hash: %s\n", p.GeometryHash)
	return 0
}
