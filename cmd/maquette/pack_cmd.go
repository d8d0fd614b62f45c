package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Plinth-Labs/maquette/pkg/canonical"
	"github.com/Plinth-Labs/maquette/pkg/pack"
)

// runPackCmd assembles the canonical geometry pack for a building
// description and emits it as canonical JSON. The same description
// always produces byte-identical output.
func runPackCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("pack", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	descPath := cmd.String("description", "", "path to the building description JSON (required)")
	outPath := cmd.String("out", "", "write the pack to this file instead of stdout")
	pretty := cmd.Bool("pretty", false, "indent the JSON output")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *descPath == "" {
		fmt.Fprintf(stderr, "error: --description is required\n")
		cmd.Usage()
		return 2
	}

	desc, err := loadDescription(*descPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	p, err := pack.Assemble(desc)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	out, err := canonical.MarshalCanonical(p)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if *pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		fmt.Fprintf(stdout, "%s✓ pack written%s %s\n", ColorGreen, ColorReset, *outPath)
		fmt.Fprintf(stdout, "  design hash:   %s\n", p.DesignHash)
		fmt.Fprintf(stdout, "  geometry hash: %s\n", p.GeometryHash)
		fmt.Fprintf(stdout, "  panels:        %d\n", len(p.Panels))
		return 0
	}

	fmt.Fprintln(stdout, string(out))
	return 0
}
