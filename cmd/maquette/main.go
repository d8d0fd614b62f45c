// Command maquette is the geometry authority CLI. It fingerprints
// building descriptions, assembles canonical geometry packs, compares
// rendered sheets against their baselines, and runs the consistency
// gate over a finished sheet.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

const version = "1.0.0"

// ANSI color codes for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[37m"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches a CLI invocation and returns the process exit code.
// Commands return 0 on success, 1 when the evaluated content fails
// (drift found, gate not accepted), and 2 on usage or runtime errors.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 2
	}

	switch args[1] {
	case "fingerprint":
		return runFingerprintCmd(args[2:], stdout, stderr)
	case "diff":
		return runDiffCmd(args[2:], stdout, stderr)
	case "pack":
		return runPackCmd(args[2:], stdout, stderr)
	case "gate":
		return runGateCmd(args[2:], stdout, stderr)
	case "compare":
		return runCompareCmd(args[2:], stdout, stderr)
	case "doctor":
		return runDoctorCmd(args[2:], stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "maquette v%s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s%smaquette%s v%s - geometry authority and drift gate\n\n", ColorBold, ColorCyan, ColorReset, version)
	fmt.Fprintf(w, "%sUsage:%s\n", ColorBold, ColorReset)
	fmt.Fprintf(w, "  maquette <command> [flags]\n\n")

	printSection(w, "Analysis")
	printCommand(w, "fingerprint", "validate a building description and print its design hash")
	printCommand(w, "diff", "compare two building descriptions for structural drift")

	printSection(w, "Assembly")
	printCommand(w, "pack", "assemble the canonical geometry pack for a description")

	printSection(w, "Gating")
	printCommand(w, "gate", "evaluate a rendered sheet against its authoritative pack")
	printCommand(w, "compare", "compare two directories of panel rasters")

	printSection(w, "Utilities")
	printCommand(w, "doctor", "check the local environment and configuration")
	printCommand(w, "version", "print version information")
	printCommand(w, "help", "show this help")

	fmt.Fprintf(w, "\nRun %smaquette <command> -h%s for command flags.\n", ColorBold, ColorReset)
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s%s\n", ColorBold, title, ColorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-14s%s %s\n", ColorGreen, name, ColorReset, desc)
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
