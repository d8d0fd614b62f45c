package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/Plinth-Labs/maquette/pkg/artifacts"
	"github.com/Plinth-Labs/maquette/pkg/config"
	"github.com/Plinth-Labs/maquette/pkg/store/ledger"
)

// checkResult is one diagnostic finding. Status is "ok", "warn" or
// "fail"; only failures flip the exit code.
type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// runDoctorCmd checks the local environment: configuration, artifact
// storage, ledger, tolerance profile and optional services. Exit 0
// when nothing failed, 1 otherwise.
func runDoctorCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("doctor", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOut := cmd.Bool("json", false, "emit findings as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Load()
	checks := []checkResult{
		{Name: "go runtime", Status: "ok", Detail: runtime.Version()},
		{Name: "service", Status: "ok", Detail: fmt.Sprintf("%s (log level %s)", cfg.ServiceName, cfg.LogLevel)},
		checkDataDir(cfg.DataDir),
		checkArtifactStore(ctx, cfg.ArtifactBackend),
		checkProfile(cfg.ProfilePath),
		checkLedger(ctx, cfg.LedgerPath()),
		checkRedis(cfg.RedisAddr),
		checkClearanceKey(),
		checkOTLP(cfg.OTLPEndpoint),
	}

	if *jsonOut {
		out, _ := json.MarshalIndent(checks, "", "  ")
		fmt.Fprintln(stdout, string(out))
	} else {
		fmt.Fprintf(stdout, "%s%sRunning diagnostics...%s\n\n", ColorBold, ColorCyan, ColorReset)
		for _, c := range checks {
			icon := "✅"
			switch c.Status {
			case "warn":
				icon = "⚠️ "
			case "fail":
				icon = "❌"
			}
			fmt.Fprintf(stdout, "%s %-18s %s\n", icon, c.Name, c.Detail)
		}
	}

	failed := 0
	for _, c := range checks {
		if c.Status == "fail" {
			failed++
		}
	}
	if failed > 0 {
		if !*jsonOut {
			fmt.Fprintf(stdout, "\n%s%d check(s) failed%s\n", ColorRed, failed, ColorReset)
		}
		return 1
	}
	if !*jsonOut {
		fmt.Fprintf(stdout, "\n%sAll checks passed%s\n", ColorGreen, ColorReset)
	}
	return 0
}

func checkDataDir(dir string) checkResult {
	c := checkResult{Name: "data dir"}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		c.Status = "warn"
		c.Detail = fmt.Sprintf("%s does not exist yet, created on first use", dir)
	case err != nil:
		c.Status = "fail"
		c.Detail = err.Error()
	case !info.IsDir():
		c.Status = "fail"
		c.Detail = fmt.Sprintf("%s is not a directory", dir)
	default:
		c.Status = "ok"
		c.Detail = dir
	}
	return c
}

func checkArtifactStore(ctx context.Context, backend string) checkResult {
	c := checkResult{Name: "artifact store"}
	if _, err := artifacts.NewStoreFromEnv(ctx); err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	c.Status = "ok"
	c.Detail = fmt.Sprintf("backend %q", backend)
	return c
}

func checkProfile(path string) checkResult {
	c := checkResult{Name: "tolerance profile"}
	if path == "" {
		c.Status = "ok"
		c.Detail = "built-in defaults"
		return c
	}
	profile, err := config.LoadToleranceProfile(path)
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	c.Status = "ok"
	c.Detail = fmt.Sprintf("%s (%s)", profile.Name, path)
	return c
}

func checkLedger(ctx context.Context, dsn string) checkResult {
	c := checkResult{Name: "ledger"}
	led, err := ledger.Open(ctx, dsn)
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	led.Close()
	c.Status = "ok"
	c.Detail = dsn
	return c
}

func checkRedis(addr string) checkResult {
	c := checkResult{Name: "redis"}
	if addr == "" {
		c.Status = "warn"
		c.Detail = "not configured, pack cache is in-process only"
		return c
	}
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		c.Status = "fail"
		c.Detail = fmt.Sprintf("%s unreachable: %v", addr, err)
		return c
	}
	conn.Close()
	c.Status = "ok"
	c.Detail = addr
	return c
}

func checkClearanceKey() checkResult {
	c := checkResult{Name: "clearance key"}
	key := os.Getenv("MAQUETTE_CLEARANCE_KEY")
	switch {
	case key == "":
		c.Status = "warn"
		c.Detail = "MAQUETTE_CLEARANCE_KEY unset, accepted sheets carry no clearance token"
	case len(key) < 32:
		c.Status = "fail"
		c.Detail = fmt.Sprintf("MAQUETTE_CLEARANCE_KEY too short: need 32 bytes, got %d", len(key))
	default:
		c.Status = "ok"
		c.Detail = fmt.Sprintf("%d bytes", len(key))
	}
	return c
}

func checkOTLP(endpoint string) checkResult {
	c := checkResult{Name: "telemetry"}
	if endpoint == "" {
		c.Status = "warn"
		c.Detail = "OTEL_EXPORTER_OTLP_ENDPOINT unset, telemetry disabled"
		return c
	}
	c.Status = "ok"
	c.Detail = endpoint
	return c
}
