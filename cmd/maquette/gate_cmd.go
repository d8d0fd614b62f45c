package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Plinth-Labs/maquette/pkg/artifacts"
	"github.com/Plinth-Labs/maquette/pkg/config"
	"github.com/Plinth-Labs/maquette/pkg/drift"
	"github.com/Plinth-Labs/maquette/pkg/gate"
	"github.com/Plinth-Labs/maquette/pkg/observability"
	"github.com/Plinth-Labs/maquette/pkg/pack"
	"github.com/Plinth-Labs/maquette/pkg/store/ledger"
)

// gateManifest is the on-disk input for one gate run. Panel rasters
// come either inline as paths, resolved relative to the manifest file,
// or as artifact references resolved through the configured store.
type gateManifest struct {
	SheetID   string              `json:"sheetId"`
	ProjectID string              `json:"projectId,omitempty"`
	Pack      *pack.Pack          `json:"pack,omitempty"`
	PackPath  string              `json:"packPath,omitempty"`
	Panels    []gateManifestPanel `json:"panels"`
}

type gateManifestPanel struct {
	PanelType                string `json:"panelType"`
	ArtifactPath             string `json:"artifactPath,omitempty"`
	ArtifactRef              string `json:"artifactRef,omitempty"`
	ConditioningGeometryHash string `json:"conditioningGeometryHash"`
	ConditioningDesignHash   string `json:"conditioningDesignHash"`
	BaselinePath             string `json:"baselinePath,omitempty"`
	BaselineRef              string `json:"baselineRef,omitempty"`
}

// runGateCmd evaluates a rendered sheet against its authoritative
// pack. Exit 0 on ACCEPTED, 1 on RETRY_PANELS or REJECTED_FATAL, 2 on
// runtime errors.
func runGateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("gate", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	inputPath := cmd.String("input", "", "path to the gate manifest JSON (required)")
	profilePath := cmd.String("profile", "", "tolerance profile YAML (default $TOLERANCE_PROFILE)")
	policyPath := cmd.String("policy", "", "CEL policy expression file")
	ledgerDSN := cmd.String("ledger", "", "ledger DSN (default $LEDGER_DSN, \"off\" disables)")
	strict := cmd.Bool("strict", false, "raise typed errors on non-accepted decisions")
	threshold := cmd.Float64("threshold", -1, "drift score threshold (default from profile)")
	jsonOut := cmd.Bool("json", false, "emit the full decision as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *inputPath == "" {
		fmt.Fprintf(stderr, "error: --input is required\n")
		cmd.Usage()
		return 2
	}

	ctx := context.Background()
	cfg := config.Load()
	if *profilePath != "" {
		cfg.ProfilePath = *profilePath
	}
	profile, err := config.LoadToleranceProfile(cfg.ProfilePath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	manifest, input, err := loadGateManifest(*inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	evalOpts := gate.Options{
		Strict:         *strict || cfg.StrictGate || profile.Strict,
		DriftThreshold: profile.DriftThreshold,
	}
	if *threshold >= 0 {
		evalOpts.DriftThreshold = *threshold
	}

	comparatorOpts := profile.ComparatorOptions()
	if manifestNeedsFetch(manifest) {
		store, err := artifacts.NewStoreFromEnv(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		fetcher := artifacts.NewFetcher(store)
		comparatorOpts = append(comparatorOpts, drift.WithFetcher(fetcher.Fetch, 0))
	}

	evaluatorOpts := []gate.EvaluatorOption{
		gate.WithComparator(drift.NewComparator(comparatorOpts...)),
		gate.WithOptions(evalOpts),
	}

	if *policyPath != "" {
		expr, err := os.ReadFile(*policyPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		policy, err := gate.NewPolicy(string(expr))
		if err != nil {
			fmt.Fprintf(stderr, "error: compile policy: %v\n", err)
			return 2
		}
		evaluatorOpts = append(evaluatorOpts, gate.WithPolicy(policy))
	}

	dsn := cfg.LedgerPath()
	if *ledgerDSN != "" {
		dsn = *ledgerDSN
	}
	if dsn != "off" {
		led, err := ledger.Open(ctx, dsn)
		if err != nil {
			fmt.Fprintf(stderr, "error: open ledger: %v\n", err)
			return 2
		}
		defer led.Close()
		evaluatorOpts = append(evaluatorOpts, gate.WithLedger(led))
	}

	if issuer, err := clearanceIssuerFromEnv(manifest.ProjectID); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	} else if issuer != nil {
		evaluatorOpts = append(evaluatorOpts, gate.WithClearanceIssuer(issuer))
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.ServiceName
	obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	obsCfg.Enabled = cfg.OTLPEndpoint != ""
	prov, err := observability.New(ctx, obsCfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = prov.Shutdown(shutCtx)
	}()

	evaluator := gate.NewEvaluator(evaluatorOpts...)

	opCtx, done := prov.TrackOperation(ctx, "gate.evaluate",
		observability.GateOperation(input.SheetID, "", len(input.Panels))...)
	decision, evalErr := evaluator.Evaluate(opCtx, input)
	done(evalErr)

	if decision == nil {
		fmt.Fprintf(stderr, "error: %v\n", evalErr)
		return 2
	}
	if evalErr != nil {
		var gerr *gate.GateError
		if !errors.As(evalErr, &gerr) {
			fmt.Fprintf(stderr, "error: %v\n", evalErr)
			return 2
		}
	}
	prov.RecordDecision(ctx, string(decision.State), decision.Report.DriftScore)

	if *jsonOut {
		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		fmt.Fprintln(stdout, string(out))
	} else {
		printDecision(stdout, decision)
	}

	if decision.State == gate.StateAccepted {
		return 0
	}
	return 1
}

// loadGateManifest reads the manifest and converts it into the
// evaluator's input, loading referenced files relative to the manifest
// directory.
func loadGateManifest(path string) (*gateManifest, gate.EvaluationInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, gate.EvaluationInput{}, err
	}
	var m gateManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, gate.EvaluationInput{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	authoritative := m.Pack
	if m.PackPath != "" {
		if authoritative != nil {
			return nil, gate.EvaluationInput{}, fmt.Errorf("manifest sets both pack and packPath")
		}
		packRaw, err := os.ReadFile(resolve(m.PackPath))
		if err != nil {
			return nil, gate.EvaluationInput{}, err
		}
		authoritative = &pack.Pack{}
		if err := json.Unmarshal(packRaw, authoritative); err != nil {
			return nil, gate.EvaluationInput{}, fmt.Errorf("parse pack %s: %w", m.PackPath, err)
		}
	}
	if authoritative == nil {
		return nil, gate.EvaluationInput{}, fmt.Errorf("manifest needs pack or packPath")
	}

	panels := make([]gate.PanelResult, 0, len(m.Panels))
	for _, p := range m.Panels {
		pr := gate.PanelResult{
			PanelType:                p.PanelType,
			ArtifactRef:              p.ArtifactRef,
			ConditioningGeometryHash: p.ConditioningGeometryHash,
			ConditioningDesignHash:   p.ConditioningDesignHash,
			BaselineRef:              p.BaselineRef,
		}
		if p.ArtifactPath != "" {
			data, err := os.ReadFile(resolve(p.ArtifactPath))
			if err != nil {
				return nil, gate.EvaluationInput{}, fmt.Errorf("panel %s: %w", p.PanelType, err)
			}
			pr.Artifact = data
		}
		if p.BaselinePath != "" {
			data, err := os.ReadFile(resolve(p.BaselinePath))
			if err != nil {
				return nil, gate.EvaluationInput{}, fmt.Errorf("panel %s: %w", p.PanelType, err)
			}
			pr.Baseline = data
		}
		panels = append(panels, pr)
	}

	return &m, gate.EvaluationInput{
		SheetID: m.SheetID,
		Pack:    authoritative,
		Panels:  panels,
	}, nil
}

// manifestNeedsFetch reports whether any panel side must be resolved
// through the artifact store.
func manifestNeedsFetch(m *gateManifest) bool {
	for _, p := range m.Panels {
		if p.ArtifactRef != "" && p.ArtifactPath == "" {
			return true
		}
		if p.BaselineRef != "" && p.BaselinePath == "" {
			return true
		}
	}
	return false
}

// clearanceIssuerFromEnv builds a clearance issuer when a master key is
// configured. Without MAQUETTE_CLEARANCE_KEY accepted decisions simply
// carry no token.
func clearanceIssuerFromEnv(projectID string) (*gate.ClearanceIssuer, error) {
	master := os.Getenv("MAQUETTE_CLEARANCE_KEY")
	if master == "" {
		return nil, nil
	}
	if projectID == "" {
		projectID = "default"
	}
	deriver, err := gate.NewKeyDeriver([]byte(master))
	if err != nil {
		return nil, fmt.Errorf("clearance key: %w", err)
	}
	return gate.NewClearanceIssuer(deriver, projectID)
}

func printDecision(w io.Writer, d *gate.Decision) {
	switch d.State {
	case gate.StateAccepted:
		fmt.Fprintf(w, "%s✅ ACCEPTED%s\n", ColorGreen, ColorReset)
	case gate.StateRetryPanels:
		fmt.Fprintf(w, "%s🔁 RETRY_PANELS%s\n", ColorYellow, ColorReset)
	case gate.StateRejectedFatal:
		fmt.Fprintf(w, "%s❌ REJECTED_FATAL%s\n", ColorRed, ColorReset)
	default:
		fmt.Fprintf(w, "%s%s%s\n", ColorGray, d.State, ColorReset)
	}
	if d.Reason != "" {
		fmt.Fprintf(w, "  reason: %s\n", d.Reason)
	}
	if len(d.RetryPanels) > 0 {
		fmt.Fprintf(w, "  retry:  %s\n", strings.Join(d.RetryPanels, ", "))
	}
	if d.Report != nil {
		fmt.Fprintf(w, "%s\n", d.Report.Summary())
	}
	if d.Clearance != "" {
		fmt.Fprintf(w, "  clearance: %s\n", d.Clearance)
	}
}
