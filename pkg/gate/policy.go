package gate

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Policy is an optional site-specific veto evaluated over the finished
// report. The expression sees the report under the variable `report`
// (its JSON shape) and must yield a bool; false vetoes acceptance.
// Policies only tighten the gate, they never rescue a failing sheet.
type Policy struct {
	expr string
	prg  cel.Program
}

// NewPolicy compiles a CEL accept expression. Compilation happens once
// here; evaluation is cost-limited so a pathological expression cannot
// stall the gate.
func NewPolicy(expr string) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("report", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("create policy environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile policy: %w", issues.Err())
	}
	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	return &Policy{expr: expr, prg: prg}, nil
}

// Expr returns the source expression, for messages and logs.
func (p *Policy) Expr() string {
	return p.expr
}

// Allow evaluates the policy against a report. Errors are the caller's
// signal to fail closed.
func (p *Policy) Allow(r *Report) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"report": reportInput(r),
	})
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy result is %T, want bool", out.Value())
	}
	return val, nil
}

// reportInput exposes the report to CEL under its JSON field names, so
// policy expressions read like `report.driftScore < 0.05`.
func reportInput(r *Report) map[string]any {
	raw, err := json.Marshal(r)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}
