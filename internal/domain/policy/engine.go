// Package policy evaluates margin alert rules written as CEL expressions.
// Rules decide whether a saved calculation should raise an alert; operators
// override the default rule through configuration without a redeploy.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultAlertRule flags calculations whose overall margin falls under the
// configured minimum.
const DefaultAlertRule = "overall_margin < min_margin"

// Metrics is the evaluation input: the derived figures of one calculation.
type Metrics struct {
	ItemsTotal    float64
	OverallTotal  float64
	OverallMargin float64
	GroupsMargin  float64
	GlobalMargin  float64
	UserMargin    float64
	ItemCount     int
}

// Engine holds one compiled alert rule.
type Engine struct {
	expr string
	prg  cel.Program
}

// NewEngine compiles the given rule. The expression sees the metric fields
// as snake_case variables plus min_margin for the configured threshold, and
// must evaluate to a boolean.
func NewEngine(expr string) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("items_total", cel.DoubleType),
		cel.Variable("overall_total", cel.DoubleType),
		cel.Variable("overall_margin", cel.DoubleType),
		cel.Variable("groups_margin", cel.DoubleType),
		cel.Variable("global_margin", cel.DoubleType),
		cel.Variable("user_margin", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("min_margin", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create policy environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile policy rule %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("policy rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	return &Engine{expr: expr, prg: prg}, nil
}

// Expression returns the source rule.
func (e *Engine) Expression() string {
	return e.expr
}

// Evaluate runs the rule against the metrics and the minimum margin
// threshold. Returns true when the rule matches, meaning an alert fires.
func (e *Engine) Evaluate(m Metrics, minMargin float64) (bool, error) {
	out, _, err := e.prg.Eval(map[string]any{
		"items_total":    m.ItemsTotal,
		"overall_total":  m.OverallTotal,
		"overall_margin": m.OverallMargin,
		"groups_margin":  m.GroupsMargin,
		"global_margin":  m.GlobalMargin,
		"user_margin":    m.UserMargin,
		"item_count":     m.ItemCount,
		"min_margin":     minMargin,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate policy rule %q: %w", e.expr, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy rule %q returned %T, want bool", e.expr, out.Value())
	}
	return matched, nil
}
