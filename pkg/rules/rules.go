// Package rules implements the optional per-property custom business-rule
// hook (config key `validation.custom_rules`): CEL expressions evaluated
// against a message's fields alongside the built-in validators of
// spec.md §4.2/§4.8, and the batch-scoped "linked-rate master must exist"
// check deferred here by pkg/domain/rate.go's RatePlan.Validate.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// Rule is one compiled custom business rule: a CEL boolean expression that
// must hold for the message to pass. FailMessage is used verbatim in the
// resulting FieldViolation when the expression evaluates false.
type Rule struct {
	Name        string
	Expression  string
	FailMessage string

	program cel.Program
}

// Engine evaluates a set of compiled Rules against an `input` map built
// from a message's fields. One Engine is built per property, since rules
// are configured per property (spec.md §4.1's per-property overrides).
type Engine struct {
	env   *cel.Env
	rules []Rule
}

// NewEngine builds a CEL environment exposing a single `input` variable
// (a dynamically-typed map, mirroring the teacher's CEL decision-point
// environment) and compiles each raw expression into a Rule.
func NewEngine(specs []RuleSpec) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: building CEL environment: %w", err)
	}

	compiled := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		ast, issues := env.Compile(spec.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rules: compiling rule %q: %w", spec.Name, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rules: programming rule %q: %w", spec.Name, err)
		}
		compiled = append(compiled, Rule{
			Name:        spec.Name,
			Expression:  spec.Expression,
			FailMessage: spec.FailMessage,
			program:     prg,
		})
	}

	return &Engine{env: env, rules: compiled}, nil
}

// RuleSpec is the config-layer (JSON/YAML) shape for a custom rule, as
// stored in a PropertyConfig's `validation.custom_rules` override.
type RuleSpec struct {
	Name        string `json:"name" yaml:"name"`
	Expression  string `json:"expression" yaml:"expression"`
	FailMessage string `json:"fail_message" yaml:"fail_message"`
}

// Evaluate runs every compiled rule against input, returning one
// FieldViolation per rule whose expression evaluates false. A rule whose
// expression errors at runtime (e.g. a missing map key) is treated as a
// failure rather than silently skipped, since a misconfigured rule should
// not quietly waive validation.
func (e *Engine) Evaluate(input map[string]any) []domain.FieldViolation {
	var violations []domain.FieldViolation
	for _, r := range e.rules {
		out, _, err := r.program.Eval(map[string]any{"input": input})
		if err != nil {
			violations = append(violations, domain.FieldViolation{
				Field: r.Name, Rule: "custom_rule_error", Value: err.Error(),
			})
			continue
		}
		pass, ok := out.Value().(bool)
		if !ok || !pass {
			violations = append(violations, domain.FieldViolation{
				Field: r.Name, Rule: "custom_rule", Value: r.FailMessage,
			})
		}
	}
	return violations
}

// Count reports how many rules are loaded.
func (e *Engine) Count() int { return len(e.rules) }
