package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Route actions the policy knows about.
const (
	ActionPaymentCreate = "payments:create"
	ActionPaymentList   = "payments:list"
	ActionPaymentStatus = "payments:status"
	ActionPing          = "auth:ping"
)

// Rego policy for route authorization: customers submit payments, employees
// review them, and any authenticated principal may ping.
const routePolicy = `package portal.routes

default allow = false

allow if {
	input.role == "customer"
	input.action == "payments:create"
}

allow if {
	input.role == "employee"
	input.action == "payments:list"
}

allow if {
	input.role == "employee"
	input.action == "payments:status"
}

allow if {
	input.action == "auth:ping"
	input.role != ""
}
`

// OPAEvaluator evaluates route authorization using the in-process OPA Rego
// engine. The policy is compiled once at construction.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the route policy and returns the evaluator.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	modules := map[string]string{"routes.rego": routePolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile route policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// Allow reports whether role may perform action. Any evaluation problem
// denies.
func (e *OPAEvaluator) Allow(ctx context.Context, role, action string) (bool, error) {
	input := map[string]interface{}{
		"role":   role,
		"action": action,
	}
	q := rego.New(
		rego.Query("data.portal.routes.allow"),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval route policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("route policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("route policy returned non-boolean %T", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck verifies the compiled policy evaluates. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	allowed, err := e.Allow(ctx, "customer", ActionPaymentCreate)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("route policy sanity query denied")
	}
	return nil
}
