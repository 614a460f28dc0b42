// Package authz decides which role may perform which portal action.
package authz

import "context"

// Evaluator answers role/action authorization queries.
type Evaluator interface {
	// Allow reports whether role may perform action.
	Allow(ctx context.Context, role, action string) (bool, error)
	// HealthCheck verifies the policy engine is usable.
	HealthCheck(ctx context.Context) error
}
