package policy

import (
	"fmt"

	"github.com/casbin/casbin/v2"
)

// CasbinEvaluator backs the Evaluator interface with a Casbin enforcer
// loaded from a model file and a CSV rule table. The synced enforcer
// keeps Enforce safe against a concurrent Reload.
type CasbinEvaluator struct {
	enforcer *casbin.SyncedEnforcer
}

// NewCasbinEvaluator loads the model and policy files.
func NewCasbinEvaluator(modelPath, policyPath string) (*CasbinEvaluator, error) {
	e, err := casbin.NewSyncedEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("load casbin model %s with policy %s: %w", modelPath, policyPath, err)
	}
	return &CasbinEvaluator{enforcer: e}, nil
}

// Evaluate implements Evaluator.
func (c *CasbinEvaluator) Evaluate(subject, object, action string) (bool, error) {
	allowed, err := c.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("casbin enforce: %w", err)
	}
	return allowed, nil
}

// Reload re-reads the policy rule table from disk. Requests already in
// flight keep the verdicts they were given.
func (c *CasbinEvaluator) Reload() error {
	if err := c.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("reload casbin policy: %w", err)
	}
	return nil
}
