package policy

import "sync"

// StaticEvaluator is an in-memory rule table. It mirrors the exact-match
// semantics of the default Casbin ACL model and supports rule changes at
// runtime, so tests can flip a verdict between two checks.
type StaticEvaluator struct {
	mu    sync.RWMutex
	rules map[Query]bool
}

// NewStaticEvaluator creates an empty evaluator. Everything is denied
// until allowed.
func NewStaticEvaluator() *StaticEvaluator {
	return &StaticEvaluator{rules: make(map[Query]bool)}
}

// Allow adds a rule permitting (subject, object, action).
func (s *StaticEvaluator) Allow(subject, object, action string) *StaticEvaluator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[Query{Subject: subject, Object: object, Action: action}] = true
	return s
}

// Revoke removes a previously allowed rule.
func (s *StaticEvaluator) Revoke(subject, object, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, Query{Subject: subject, Object: object, Action: action})
}

// Evaluate implements Evaluator.
func (s *StaticEvaluator) Evaluate(subject, object, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules[Query{Subject: subject, Object: object, Action: action}], nil
}
