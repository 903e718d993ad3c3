package eligibility

import (
	"gameops-controlplane/pkg/celengine"
	"gameops-controlplane/services/userstate"

	"go.uber.org/zap"
)

// RuleFunc decides a single rule against a player snapshot. Implementations
// must be pure: no I/O, no mutation of params or state, identical results
// for identical inputs.
type RuleFunc func(params map[string]any, state userstate.State) bool

// Evaluator evaluates condition trees using a registry of named rule
// implementations. Unknown rule types and unknown operators fail closed:
// they never grant eligibility.
type Evaluator struct {
	rules map[string]RuleFunc
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{rules: make(map[string]RuleFunc)}
	e.Register(RuleTypeLevel, checkLevel)
	e.Register(RuleTypeLoginStreak, checkLoginStreak)
	e.Register(RuleTypeExpression, checkExpression)
	return e
}

// Register adds a rule implementation. Registering during construction only;
// the registry is read concurrently afterwards.
func (e *Evaluator) Register(ruleType string, fn RuleFunc) {
	e.rules[ruleType] = fn
}

// Evaluate reports whether the player snapshot satisfies the condition
// tree. AND over an empty rule list is vacuously true; OR over an empty
// list is false. Both are deliberate, pinned by tests.
func (e *Evaluator) Evaluate(config ConditionConfig, state userstate.State) bool {
	switch config.Operator {
	case OperatorAnd:
		for _, rule := range config.Rules {
			if !e.checkRule(rule, state) {
				return false
			}
		}
		return true
	case OperatorOr:
		for _, rule := range config.Rules {
			if e.checkRule(rule, state) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (e *Evaluator) checkRule(rule Rule, state userstate.State) bool {
	fn, ok := e.rules[rule.Type]
	if !ok {
		return false
	}
	return fn(rule.Params, state)
}

func numberParam(params map[string]any, key string) (float64, bool) {
	return userstate.State(params).Number(key)
}

func checkLevel(params map[string]any, state userstate.State) bool {
	minLevel, ok := numberParam(params, "minLevel")
	if !ok {
		return false
	}
	level, ok := state.Level()
	return ok && level >= minLevel
}

func checkLoginStreak(params map[string]any, state userstate.State) bool {
	days, ok := numberParam(params, "days")
	if !ok {
		return false
	}
	streak, ok := state.LoginStreak()
	return ok && streak >= days
}

// checkExpression evaluates a CEL expression against the full snapshot.
// Compile or eval errors and non-boolean results fail closed.
func checkExpression(params map[string]any, state userstate.State) bool {
	expr, ok := params["expr"].(string)
	if !ok || expr == "" {
		return false
	}

	attrs := map[string]any(state)
	env, err := celengine.GetOrBuildEnv(attrs)
	if err != nil {
		zap.L().Debug("expression rule env build failed", zap.Error(err))
		return false
	}

	result, err := celengine.Evaluate(env, expr, attrs)
	if err != nil {
		zap.L().Debug("expression rule eval failed", zap.String("expr", expr), zap.Error(err))
		return false
	}
	return result
}
