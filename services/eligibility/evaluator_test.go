package eligibility

import (
	"testing"

	"gameops-controlplane/services/userstate"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func levelRule(min float64) Rule {
	return Rule{Type: RuleTypeLevel, Params: map[string]any{"minLevel": min}}
}

func streakRule(days float64) Rule {
	return Rule{Type: RuleTypeLoginStreak, Params: map[string]any{"days": days}}
}

func snapshot(level, streak float64) userstate.State {
	return userstate.State{
		userstate.KeyLevel:       level,
		userstate.KeyLoginStreak: streak,
	}
}

func TestEvaluateAnd(t *testing.T) {
	e := NewEvaluator()
	state := snapshot(15, 10)

	cases := []struct {
		name  string
		rules []Rule
		want  bool
	}{
		{"all pass", []Rule{levelRule(10), streakRule(7)}, true},
		{"one fails", []Rule{levelRule(10), streakRule(14)}, false},
		{"all fail", []Rule{levelRule(99), streakRule(99)}, false},
		{"boundary is inclusive", []Rule{levelRule(15), streakRule(10)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Evaluate(ConditionConfig{Operator: OperatorAnd, Rules: tc.rules}, state)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateOr(t *testing.T) {
	e := NewEvaluator()
	state := snapshot(15, 3)

	cases := []struct {
		name  string
		rules []Rule
		want  bool
	}{
		{"one passes", []Rule{levelRule(99), streakRule(3)}, true},
		{"all fail", []Rule{levelRule(99), streakRule(99)}, false},
		{"all pass", []Rule{levelRule(1), streakRule(1)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Evaluate(ConditionConfig{Operator: OperatorOr, Rules: tc.rules}, state)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateEmptyRules(t *testing.T) {
	e := NewEvaluator()
	state := snapshot(15, 10)

	require.True(t, e.Evaluate(ConditionConfig{Operator: OperatorAnd}, state))
	require.False(t, e.Evaluate(ConditionConfig{Operator: OperatorOr}, state))
}

func TestEvaluateFailsClosed(t *testing.T) {
	e := NewEvaluator()
	state := snapshot(15, 10)

	t.Run("unknown operator", func(t *testing.T) {
		config := ConditionConfig{Operator: "XOR", Rules: []Rule{levelRule(1)}}
		require.False(t, e.Evaluate(config, state))
	})

	t.Run("unknown rule type", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
			{Type: "guild_rank", Params: map[string]any{"min": 1}},
		}}
		require.False(t, e.Evaluate(config, state))
	})

	t.Run("missing state key", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{levelRule(1)}}
		require.False(t, e.Evaluate(config, userstate.State{}))
	})

	t.Run("missing rule param", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
			{Type: RuleTypeLevel, Params: map[string]any{}},
		}}
		require.False(t, e.Evaluate(config, state))
	})
}

func TestEvaluateMixedNumericTypes(t *testing.T) {
	e := NewEvaluator()

	// Params and state arrive as float64 after a JSON round trip but as
	// plain ints from the static provider; both must compare the same way.
	state := userstate.State{
		userstate.KeyLevel:       15,
		userstate.KeyLoginStreak: float64(10),
	}
	config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
		{Type: RuleTypeLevel, Params: map[string]any{"minLevel": 10}},
		{Type: RuleTypeLoginStreak, Params: map[string]any{"days": float64(7)}},
	}}

	require.True(t, e.Evaluate(config, state))
}

func TestEvaluateExpressionRule(t *testing.T) {
	e := NewEvaluator()
	state := snapshot(15, 10)

	exprRule := func(expr string) Rule {
		return Rule{Type: RuleTypeExpression, Params: map[string]any{"expr": expr}}
	}

	t.Run("true expression", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
			exprRule("level >= 10.0 && loginStreak >= 7.0"),
		}}
		require.True(t, e.Evaluate(config, state))
	})

	t.Run("false expression", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
			exprRule("level > 100.0"),
		}}
		require.False(t, e.Evaluate(config, state))
	})

	t.Run("invalid expression fails closed", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
			exprRule("level >="),
		}}
		require.False(t, e.Evaluate(config, state))
	})

	t.Run("missing expr param fails closed", func(t *testing.T) {
		config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{
			{Type: RuleTypeExpression, Params: map[string]any{}},
		}}
		require.False(t, e.Evaluate(config, state))
	})
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewEvaluator()
	state := snapshot(15, 10)
	config := ConditionConfig{Operator: OperatorOr, Rules: []Rule{
		levelRule(99), streakRule(10), levelRule(1),
	}}

	first := e.Evaluate(config, state)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, e.Evaluate(config, state))
	}
}

func TestRegisterCustomRule(t *testing.T) {
	e := NewEvaluator()
	e.Register("always", func(params map[string]any, state userstate.State) bool {
		return true
	})

	config := ConditionConfig{Operator: OperatorAnd, Rules: []Rule{{Type: "always"}}}
	require.True(t, e.Evaluate(config, userstate.State{}))
}
