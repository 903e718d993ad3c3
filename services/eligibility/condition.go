package eligibility

// Operator combines the rules of a condition tree.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// Rule is a single named predicate with its parameters. Params shapes are
// owned by the rule implementations registered on the Evaluator.
type Rule struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// ConditionConfig is the declarative rule tree attached to a reward: a
// compound operator over a flat list of rules. The contract is two levels
// deep; rules never nest.
type ConditionConfig struct {
	Operator Operator `json:"operator"`
	Rules    []Rule   `json:"rules"`
}

// Known rule types.
const (
	RuleTypeLevel       = "level"
	RuleTypeLoginStreak = "login_streak"
	RuleTypeExpression  = "expression"
)
