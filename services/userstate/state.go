package userstate

import "encoding/json"

// State is the externally supplied snapshot of player attributes. Known
// optional keys are "level" and "loginStreak"; unknown keys are carried
// along untouched so new rule types can reference them.
type State map[string]any

const (
	KeyLevel       = "level"
	KeyLoginStreak = "loginStreak"
)

// Number reads a numeric attribute regardless of how the snapshot was
// decoded (float64 from JSON, int from a static provider, json.Number from
// a raw decoder). The second return is false when the key is absent or not
// numeric.
func (s State) Number(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (s State) Level() (float64, bool) {
	return s.Number(KeyLevel)
}

func (s State) LoginStreak() (float64, bool) {
	return s.Number(KeyLoginStreak)
}
