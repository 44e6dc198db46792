package service

import (
	"fmt"

	"letsgohome/internal/model"
)

// EvaluateThreshold reports whether a session's threshold rule is met.
// Pure and deterministic: store transactions may call it several times
// per operation while retrying on conflict.
//
// total is guaranteed >= 1 by the session invariant (the creator is
// always a participant), so the percentage rule needs no zero guard.
func EvaluateThreshold(rule model.ThresholdRule, total, clicked int) (bool, error) {
	switch rule.Type {
	case model.ThresholdPercentage:
		// clicked/total*100 >= value, compared without division
		return clicked*100 >= rule.Value*total, nil
	case model.ThresholdRemainder:
		// "all but N". Deliberately unclamped: value >= total makes the
		// rule trivially satisfiable.
		return clicked >= total-rule.Value, nil
	case model.ThresholdAbsolute:
		return clicked >= rule.Value, nil
	default:
		return false, fmt.Errorf("%w: unknown rule type %q", ErrConfiguration, rule.Type)
	}
}
