package alert

import (
	"github.com/sipca/backend/internal/water"
)

// Policy holds the static alerting thresholds: a non-potable verdict always
// triggers, and pH outside the safe range triggers on its own, whatever the
// label says.
type Policy struct {
	PHSafeMin float64
	PHSafeMax float64
}

func DefaultPolicy() Policy {
	return Policy{PHSafeMin: 6.5, PHSafeMax: 8.5}
}

// Breach is the outcome of checking one verdict against the policy.
type Breach struct {
	Triggered bool
	Fields    []water.Field
}

// Evaluate checks a verdict. Fields lists the measurements that breached a
// threshold; a non-potable label triggers even with no individual breach.
func (p Policy) Evaluate(v water.Verdict) Breach {
	var b Breach

	if !v.Potable {
		b.Triggered = true
	}

	if ph, ok := v.Record.Value(water.FieldPH); ok {
		if ph < p.PHSafeMin || ph > p.PHSafeMax {
			b.Triggered = true
			b.Fields = append(b.Fields, water.FieldPH)
		}
	}

	return b
}
