package audit

// Score reduces a Result to a comparative signal in [0, 100]:
// 100 minus the violation count, floored at 0. Every violation weighs
// the same regardless of impact or WCAG level; the number is a coarse
// before/after comparator, not a calibrated percentage. Severely broken
// markup can exceed 100 violations, hence the floor.
func Score(r *Result) int {
	if r == nil {
		return 100
	}
	if n := len(r.Violations); n < 100 {
		return 100 - n
	}
	return 0
}
