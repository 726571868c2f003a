package audit

import (
	"encoding/json"
	"fmt"
)

// RuleCheck is one rule-check record from the audit engine. Only the
// fields the pipeline reads are decoded; the rest of the record is
// owned by the engine and carried opaquely in Nodes.
type RuleCheck struct {
	ID          string          `json:"id"`
	Impact      string          `json:"impact,omitempty"`
	Description string          `json:"description,omitempty"`
	Nodes       json.RawMessage `json:"nodes,omitempty"`
}

// Result is the engine's full output, partitioned into four sets.
type Result struct {
	Violations   []RuleCheck `json:"violations"`
	Passes       []RuleCheck `json:"passes"`
	Incomplete   []RuleCheck `json:"incomplete"`
	Inapplicable []RuleCheck `json:"inapplicable"`
}

// Validate checks the partition contract: the four sets cover the
// engine output with no rule record appearing in more than one set.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("audit: nil result")
	}
	seen := make(map[string]string)
	sets := []struct {
		name   string
		checks []RuleCheck
	}{
		{"violations", r.Violations},
		{"passes", r.Passes},
		{"incomplete", r.Incomplete},
		{"inapplicable", r.Inapplicable},
	}
	for _, set := range sets {
		for _, c := range set.checks {
			if c.ID == "" {
				return fmt.Errorf("audit: %s contains a record without a rule id", set.name)
			}
			if prev, ok := seen[c.ID]; ok {
				return fmt.Errorf("audit: rule %s appears in both %s and %s", c.ID, prev, set.name)
			}
			seen[c.ID] = set.name
		}
	}
	return nil
}
