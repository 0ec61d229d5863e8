// Package rule scores table rows against multi-criteria range rules such as
// Lipinski's rule of five.
package rule

import (
	"fmt"

	"github.com/turtacn/compoundrank/pkg/errors"
)

// LipinskiName is the name of the built-in drug-likeness rule.
const LipinskiName = "lipinski_rule"

// Range is an inclusive numeric interval.
type Range struct {
	Low  float64
	High float64
}

// Contains reports whether low ≤ v ≤ high.
func (r Range) Contains(v float64) bool {
	return r.Low <= v && v <= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Low, r.High)
}

// Criterion binds a table column to the range its values must fall in.
type Criterion struct {
	Column string
	Range  Range
}

// Rule is a named set of criteria and the minimum number of them a row must
// satisfy to be approved.
type Rule struct {
	Name      string
	Threshold int
	Criteria  []Criterion
}

// ScoreColumn is the column holding the per-row satisfied-criteria count.
func (r Rule) ScoreColumn() string { return r.Name + "_score" }

// ApprovedColumn is the column holding score ≥ threshold.
func (r Rule) ApprovedColumn() string { return r.Name + "_approved" }

// Validate checks that the rule is well formed.  A rule without criteria
// scores every row 0, and a threshold above the criteria count is legal: such
// a rule never approves anything.
func (r Rule) Validate() error {
	if r.Name == "" {
		return errors.New(errors.ErrCodeRuleInvalid, "rule name is required")
	}
	if r.Threshold < 0 {
		return errors.Newf(errors.ErrCodeRuleInvalid, "threshold %d is negative", r.Threshold).WithDetail(r.Name)
	}
	seen := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		if c.Column == "" {
			return errors.New(errors.ErrCodeRuleInvalid, "criterion column is required").WithDetail(r.Name)
		}
		if seen[c.Column] {
			return errors.New(errors.ErrCodeRuleInvalid, "criterion column repeated").WithDetail(r.Name + "." + c.Column)
		}
		seen[c.Column] = true
		if c.Range.Low > c.Range.High {
			return errors.Newf(errors.ErrCodeRuleInvalid, "range %s is inverted", c.Range).WithDetail(r.Name + "." + c.Column)
		}
	}
	return nil
}

// Lipinski returns the built-in rule: at least three of molecular weight,
// partition coefficient, H-bond acceptors and H-bond donors within range.
func Lipinski() Rule {
	return Rule{
		Name:      LipinskiName,
		Threshold: 3,
		Criteria: []Criterion{
			{Column: "molecular_weight", Range: Range{Low: 0, High: 500}},
			{Column: "xlogp", Range: Range{Low: 0, High: 5}},
			{Column: "h_bond_acceptor_count", Range: Range{Low: 0, High: 10}},
			{Column: "h_bond_donor_count", Range: Range{Low: 0, High: 5}},
		},
	}
}

// Reachable reports whether any row can reach the threshold.
func (r Rule) Reachable() bool {
	return r.Threshold <= len(r.Criteria)
}
