package services

import (
	"errors"
	"fmt"

	"vehicle-intel/pkg/models"
)

// ErrBlocked is returned when an article has at least one failed
// error-severity QC result.
var ErrBlocked = errors.New("article blocked by quality control")

// CheckResult is the outcome of one QC rule against one article.
type CheckResult struct {
	RuleID   string         `json:"ruleId"`
	Category string         `json:"category"`
	Passed   bool           `json:"passed"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

type Report struct {
	Publishable bool             `json:"publishable"`
	Results     []CheckResult    `json:"results"`
	Counts      map[Severity]int `json:"counts"` // failed results per severity
}

// Blocking returns the failed error-severity results.
func (r Report) Blocking() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if !res.Passed && res.Severity == SeverityError {
			out = append(out, res)
		}
	}
	return out
}

// Err returns nil for publishable reports and an error wrapping ErrBlocked
// otherwise.
func (r Report) Err() error {
	blocking := r.Blocking()
	if len(blocking) == 0 {
		return nil
	}
	ids := make([]string, len(blocking))
	for i, res := range blocking {
		ids[i] = res.RuleID
	}
	return fmt.Errorf("%w: %v", ErrBlocked, ids)
}

type outcome struct {
	passed  bool
	message string
	details map[string]any
}

func pass(msg string) outcome { return outcome{passed: true, message: msg} }

func fail(msg string, details map[string]any) outcome {
	return outcome{message: msg, details: details}
}

type check struct {
	prepare func(r *Rule) error
	run     func(a *models.Article, r *Rule) outcome
}

// Evaluator runs a fixed rule table. It holds no state beyond the table and
// is safe for concurrent use.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator validates the rule table: ids must be unique, severities
// known, and every id must have a registered check.
func NewEvaluator(set *RuleSet) (*Evaluator, error) {
	if set == nil || len(set.Rules) == 0 {
		return nil, errors.New("qc: empty rule table")
	}
	seen := make(map[string]bool, len(set.Rules))
	rules := make([]Rule, len(set.Rules))
	for i, r := range set.Rules {
		if seen[r.ID] {
			return nil, fmt.Errorf("qc: duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if !r.Severity.valid() {
			return nil, fmt.Errorf("qc: rule %q: unknown severity %q", r.ID, r.Severity)
		}
		c, ok := checks[r.ID]
		if !ok {
			return nil, fmt.Errorf("qc: rule %q has no registered check", r.ID)
		}
		if c.prepare != nil {
			if err := c.prepare(&r); err != nil {
				return nil, fmt.Errorf("qc: rule %q: %w", r.ID, err)
			}
		}
		rules[i] = r
	}
	return &Evaluator{rules: rules}, nil
}

// Rules returns a copy of the configured table.
func (e *Evaluator) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every rule once against a; it only reads the article.
func (e *Evaluator) Evaluate(a *models.Article) Report {
	report := Report{
		Publishable: true,
		Results:     make([]CheckResult, 0, len(e.rules)),
		Counts:      map[Severity]int{},
	}
	for i := range e.rules {
		r := &e.rules[i]
		o := runCheck(a, r)
		res := CheckResult{
			RuleID:   r.ID,
			Category: r.Category,
			Passed:   o.passed,
			Severity: r.Severity,
			Message:  o.message,
			Details:  o.details,
		}
		if !res.Passed {
			report.Counts[r.Severity]++
			if r.Severity == SeverityError {
				report.Publishable = false
			}
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func runCheck(a *models.Article, r *Rule) (o outcome) {
	defer func() {
		if p := recover(); p != nil {
			o = fail(fmt.Sprintf("check failed to run: %v", p), nil)
		}
	}()
	if a == nil {
		return fail("no article", nil)
	}
	return checks[r.ID].run(a, r)
}
