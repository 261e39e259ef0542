package rules

import (
	"regexp"

	"github.com/orgtools/everyteam/internal/errors"
)

// Verdict is the tri-state outcome of evaluating a rule set against one
// identity. Neutral means no rule produced a finding; it is distinct from
// Allow in the type even though the reconciler currently treats both as
// admitting the member.
type Verdict int

const (
	// VerdictNeutral means no rule matched the identity.
	VerdictNeutral Verdict = iota
	// VerdictAllow means a rejection was explicitly overridden by an allow
	// pattern.
	VerdictAllow
	// VerdictReject means the identity matched a reject pattern with no
	// allow override.
	VerdictReject
)

// String returns the string representation of the verdict
func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictReject:
		return "reject"
	case VerdictNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Admits reports whether the verdict lets the member into the team.
// Neutral admits: absence of a finding is default-admit.
func (v Verdict) Admits() bool {
	return v != VerdictReject
}

type compiledRule struct {
	field  Field
	reject []*regexp.Regexp
	allow  []*regexp.Regexp
}

// Engine evaluates a compiled rule set. Compilation happens once at load
// time so malformed patterns surface before any directory call is made.
type Engine struct {
	rules []compiledRule
}

// Compile sorts the rule set and compiles every pattern. A malformed
// pattern is a fatal configuration error.
func Compile(set RuleSet) (*Engine, error) {
	sorted := set.Sorted()
	engine := &Engine{rules: make([]compiledRule, 0, len(sorted))}

	for _, rule := range sorted {
		cr := compiledRule{field: rule.Field}

		var err error
		if cr.reject, err = compilePatterns(rule.Field, rule.Reject); err != nil {
			return nil, err
		}
		if cr.allow, err = compilePatterns(rule.Field, rule.Allow); err != nil {
			return nil, err
		}
		engine.rules = append(engine.rules, cr)
	}
	return engine, nil
}

// Evaluate returns the verdict for a single identity.
//
// Rules run in order; each rule first applies its reject patterns and, only
// when a rejection occurred, its allow patterns as an override. A later
// rule's finding overwrites an earlier rule's. Rules for unsupported
// fields never match.
func (e *Engine) Evaluate(identity string) Verdict {
	verdict := VerdictNeutral

	for _, rule := range e.rules {
		value, ok := fieldValue(identity, rule.field)
		if !ok {
			continue
		}

		if matchAny(rule.reject, value) {
			verdict = VerdictReject

			if matchAny(rule.allow, value) {
				verdict = VerdictAllow
			}
		}
	}

	return verdict
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// fieldValue resolves a field to its value for the identity. The accessor
// is a typed switch rather than reflection; unsupported fields report
// ok=false and degrade to a no-op at evaluation.
func fieldValue(identity string, field Field) (string, bool) {
	switch field {
	case FieldLogin:
		return identity, true
	default:
		return "", false
	}
}

func compilePatterns(field Field, patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		// Case-insensitive, unanchored search.
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, errors.NewInvalidPatternError(string(field), pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, value string) bool {
	for _, re := range patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
