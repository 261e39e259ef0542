package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orgtools/everyteam/internal/errors"
)

// Field identifies which member attribute a rule inspects.
// Only the login field is supported today; the enumeration exists so that
// additional fields can be added without switching to reflection.
type Field string

const (
	// FieldLogin matches rules against the member's login handle.
	FieldLogin Field = "login"
)

// Supported reports whether the engine knows how to resolve the field.
func (f Field) Supported() bool {
	return f == FieldLogin
}

// Rule is one field-scoped allow/reject entry in a rule set.
//
// Patterns are RE2 regular expressions matched case-insensitively and
// unanchored against the field value. A member matching any Reject pattern
// is provisionally rejected; if the same member also matches an Allow
// pattern of the same rule, the rejection is overridden.
type Rule struct {
	// Field is the member attribute the patterns apply to.
	Field Field

	// Order is the priority used to sort rules before evaluation.
	// Lower orders are evaluated first; ties keep declaration order.
	Order int `yaml:"order" json:"order"`

	// Reject patterns mark a matching member as rejected.
	Reject []string `yaml:"reject" json:"reject"`

	// Allow patterns override a rejection made by the same rule.
	Allow []string `yaml:"allow" json:"allow"`
}

// RuleSet is an ordered collection of rules. Declaration order is preserved
// so that equal Order values evaluate stably.
type RuleSet []Rule

// Sorted returns a copy of the rule set ordered by Order ascending,
// stable on ties.
func (rs RuleSet) Sorted() RuleSet {
	out := make(RuleSet, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// UnsupportedFields returns the fields in the rule set the engine cannot
// resolve. Such rules never match; callers should warn but not fail.
func (rs RuleSet) UnsupportedFields() []Field {
	var fields []Field
	for _, r := range rs {
		if !r.Field.Supported() {
			fields = append(fields, r.Field)
		}
	}
	return fields
}

// Parse decodes a rule set from YAML or JSON. The wire format is a mapping
// from field name to rule body, matching the USER_FILTERS shape:
//
//	login:
//	  order: 0
//	  reject: ["^w"]
//	  allow: ["s$"]
//
// JSON input parses identically because JSON is a YAML subset. Mapping
// declaration order is preserved for stable tie-breaking. An empty
// document yields an empty rule set.
func Parse(data []byte) (RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewRulesUnmarshalError("input", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return RuleSet{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return RuleSet{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrCodeRulesUnmarshal,
			fmt.Sprintf("rule set must be a mapping of field name to rule, got %s", nodeKind(root)))
	}

	set := make(RuleSet, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valueNode := root.Content[i+1]

		var rule Rule
		if err := valueNode.Decode(&rule); err != nil {
			return nil, errors.NewRulesUnmarshalError(fmt.Sprintf("field %q", keyNode.Value), err)
		}
		rule.Field = Field(strings.TrimSpace(keyNode.Value))
		set = append(set, rule)
	}
	return set, nil
}

// Load reads and parses a rule set from a file.
func Load(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRulesNotFound,
			fmt.Sprintf("read rule set file %s", path), err)
	}
	return Parse(data)
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.MappingNode:
		return "a mapping"
	default:
		return "an unexpected node"
	}
}
