package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, set RuleSet) *Engine {
	t.Helper()
	engine, err := Compile(set)
	require.NoError(t, err)
	return engine
}

func TestEvaluate_RejectThenAllowPrecedence(t *testing.T) {
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin, Reject: []string{"^w"}, Allow: []string{"s$"}},
	})

	tests := []struct {
		login string
		want  Verdict
	}{
		// Matches reject and allow: the allow overrides.
		{"wes", VerdictAllow},
		// Matches reject only.
		{"wanda", VerdictReject},
		// No reject match at all: allow patterns are never consulted.
		{"jess", VerdictNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Evaluate(tt.login))
		})
	}
}

func TestEvaluate_AllowRequiresPriorReject(t *testing.T) {
	// An allow pattern alone never produces an explicit Allow; it is only
	// an override for a rejection made by the same rule.
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin, Allow: []string{".*"}},
	})

	assert.Equal(t, VerdictNeutral, engine.Evaluate("anyone"))
}

func TestEvaluate_CaseInsensitiveUnanchored(t *testing.T) {
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin, Reject: []string{"BOT"}},
	})

	assert.Equal(t, VerdictReject, engine.Evaluate("deploy-bot-7"))
	assert.Equal(t, VerdictReject, engine.Evaluate("Botley"))
	assert.Equal(t, VerdictNeutral, engine.Evaluate("human"))
}

func TestEvaluate_LaterRuleOverwritesEarlier(t *testing.T) {
	// Two rules at order 0 and 1; the later rule's verdict wins outright.
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin, Order: 0, Reject: []string{"^alice$"}},
		{Field: FieldLogin, Order: 1, Reject: []string{"^alice$"}, Allow: []string{"^alice$"}},
	})

	assert.Equal(t, VerdictAllow, engine.Evaluate("alice"))
}

func TestEvaluate_OrderSortsBeforeEvaluation(t *testing.T) {
	// Declared out of order; the order field decides evaluation sequence,
	// so the order-5 rule must be applied last and win.
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin, Order: 5, Reject: []string{"^bob$"}},
		{Field: FieldLogin, Order: 1, Reject: []string{"^bob$"}, Allow: []string{"^bob$"}},
	})

	assert.Equal(t, VerdictReject, engine.Evaluate("bob"))
}

func TestEvaluate_StableOnOrderTies(t *testing.T) {
	// Equal orders keep declaration order: the second rule still runs
	// second and overwrites the first rule's rejection.
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin, Order: 0, Reject: []string{"^carol$"}},
		{Field: FieldLogin, Order: 0, Reject: []string{"^carol$"}, Allow: []string{"carol"}},
	})

	assert.Equal(t, VerdictAllow, engine.Evaluate("carol"))
}

func TestEvaluate_EmptyRuleSetIsNeutral(t *testing.T) {
	engine := mustCompile(t, RuleSet{})

	verdict := engine.Evaluate("anyone")
	assert.Equal(t, VerdictNeutral, verdict)
	assert.True(t, verdict.Admits(), "neutral must default-admit")
}

func TestEvaluate_UnsupportedFieldNeverMatches(t *testing.T) {
	engine := mustCompile(t, RuleSet{
		{Field: Field("email"), Reject: []string{".*"}},
	})

	assert.Equal(t, VerdictNeutral, engine.Evaluate("anyone"))
}

func TestEvaluate_RuleWithoutPatternsIsNoOp(t *testing.T) {
	engine := mustCompile(t, RuleSet{
		{Field: FieldLogin},
	})

	assert.Equal(t, VerdictNeutral, engine.Evaluate("anyone"))
}

func TestCompile_MalformedPatternFailsFast(t *testing.T) {
	_, err := Compile(RuleSet{
		{Field: FieldLogin, Reject: []string{"("}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RULES-003")

	_, err = Compile(RuleSet{
		{Field: FieldLogin, Reject: []string{"ok"}, Allow: []string{"["}},
	})
	require.Error(t, err)
}

func TestVerdictAdmits(t *testing.T) {
	assert.True(t, VerdictAllow.Admits())
	assert.True(t, VerdictNeutral.Admits())
	assert.False(t, VerdictReject.Admits())
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "allow", VerdictAllow.String())
	assert.Equal(t, "reject", VerdictReject.String())
	assert.Equal(t, "neutral", VerdictNeutral.String())
}
