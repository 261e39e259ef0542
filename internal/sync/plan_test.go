package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orgtools/everyteam/internal/rules"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		inTeam  bool
		verdict rules.Verdict
		want    Action
	}{
		{"in team, reject", true, rules.VerdictReject, ActionRemove},
		{"in team, allow", true, rules.VerdictAllow, ActionNoOp},
		{"in team, neutral", true, rules.VerdictNeutral, ActionNoOp},
		{"not in team, allow", false, rules.VerdictAllow, ActionAdd},
		{"not in team, neutral", false, rules.VerdictNeutral, ActionAdd},
		{"not in team, reject", false, rules.VerdictReject, ActionNoOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decide(tt.inTeam, tt.verdict))
		})
	}
}

func TestRunResultRecord(t *testing.T) {
	result := &RunResult{}

	result.record(Decision{Identity: "a", Action: ActionAdd, Outcome: OutcomeExecuted})
	result.record(Decision{Identity: "b", Action: ActionRemove, Outcome: OutcomeExecuted})
	result.record(Decision{Identity: "c", Action: ActionNoOp, Outcome: OutcomeNone})
	result.record(Decision{Identity: "d", Action: ActionAdd, Outcome: OutcomeSkipped})
	result.record(Decision{Identity: "e", Action: ActionAdd, Outcome: OutcomeFailed})

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 1, result.NoOps)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 5, result.Processed)
	assert.Len(t, result.Decisions, 5)
}

func TestRunResultSummary(t *testing.T) {
	result := &RunResult{Added: 2, Removed: 1, NoOps: 3, Skipped: 0, Failed: 1, Processed: 7, DryRun: false}
	summary := result.Summary()

	assert.Contains(t, summary, "added=2")
	assert.Contains(t, summary, "removed=1")
	assert.Contains(t, summary, "failed=1")
	assert.Contains(t, summary, "dry_run=false")
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "add", ActionAdd.String())
	assert.Equal(t, "remove", ActionRemove.String())
	assert.Equal(t, "noop", ActionNoOp.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "executed", OutcomeExecuted.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "none", OutcomeNone.String())
}
