package sync

import (
	"fmt"

	"github.com/orgtools/everyteam/internal/directory"
	"github.com/orgtools/everyteam/internal/rules"
)

// Action is what the reconciler decided to do for one member.
type Action int

const (
	// ActionNoOp leaves the membership as it is.
	ActionNoOp Action = iota
	// ActionAdd adds the member to the team.
	ActionAdd
	// ActionRemove removes the member from the team.
	ActionRemove
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionNoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// Outcome is what happened when the action was carried out.
type Outcome int

const (
	// OutcomeNone means there was nothing to do.
	OutcomeNone Outcome = iota
	// OutcomeExecuted means the mutation was issued and succeeded.
	OutcomeExecuted
	// OutcomeSkipped means the mutation was suppressed by dry-run.
	OutcomeSkipped
	// OutcomeFailed means the mutation was issued and failed.
	OutcomeFailed
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeNone:
		return "none"
	default:
		return "unknown"
	}
}

// Decision records the full processing of one member: verdict, chosen
// action, and outcome. Decisions exist for one run only and are never
// persisted.
type Decision struct {
	Identity directory.Identity
	Verdict  rules.Verdict
	Action   Action
	Outcome  Outcome
	Err      error
}

// decide maps current team membership and a rule verdict to an action.
//
//	in team + reject          -> remove
//	in team + allow/neutral   -> noop
//	not in team + allow/neutral -> add
//	not in team + reject      -> noop
//
// Neutral admits: a member no rule matched is treated like an explicitly
// allowed one. Members present in the team but absent from the
// organization are never enumerated here at all, so they are never
// removed.
func decide(inTeam bool, verdict rules.Verdict) Action {
	if inTeam {
		if !verdict.Admits() {
			return ActionRemove
		}
		return ActionNoOp
	}
	if verdict.Admits() {
		return ActionAdd
	}
	return ActionNoOp
}

// RunResult aggregates one reconciliation pass for reporting.
type RunResult struct {
	// RunID correlates log lines and reports from the same pass.
	RunID string `json:"run_id"`

	// Team is the team that was reconciled.
	Team directory.Team `json:"team"`

	// DryRun records whether mutations were suppressed.
	DryRun bool `json:"dry_run"`

	// Decisions holds the per-member record in enumeration order.
	Decisions []Decision `json:"-"`

	// Added, Removed, NoOps, Skipped, and Failed count outcomes.
	Added   int `json:"added"`
	Removed int `json:"removed"`
	NoOps   int `json:"noop"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	// Processed is the number of members enumerated before the run
	// finished or was cancelled.
	Processed int `json:"processed"`
}

// Summary returns a one-line human-readable report.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("processed=%d added=%d removed=%d noop=%d skipped=%d failed=%d dry_run=%t",
		r.Processed, r.Added, r.Removed, r.NoOps, r.Skipped, r.Failed, r.DryRun)
}

func (r *RunResult) record(d Decision) {
	r.Decisions = append(r.Decisions, d)
	r.Processed++

	switch d.Outcome {
	case OutcomeFailed:
		r.Failed++
		return
	case OutcomeSkipped:
		r.Skipped++
		return
	}

	switch d.Action {
	case ActionAdd:
		r.Added++
	case ActionRemove:
		r.Removed++
	default:
		r.NoOps++
	}
}
