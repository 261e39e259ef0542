package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orgtools/everyteam/internal/directory"
	"github.com/orgtools/everyteam/internal/errors"
	"github.com/orgtools/everyteam/internal/log"
	"github.com/orgtools/everyteam/internal/rules"
)

// Options configures one reconciliation pass.
type Options struct {
	// TeamName is the team to mirror the organization into. Created if it
	// does not exist.
	TeamName string

	// DryRun suppresses membership mutations; decisions are still
	// computed and reported.
	DryRun bool

	// Delay is the pause between members, respecting the directory API's
	// rate limit. No delay follows the last member.
	Delay time.Duration
}

// Reconciler pushes organization membership into a team, one sequential
// pass at a time. It holds no state across runs; re-running converges to
// the same desired membership.
type Reconciler struct {
	dir    directory.Directory
	engine *rules.Engine
	logger *log.Logger
	opts   Options

	// sleep is swappable so tests do not pay the pacing delay.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Reconciler. The rule engine must already be compiled;
// pattern errors belong to configuration loading, not to the run.
func New(dir directory.Directory, engine *rules.Engine, logger *log.Logger, opts Options) *Reconciler {
	return &Reconciler{
		dir:    dir,
		engine: engine,
		logger: logger,
		opts:   opts,
		sleep:  sleepContext,
	}
}

// Run executes one reconciliation pass.
//
// A fatal error (team resolution, snapshot) aborts before any mutation and
// returns a nil result. Individual mutation failures are contained: they
// are logged, counted, and reported through both the result and a partial
// failure error, with every remaining member still processed.
func (r *Reconciler) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:  uuid.NewString(),
		DryRun: r.opts.DryRun,
	}
	logger := r.logger.With("run_id", result.RunID)

	team, err := r.resolveTeam(ctx)
	if err != nil {
		return nil, err
	}
	result.Team = team
	logger = logger.With("team", team.Name)

	orgMembers, err := r.dir.ListOrgMembers(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSyncSnapshotFailed, "list organization members", err)
	}

	teamMembers, err := r.dir.ListTeamMembers(ctx, team)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSyncSnapshotFailed, "list team members", err)
	}
	teamSet := directory.NewMembershipSet(teamMembers)

	logger.Info("starting reconciliation",
		"org_members", len(orgMembers),
		"team_members", len(teamSet),
		"dry_run", r.opts.DryRun)

	total := len(orgMembers)
	for i, member := range orgMembers {
		// Cancellation is honored at the member boundary so a partial
		// run is always a prefix of the enumeration.
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		decision := r.processMember(ctx, logger, team, teamSet, member)
		result.record(decision)

		logger.Info(fmt.Sprintf("%d/%d: %s", i+1, total, member),
			"verdict", decision.Verdict.String(),
			"action", decision.Action.String(),
			"outcome", decision.Outcome.String())

		if i != total-1 {
			if err := r.sleep(ctx, r.opts.Delay); err != nil {
				return result, err
			}
		}
	}

	logger.Info("reconciliation complete", "summary", result.Summary())

	if result.Failed > 0 {
		return result, errors.New(errors.ErrCodeSyncPartialFailure,
			fmt.Sprintf("%d of %d mutations failed; %d members processed successfully",
				result.Failed, result.Added+result.Removed+result.Failed, result.Processed-result.Failed))
	}
	return result, nil
}

// resolveTeam finds the configured team by name, creating it when absent.
// Creation requires elevated privilege; without it the run aborts before
// any membership mutation.
func (r *Reconciler) resolveTeam(ctx context.Context) (directory.Team, error) {
	teams, err := r.dir.ListTeams(ctx)
	if err != nil {
		return directory.Team{}, errors.Wrap(errors.ErrCodeSyncTeamResolve, "list teams", err)
	}

	for _, team := range teams {
		if team.Name == r.opts.TeamName {
			r.logger.Debug("found existing team", "team", team.Name, "id", team.ID)
			return team, nil
		}
	}

	r.logger.Info("team not found, creating it", "team", r.opts.TeamName)
	team, err := r.dir.CreateTeam(ctx, r.opts.TeamName)
	if err != nil {
		return directory.Team{}, err
	}
	return team, nil
}

// processMember computes and applies the decision for a single member.
// Mutation errors are recorded in the decision, never propagated.
func (r *Reconciler) processMember(ctx context.Context, logger *log.Logger, team directory.Team, teamSet directory.MembershipSet, member directory.Identity) Decision {
	decision := Decision{
		Identity: member,
		Verdict:  r.engine.Evaluate(string(member)),
	}
	decision.Action = decide(teamSet.Contains(member), decision.Verdict)

	if decision.Action == ActionNoOp {
		decision.Outcome = OutcomeNone
		return decision
	}

	if r.opts.DryRun {
		logger.Debug("dry-run, suppressing mutation", "member", member, "action", decision.Action.String())
		decision.Outcome = OutcomeSkipped
		return decision
	}

	var err error
	switch decision.Action {
	case ActionAdd:
		err = r.dir.AddMembership(ctx, team, member)
	case ActionRemove:
		err = r.dir.RemoveMembership(ctx, team, member)
	}

	if err != nil {
		logger.WithError(err).Error("membership mutation failed",
			"member", member, "action", decision.Action.String())
		decision.Outcome = OutcomeFailed
		decision.Err = err
		return decision
	}

	decision.Outcome = OutcomeExecuted
	return decision
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
