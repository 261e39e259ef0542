package directory

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned when the credential lacks the privilege
// for a directory operation, such as creating a team without admin:org.
var ErrPermissionDenied = errors.New("directory: permission denied")

// Identity uniquely identifies a member within the directory. It is the
// join key between organization membership and team membership.
type Identity string

// Team is a named grouping of members inside the organization.
type Team struct {
	// ID is the directory's numeric identifier for the team.
	ID int64 `json:"id"`

	// Name is the team's display name.
	Name string `json:"name"`

	// Slug is the URL-safe handle some directory APIs address teams by.
	Slug string `json:"slug"`
}

// MembershipSet records which identities are currently members of a group.
// It is rebuilt from live directory state on every reconciliation pass and
// never cached across passes.
type MembershipSet map[Identity]bool

// NewMembershipSet builds a set from a list of identities.
func NewMembershipSet(ids []Identity) MembershipSet {
	set := make(MembershipSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Contains reports whether the identity is a current member.
func (s MembershipSet) Contains(id Identity) bool {
	return s[id]
}

// Directory is the capability surface the reconciler consumes. An adapter
// over the real directory API implements it, bound to one organization at
// construction time. Implementations are responsible for pagination and
// any transport-level retry beneath this interface.
type Directory interface {
	// ListTeams returns all teams in the organization.
	ListTeams(ctx context.Context) ([]Team, error)

	// CreateTeam creates a team with the given name. Requires elevated
	// privilege; returns an error matching ErrPermissionDenied otherwise.
	CreateTeam(ctx context.Context, name string) (Team, error)

	// ListOrgMembers returns the identities of every organization member.
	ListOrgMembers(ctx context.Context) ([]Identity, error)

	// ListTeamMembers returns the identities of every member of the team.
	ListTeamMembers(ctx context.Context, team Team) ([]Identity, error)

	// AddMembership adds the identity to the team.
	AddMembership(ctx context.Context, team Team, id Identity) error

	// RemoveMembership removes the identity from the team.
	RemoveMembership(ctx context.Context, team Team, id Identity) error
}
