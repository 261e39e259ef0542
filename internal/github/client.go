// Package github adapts the GitHub API to the directory capability
// surface the reconciler consumes.
package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v73/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/orgtools/everyteam/internal/directory"
	"github.com/orgtools/everyteam/internal/errors"
	"github.com/orgtools/everyteam/internal/log"
)

const listPageSize = 100

// ClientConfig configures the GitHub directory adapter.
type ClientConfig struct {
	// Token is the personal access token. Team creation additionally
	// requires the admin:org scope.
	Token string

	// Org is the organization the adapter is bound to.
	Org string

	// BaseURL points the adapter at a GitHub Enterprise installation.
	// Empty means github.com.
	BaseURL string

	// RetryMax caps transport-level retries for transient failures.
	RetryMax int

	// Logger receives adapter diagnostics. Defaults to the process
	// logger.
	Logger *log.Logger
}

// Client implements directory.Directory over the GitHub API. Transient
// HTTP failures are retried at the transport, beneath the reconciler.
type Client struct {
	gh     *gh.Client
	org    string
	logger *log.Logger
}

var _ directory.Directory = (*Client)(nil)

// NewClient builds the adapter. The HTTP stack is a retrying transport
// wrapped in an oauth2 token source.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.DefaultLogger()
	}

	retrying := retryablehttp.NewClient()
	retrying.RetryMax = cfg.RetryMax
	retrying.Logger = nil

	httpCtx := context.WithValue(context.Background(), oauth2.HTTPClient, retrying.StandardClient())
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(httpCtx, source)

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalidValue,
				fmt.Sprintf("invalid API base URL %q", cfg.BaseURL), err)
		}
	}

	return &Client{
		gh:     client,
		org:    cfg.Org,
		logger: cfg.Logger,
	}, nil
}

// ListTeams returns every team in the organization, paginating as needed.
func (c *Client) ListTeams(ctx context.Context) ([]directory.Team, error) {
	var all []directory.Team
	opts := &gh.ListOptions{PerPage: listPageSize}

	for {
		teams, resp, err := c.gh.Teams.ListTeams(ctx, c.org, opts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDirectoryAPI,
				fmt.Sprintf("list teams in %s", c.org), err)
		}
		for _, team := range teams {
			all = append(all, toTeam(team))
		}
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateTeam creates a team in the organization. A 403 means the token
// lacks admin:org; that surfaces as directory.ErrPermissionDenied.
func (c *Client) CreateTeam(ctx context.Context, name string) (directory.Team, error) {
	team, resp, err := c.gh.Teams.CreateTeam(ctx, c.org, gh.NewTeam{Name: name})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			return directory.Team{}, errors.NewPermissionDeniedError(
				fmt.Sprintf("create team %q in %s", name, c.org),
				fmt.Errorf("%w: %v", directory.ErrPermissionDenied, err))
		}
		return directory.Team{}, errors.Wrap(errors.ErrCodeDirectoryAPI,
			fmt.Sprintf("create team %q in %s", name, c.org), err)
	}
	c.logger.Debug("created team", "team", team.GetName(), "id", team.GetID())
	return toTeam(team), nil
}

// ListOrgMembers returns the login of every organization member.
func (c *Client) ListOrgMembers(ctx context.Context) ([]directory.Identity, error) {
	var all []directory.Identity
	opts := &gh.ListMembersOptions{ListOptions: gh.ListOptions{PerPage: listPageSize}}

	for {
		members, resp, err := c.gh.Organizations.ListMembers(ctx, c.org, opts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDirectoryAPI,
				fmt.Sprintf("list members of %s", c.org), err)
		}
		for _, member := range members {
			all = append(all, directory.Identity(member.GetLogin()))
		}
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListTeamMembers returns the login of every team member.
func (c *Client) ListTeamMembers(ctx context.Context, team directory.Team) ([]directory.Identity, error) {
	var all []directory.Identity
	opts := &gh.TeamListTeamMembersOptions{ListOptions: gh.ListOptions{PerPage: listPageSize}}

	for {
		members, resp, err := c.gh.Teams.ListTeamMembersBySlug(ctx, c.org, teamSlug(team), opts)
		if err != nil {
			// A 404 here means the team vanished between resolution and
			// the snapshot, or its slug does not match its name.
			if IsNotFound(err) {
				return nil, errors.Wrap(errors.ErrCodeDirectoryNotFound,
					fmt.Sprintf("team %s not found", team.Name), err)
			}
			return nil, errors.Wrap(errors.ErrCodeDirectoryAPI,
				fmt.Sprintf("list members of team %s", team.Name), err)
		}
		for _, member := range members {
			all = append(all, directory.Identity(member.GetLogin()))
		}
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// AddMembership adds the identity to the team. New members may land in
// the pending state until they accept the invitation; that still counts
// as a successful mutation.
func (c *Client) AddMembership(ctx context.Context, team directory.Team, id directory.Identity) error {
	_, _, err := c.gh.Teams.AddTeamMembershipBySlug(ctx, c.org, teamSlug(team), string(id), nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryAPI,
			fmt.Sprintf("add %s to team %s", id, team.Name), err)
	}
	return nil
}

// RemoveMembership removes the identity from the team.
func (c *Client) RemoveMembership(ctx context.Context, team directory.Team, id directory.Identity) error {
	_, err := c.gh.Teams.RemoveTeamMembershipBySlug(ctx, c.org, teamSlug(team), string(id))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryAPI,
			fmt.Sprintf("remove %s from team %s", id, team.Name), err)
	}
	return nil
}

// IsNotFound reports whether an error from the adapter was a 404.
func IsNotFound(err error) bool {
	var errResp *gh.ErrorResponse
	if stderrors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func toTeam(team *gh.Team) directory.Team {
	return directory.Team{
		ID:   team.GetID(),
		Name: team.GetName(),
		Slug: team.GetSlug(),
	}
}

// teamSlug prefers the API slug and falls back to the display name, which
// GitHub accepts for teams whose name needs no slugification.
func teamSlug(team directory.Team) string {
	if team.Slug != "" {
		return team.Slug
	}
	return team.Name
}
