package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgtools/everyteam/internal/config"
)

// stubAPI is a minimal GitHub API stub for end-to-end command tests.
// Routes carry the /api/v3 prefix the enterprise base URL implies.
func stubAPI(t *testing.T, mutations *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/orgs/acme/teams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 1, "name": "everyone", "slug": "everyone"}]`)
	})
	mux.HandleFunc("GET /api/v3/orgs/acme/members", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"login": "wes"}, {"login": "wanda"}, {"login": "jess"}]`)
	})
	mux.HandleFunc("GET /api/v3/orgs/acme/teams/everyone/members", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"login": "wanda"}]`)
	})
	mux.HandleFunc("PUT /api/v3/orgs/acme/teams/everyone/memberships/{user}", func(w http.ResponseWriter, r *http.Request) {
		mutations.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": "active", "role": "member"}`)
	})
	mux.HandleFunc("DELETE /api/v3/orgs/acme/teams/everyone/memberships/{user}", func(w http.ResponseWriter, r *http.Request) {
		mutations.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setSyncEnv(t *testing.T, apiURL string) {
	t.Helper()
	// Clear the legacy fallback names so the host environment cannot
	// leak into assertions on missing settings.
	for _, env := range []string{
		config.LegacyEnvToken, config.LegacyEnvOrg, config.LegacyEnvTeam,
		config.LegacyEnvAPIURL, config.LegacyEnvDryRun, config.LegacyEnvDelay,
		config.LegacyEnvRules,
	} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	t.Setenv(config.EnvToken, "test-token")
	t.Setenv(config.EnvOrg, "acme")
	t.Setenv(config.EnvTeam, "everyone")
	t.Setenv(config.EnvAPIURL, apiURL)
	t.Setenv(config.EnvDelay, "0")
	t.Setenv(config.EnvRules, "")
	t.Setenv(config.EnvRulesFile, "")
}

func TestSyncCommand_DryRunIssuesNoMutations(t *testing.T) {
	var mutations atomic.Int64
	server := stubAPI(t, &mutations)
	setSyncEnv(t, server.URL)

	out, err := execute(t, "sync", "--dry-run=true")
	require.NoError(t, err)

	assert.Equal(t, int64(0), mutations.Load(), "dry-run must not mutate")
	assert.Contains(t, out, `team "everyone"`)
	assert.Contains(t, out, "skipped=2", "wes and jess would be added")
	assert.Contains(t, out, "dry-run: 2 actions were computed but not executed")
}

func TestSyncCommand_LiveRunMutates(t *testing.T) {
	var mutations atomic.Int64
	server := stubAPI(t, &mutations)
	setSyncEnv(t, server.URL)

	out, err := execute(t, "sync", "--dry-run=false")
	require.NoError(t, err)

	assert.Equal(t, int64(2), mutations.Load(), "wes and jess get added")
	assert.Contains(t, out, "added=2")
	assert.Contains(t, out, "failed=0")
}

func TestSyncCommand_RejectRuleRemovesMember(t *testing.T) {
	var mutations atomic.Int64
	server := stubAPI(t, &mutations)
	setSyncEnv(t, server.URL)
	t.Setenv(config.EnvRules, `{"login": {"reject": ["^w"]}}`)

	out, err := execute(t, "sync", "--dry-run=false")
	require.NoError(t, err)

	// wanda is in the team and rejected: removed. wes is rejected and not
	// in the team: noop. jess is neutral and absent: added.
	assert.Equal(t, int64(2), mutations.Load())
	assert.Contains(t, out, "added=1")
	assert.Contains(t, out, "removed=1")
}

func TestSyncCommand_MissingConfigFailsFast(t *testing.T) {
	setSyncEnv(t, "http://127.0.0.1:0")
	t.Setenv(config.EnvToken, "")

	_, err := execute(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG-001")
}

func TestSyncCommand_MalformedRulesFailBeforeDirectoryCalls(t *testing.T) {
	// The API URL is unroutable: a pattern error must surface before any
	// directory call would be attempted.
	setSyncEnv(t, "http://127.0.0.1:0")
	t.Setenv(config.EnvRules, `{"login": {"reject": ["("]}}`)

	_, err := execute(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RULES-003")
}

func TestSyncCommand_JSONOutput(t *testing.T) {
	var mutations atomic.Int64
	server := stubAPI(t, &mutations)
	setSyncEnv(t, server.URL)

	out, err := execute(t, "sync", "--dry-run=true", "--json")
	require.NoError(t, err)

	assert.Contains(t, out, `"run_id"`)
	assert.Contains(t, out, `"skipped": 2`)
	assert.Contains(t, out, `"dry_run": true`)

	// Reset for later tests sharing the global flag set.
	syncJSONOut = false
}
