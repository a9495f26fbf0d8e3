package workflows

import (
	"context"
	"errors"
	"testing"

	orgstemporal "github.com/stanstork/stratum-orgs/internal/temporal"
	"github.com/stanstork/stratum-orgs/internal/temporal/activities"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

type stubPurger struct {
	counts map[string]int64
	err    error
	calls  int
}

func (p *stubPurger) PurgeExpired(context.Context) (map[string]int64, error) {
	p.calls++
	return p.counts, p.err
}

func TestPurgeExpiredInvitationsWorkflow(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	purger := &stubPurger{counts: map[string]int64{"org-a": 2, "org-b": 1}}
	env.RegisterActivity(&activities.Activities{Invitations: purger})

	env.ExecuteWorkflow(PurgeExpiredInvitationsWorkflow)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result orgstemporal.PurgeResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, int64(3), result.Total)
	require.Equal(t, int64(2), result.PerOrganization["org-a"])
	require.Equal(t, 1, purger.calls)
}

func TestPurgeExpiredInvitationsWorkflowRetriesThenFails(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	purger := &stubPurger{err: errors.New("database unavailable")}
	env.RegisterActivity(&activities.Activities{Invitations: purger})

	env.ExecuteWorkflow(PurgeExpiredInvitationsWorkflow)
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Equal(t, 3, purger.calls)
}

func TestNewPurgeResultWithoutCounts(t *testing.T) {
	result := orgstemporal.NewPurgeResult(nil)
	require.Zero(t, result.Total)
	require.NotNil(t, result.PerOrganization)
}
