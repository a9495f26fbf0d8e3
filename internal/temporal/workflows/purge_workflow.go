package workflows

import (
	"time"

	orgstemporal "github.com/stanstork/stratum-orgs/internal/temporal"
	"github.com/stanstork/stratum-orgs/internal/temporal/activities"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// PurgeExpiredInvitationsWorkflow runs the purge activity once. It is started
// with a cron schedule so each tick is a fresh run.
func PurgeExpiredInvitationsWorkflow(ctx workflow.Context) (orgstemporal.PurgeResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: orgstemporal.DefaultActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting invitation purge workflow")

	// The actual implementation is on the worker; this is just a proxy.
	var a *activities.Activities

	var result orgstemporal.PurgeResult
	if err := workflow.ExecuteActivity(ctx, a.PurgeExpiredInvitationsActivity).Get(ctx, &result); err != nil {
		logger.Error("Invitation purge failed.", "error", err)
		return orgstemporal.PurgeResult{}, err
	}

	logger.Info("Invitation purge workflow completed.", "total", result.Total)
	return result, nil
}
