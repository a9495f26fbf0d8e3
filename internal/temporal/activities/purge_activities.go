package activities

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stanstork/stratum-orgs/internal/temporal"
	"go.temporal.io/sdk/activity"
)

// InvitationPurger is implemented by invitation.Service.
type InvitationPurger interface {
	PurgeExpired(ctx context.Context) (map[string]int64, error)
}

type Activities struct {
	Invitations InvitationPurger
}

// PurgeExpiredInvitationsActivity deletes every expired invitation batch.
func (a *Activities) PurgeExpiredInvitationsActivity(ctx context.Context) (temporal.PurgeResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Purging expired invitations")

	counts, err := a.Invitations.PurgeExpired(ctx)
	if err != nil {
		logger.Error("Failed to purge expired invitations", "error", err)
		return temporal.PurgeResult{}, errors.Wrap(err, "failed to purge expired invitations")
	}

	result := temporal.NewPurgeResult(counts)
	logger.Info("Expired invitations purged", "total", result.Total, "organizations", len(result.PerOrganization))
	return result, nil
}
