package temporal

import "time"

// TaskQueueName is the Temporal task queue serving organization maintenance workflows.
const TaskQueueName = "ORGS_MAINTENANCE"

// PurgeWorkflowID identifies the single cron run of the invitation purge.
const PurgeWorkflowID = "orgs-invitation-purge"

// DefaultActivityTimeout bounds each maintenance activity.
const DefaultActivityTimeout = 2 * time.Minute

// PurgeResult reports how many expired invitations were removed per organization.
type PurgeResult struct {
	PerOrganization map[string]int64
	Total           int64
}

func NewPurgeResult(counts map[string]int64) PurgeResult {
	result := PurgeResult{PerOrganization: counts}
	if result.PerOrganization == nil {
		result.PerOrganization = map[string]int64{}
	}
	for _, n := range result.PerOrganization {
		result.Total += n
	}
	return result
}
