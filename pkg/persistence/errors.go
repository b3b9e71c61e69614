package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionLogNotFound indicates an execution log was not found.
	ErrExecutionLogNotFound = errors.New("execution log not found")

	// ErrIntegrationNotFound indicates no matching active integration exists.
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrOrganizationNotFound indicates the tenant does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrLeadNotFound indicates a lead was not found by the given identifier.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrNoEligibleAgent indicates the expertise matrix has no agent to route to.
	ErrNoEligibleAgent = errors.New("no eligible agent")

	// ErrCampaignStatsNotFound indicates no ROI snapshot exists for the campaign.
	ErrCampaignStatsNotFound = errors.New("campaign stats not found")
)

// IsWorkflowNotFound checks if an error indicates a missing workflow.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionLogNotFound checks if an error indicates a missing execution log.
func IsExecutionLogNotFound(err error) bool {
	return errors.Is(err, ErrExecutionLogNotFound)
}

// IsLeadNotFound checks if an error indicates a missing lead.
func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

// IsOrganizationNotFound checks if an error indicates a missing tenant.
func IsOrganizationNotFound(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound)
}
