package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// RunResult is one workflow's outcome within a dispatch batch.
type RunResult struct {
	WorkflowID   string               `json:"workflow_id"`
	WorkflowName string               `json:"workflow_name"`
	Log          *models.ExecutionLog `json:"log,omitempty"`
	Err          error                `json:"-"`
}

// Report aggregates a dispatch batch: every matched workflow appears exactly
// once, failed runs included.
type Report struct {
	OrganizationID string      `json:"organization_id"`
	TriggerType    string      `json:"trigger_type"`
	Matched        int         `json:"matched"`
	Results        []RunResult `json:"results"`
}

// Dispatcher fans one trigger event out to every active matching workflow of
// a tenant. Runs execute concurrently and are supervised individually: a
// panic or error in one run is captured into its slot of the report and
// never touches its siblings.
type Dispatcher struct {
	persistence persistence.Persistence
	runner      *Runner
	tracker     *analytics.Tracker
	logger      *slog.Logger
}

func NewDispatcher(p persistence.Persistence, runner *Runner, tracker *analytics.Tracker, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		runner:      runner,
		tracker:     tracker,
		logger:      logger.With("module", "dispatcher"),
	}
}

// Dispatch loads the tenant's active workflows for the trigger type and runs
// them all. The returned error covers only the workflow lookup; per-run
// errors live in the report.
func (d *Dispatcher) Dispatch(ctx context.Context, organizationID, triggerType string, lead *models.Lead) (*Report, error) {
	workflows, err := d.persistence.Workflows().ListActiveByTrigger(ctx, organizationID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows for trigger %q: %w", triggerType, err)
	}

	report := &Report{
		OrganizationID: organizationID,
		TriggerType:    triggerType,
		Matched:        len(workflows),
		Results:        make([]RunResult, len(workflows)),
	}

	if len(workflows) == 0 {
		d.logger.DebugContext(ctx, "No workflows matched trigger",
			"organization_id", organizationID, "trigger_type", triggerType)

		return report, nil
	}

	leadID := ""
	if lead != nil {
		leadID = lead.ID
	}

	triggerData := leadSnapshot(lead, triggerType)

	var wg sync.WaitGroup

	for i, workflow := range workflows {
		report.Results[i] = RunResult{WorkflowID: workflow.ID, WorkflowName: workflow.Name}

		d.tracker.Track(ctx, analytics.NewEvent(analytics.WorkflowTriggeredEvent, organizationID, leadID, map[string]any{
			"workflow_id":   workflow.ID,
			"workflow_name": workflow.Name,
			"trigger_type":  triggerType,
		}))

		wg.Add(1)

		go func(i int, workflow *models.Workflow) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					report.Results[i].Err = fmt.Errorf("workflow run panicked: %v", rec)

					d.logger.ErrorContext(ctx, "Workflow run panicked",
						"workflow_id", workflow.ID, "panic", rec)
				}
			}()

			runLog, err := d.runner.Run(ctx, workflow, lead, triggerData)

			report.Results[i].Log = runLog
			report.Results[i].Err = err

			if err != nil {
				d.logger.ErrorContext(ctx, "Workflow run errored",
					"workflow_id", workflow.ID, "error", err)
			}
		}(i, workflow)
	}

	wg.Wait()

	return report, nil
}

// leadSnapshot freezes the triggering payload for the run log's audit trail.
func leadSnapshot(lead *models.Lead, triggerType string) map[string]any {
	snapshot := map[string]any{"trigger_type": triggerType}

	if lead == nil {
		return snapshot
	}

	data, err := json.Marshal(lead)
	if err != nil {
		return snapshot
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return snapshot
	}

	snapshot["lead"] = doc

	return snapshot
}
