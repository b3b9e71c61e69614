// Package engine drives workflow execution: the graph walker that runs one
// workflow over one lead, and the dispatcher that fans a trigger event out to
// every matching workflow.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadflowhq/leadflow/pkg/condition"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/otelhelper"
	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/leadflowhq/leadflow/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultHandlerTimeout bounds one provider handler invocation. A hung
// external API stalls a single node, not the whole process.
const DefaultHandlerTimeout = 30 * time.Second

// maxSteps bounds one run. Save-time validation does not reject cycles, so
// the walker refuses to loop forever on a workflow that routes back into
// itself.
const maxSteps = 1000

var (
	ErrMissingPayload = errors.New("run requires a payload lead")
	ErrStepLimit      = errors.New("run exceeded step limit")
)

// Runner walks one workflow graph over one lead, recording every node
// outcome on a persisted execution log.
type Runner struct {
	persistence    persistence.Persistence
	registry       *registry.Registry
	tracer         trace.Tracer
	logger         *slog.Logger
	handlerTimeout time.Duration
}

func NewRunner(p persistence.Persistence, reg *registry.Registry, logger *slog.Logger) *Runner {
	return &Runner{
		persistence:    p,
		registry:       reg,
		tracer:         noop.NewTracerProvider().Tracer("engine"),
		logger:         logger.With("module", "engine"),
		handlerTimeout: DefaultHandlerTimeout,
	}
}

// WithTracer replaces the default no-op tracer.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	if tracer != nil {
		r.tracer = tracer
	}

	return r
}

// WithHandlerTimeout overrides the per-handler timeout.
func (r *Runner) WithHandlerTimeout(timeout time.Duration) *Runner {
	if timeout > 0 {
		r.handlerTimeout = timeout
	}

	return r
}

// Run executes the workflow against the lead and returns the finalized log.
// The log is persisted as a side effect; a returned error means the log
// itself could not be stored, never that a node failed — node failures live
// in the log's status.
func (r *Runner) Run(ctx context.Context, workflow *models.Workflow, lead *models.Lead, triggerData map[string]any) (*models.ExecutionLog, error) {
	if lead == nil {
		return nil, ErrMissingPayload
	}

	logger := r.logger.With(
		"workflow_id", workflow.ID,
		"organization_id", workflow.OrganizationID,
		"lead_id", lead.ID,
	)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.run",
		attribute.String(otelhelper.OrganizationIDKey, workflow.OrganizationID),
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.LeadIDKey, lead.ID),
	)
	defer span.End()

	org := r.loadOrganization(ctx, workflow.OrganizationID, logger)

	runLog := models.NewExecutionLog(workflow.OrganizationID, workflow.ID, lead.ID, triggerData)
	if err := r.persistence.ExecutionLogs().Create(ctx, runLog); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create execution log: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.RunIDKey, runLog.ID))
	logger = logger.With("run_id", runLog.ID)
	logger.InfoContext(ctx, "Starting workflow run")

	state := models.NewExecutionState(workflow.OrganizationID, lead)
	current := workflow.EntryNode()
	steps := 0

	for current != nil {
		steps++
		if steps > maxSteps {
			logger.ErrorContext(ctx, "Run exceeded step limit, failing", "steps", steps)
			runLog.Status = models.RunStatusFailed
			otelhelper.SetError(span, ErrStepLimit)

			break
		}

		step := models.StepRecord{
			NodeID:    current.ID,
			NodeName:  current.Name,
			NodeType:  current.Type,
			StartedAt: time.Now().UTC(),
		}

		output, result, skipped, err := r.executeNode(ctx, current, state, org, logger)

		step.FinishedAt = time.Now().UTC()
		step.Output = output

		if err != nil {
			step.Status = models.StepStatusFailed
			step.Error = err.Error()
			state.Record(current.ID, false)
			runLog.Append(step)

			logger.ErrorContext(ctx, "Node failed", "node_id", current.ID, "error", err)

			if failureID := current.FailureSuccessor(); failureID != "" {
				if runLog.Status == models.RunStatusRunning {
					runLog.Status = models.RunStatusPartial
				}

				current = workflow.NodeByID(failureID)
				r.persistLog(ctx, runLog, logger)

				continue
			}

			runLog.Status = models.RunStatusFailed
			r.persistLog(ctx, runLog, logger)

			break
		}

		step.Status = models.StepStatusCompleted
		if skipped {
			step.Status = models.StepStatusSkipped
		}

		state.Record(current.ID, !skipped)
		runLog.Append(step)
		r.persistLog(ctx, runLog, logger)

		current = workflow.NodeByID(current.Successor(result))
	}

	runLog.Finalize(time.Now())

	if err := r.persistence.ExecutionLogs().Update(ctx, runLog); err != nil {
		otelhelper.SetError(span, err)

		return runLog, fmt.Errorf("failed to finalize execution log: %w", err)
	}

	logger.InfoContext(ctx, "Workflow run finished",
		"status", string(runLog.Status), "steps", len(runLog.Steps), "duration_ms", runLog.TotalDurationMs)

	return runLog, nil
}

// executeNode dispatches one node by type. The returned error means the node
// raised and failure-path routing applies; handler-reported failures come
// back inside output with a nil error.
func (r *Runner) executeNode(
	ctx context.Context,
	node *models.Node,
	state *models.ExecutionState,
	org *models.Organization,
	logger *slog.Logger,
) (output any, result bool, skipped bool, err error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "node.execute",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		attribute.String(otelhelper.ProviderKey, string(node.Provider)),
	)
	defer span.End()

	if node.Type == models.NodeTypeAction && r.gatedByCompliance(org, state) {
		logger.InfoContext(ctx, "Action skipped by compliance gate", "node_id", node.ID)

		return map[string]any{"skipped": true, "reason": "gdpr consent missing"}, false, true, nil
	}

	switch node.Type {
	case models.NodeTypeTrigger:
		return nil, true, false, nil

	case models.NodeTypeCondition:
		var cfg models.ConditionConfig
		if err := models.DecodeConfig(node.Config, &cfg); err != nil {
			otelhelper.SetError(span, err)

			return nil, false, false, fmt.Errorf("condition node %s: %w", node.ID, err)
		}

		result := condition.Evaluate(cfg, state)

		return map[string]any{"result": result}, result, false, nil

	case models.NodeTypeDelay:
		var cfg models.DelayConfig
		if err := models.DecodeConfig(node.Config, &cfg); err != nil {
			otelhelper.SetError(span, err)

			return nil, false, false, fmt.Errorf("delay node %s: %w", node.ID, err)
		}

		wait := delayDuration(cfg, org, time.Now())

		if err := r.sleep(ctx, wait); err != nil {
			otelhelper.SetError(span, err)

			return nil, false, false, fmt.Errorf("delay node %s interrupted: %w", node.ID, err)
		}

		return map[string]any{"waited_ms": wait.Milliseconds()}, true, false, nil

	case models.NodeTypeAction:
		output, err := r.runAction(ctx, node, state)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, false, false, err
		}

		return output, true, false, nil

	default:
		err := fmt.Errorf("node %s: unknown node type %q", node.ID, node.Type)
		otelhelper.SetError(span, err)

		return nil, false, false, err
	}
}

// runAction resolves the handler and the tenant integration, then invokes
// the handler under the per-handler timeout. Internal providers run without
// an integration.
func (r *Runner) runAction(ctx context.Context, node *models.Node, state *models.ExecutionState) (any, error) {
	handler, err := r.registry.Resolve(node.Provider)
	if err != nil {
		return nil, fmt.Errorf("action node %s: %w", node.ID, err)
	}

	var integration *models.Integration

	if !node.Provider.Internal() {
		integration, err = r.persistence.Integrations().FindActive(ctx, state.OrganizationID, node.Provider)
		if err != nil {
			return nil, fmt.Errorf("action node %s: missing active integration for provider %q: %w",
				node.ID, node.Provider, err)
		}
	}

	handlerCtx, cancel := context.WithTimeout(ctx, r.handlerTimeout)
	defer cancel()

	output, err := handler.Execute(handlerCtx, node, state, integration)
	if err != nil {
		return nil, fmt.Errorf("action node %s: %w", node.ID, err)
	}

	return output, nil
}

// gatedByCompliance applies the GDPR gate: in GDPR mode, action nodes never
// run against a lead without explicit consent.
func (r *Runner) gatedByCompliance(org *models.Organization, state *models.ExecutionState) bool {
	if org == nil || !org.Compliance.IsGDPR {
		return false
	}

	return state.Payload == nil || !state.Payload.GDPRConsent
}

func (r *Runner) loadOrganization(ctx context.Context, organizationID string, logger *slog.Logger) *models.Organization {
	org, err := r.persistence.Organizations().GetByID(ctx, organizationID)
	if err != nil {
		// Without the tenant record the run proceeds with compliance off and
		// UTC delays.
		logger.WarnContext(ctx, "Failed to load organization, running without tenant settings", "error", err)

		return nil
	}

	return org
}

// persistLog flushes the in-progress log after each step so an operator can
// watch a long run. Flush failures are logged; the final Update decides the
// run's fate.
func (r *Runner) persistLog(ctx context.Context, runLog *models.ExecutionLog, logger *slog.Logger) {
	if err := r.persistence.ExecutionLogs().Update(ctx, runLog); err != nil {
		logger.WarnContext(ctx, "Failed to flush execution log step", "error", err)
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
