package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// ExecutionLogRepository handles run-log database operations.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionLogColumns = `
	id
  , organization_id
  , workflow_id
  , lead_id
  , status
  , steps
  , trigger_data
  , started_at
  , finished_at
  , total_duration_ms
`

func (r *ExecutionLogRepository) Create(ctx context.Context, log *models.ExecutionLog) error {
	stepsJSON, triggerJSON, err := marshalLogFields(log)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO execution_logs (id, organization_id, workflow_id, lead_id, status, steps, trigger_data, started_at, finished_at, total_duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.OrganizationID,
		log.WorkflowID,
		log.LeadID,
		log.Status,
		stepsJSON,
		triggerJSON,
		log.StartedAt,
		log.FinishedAt,
		log.TotalDurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution log: %w", err)
	}

	return nil
}

func (r *ExecutionLogRepository) Update(ctx context.Context, log *models.ExecutionLog) error {
	stepsJSON, triggerJSON, err := marshalLogFields(log)
	if err != nil {
		return err
	}

	query := `
		UPDATE execution_logs
		SET status = $3, steps = $4, trigger_data = $5, finished_at = $6, total_duration_ms = $7
		WHERE id = $1 AND organization_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.OrganizationID,
		log.Status,
		stepsJSON,
		triggerJSON,
		log.FinishedAt,
		log.TotalDurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrExecutionLogNotFound
	}

	return nil
}

func (r *ExecutionLogRepository) GetByID(ctx context.Context, organizationID, id string) (*models.ExecutionLog, error) {
	query := `
		SELECT ` + executionLogColumns + `
		FROM execution_logs
		WHERE id = $1 AND organization_id = $2
	`

	row := r.db.QueryRowContext(ctx, query, id, organizationID)

	log, err := scanExecutionLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionLogNotFound
		}

		return nil, fmt.Errorf("failed to scan execution log: %w", err)
	}

	return log, nil
}

func (r *ExecutionLogRepository) List(ctx context.Context, organizationID string, opts persistence.ListLogsOptions) ([]*models.ExecutionLog, error) {
	query := `
		SELECT ` + executionLogColumns + `
		FROM execution_logs
		WHERE organization_id = $1
	`
	args := []any{organizationID}

	if opts.WorkflowID != "" {
		args = append(args, opts.WorkflowID)
		query += " AND workflow_id = $" + strconv.Itoa(len(args))
	}

	if opts.LeadID != "" {
		args = append(args, opts.LeadID)
		query += " AND lead_id = $" + strconv.Itoa(len(args))
	}

	if opts.Status != "" {
		args = append(args, opts.Status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY started_at DESC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		log, err := scanExecutionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return logs, nil
}

// MarkStale fails logs stuck in the running state past the TTL. The engine
// never reconciles these itself; only the sweeper calls this.
func (r *ExecutionLogRepository) MarkStale(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	query := `
		UPDATE execution_logs
		SET status = 'failed',
		    finished_at = NOW(),
		    total_duration_ms = EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000
		WHERE status = 'running' AND started_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale execution logs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

func marshalLogFields(log *models.ExecutionLog) (stepsJSON, triggerJSON []byte, err error) {
	stepsJSON, err = json.Marshal(log.Steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal steps: %w", err)
	}

	triggerJSON, err = json.Marshal(log.TriggerData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	return stepsJSON, triggerJSON, nil
}

func scanExecutionLog(row rowScanner) (*models.ExecutionLog, error) {
	var (
		log         models.ExecutionLog
		stepsJSON   []byte
		triggerJSON []byte
		finishedAt  sql.NullTime
	)

	err := row.Scan(
		&log.ID,
		&log.OrganizationID,
		&log.WorkflowID,
		&log.LeadID,
		&log.Status,
		&stepsJSON,
		&triggerJSON,
		&log.StartedAt,
		&finishedAt,
		&log.TotalDurationMs,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stepsJSON, &log.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	if len(triggerJSON) > 0 {
		if err := json.Unmarshal(triggerJSON, &log.TriggerData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	if finishedAt.Valid {
		log.FinishedAt = &finishedAt.Time
	}

	return &log, nil
}
