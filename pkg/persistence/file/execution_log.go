package file

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// ExecutionLogRepository stores run logs as
// execution_logs/{organization}/{id}.json.
type ExecutionLogRepository struct {
	root string
}

func (r *ExecutionLogRepository) path(organizationID, id string) string {
	return filepath.Join(r.root, "execution_logs", organizationID, id+".json")
}

func (r *ExecutionLogRepository) Create(ctx context.Context, log *models.ExecutionLog) error {
	return writeDoc(r.path(log.OrganizationID, log.ID), log)
}

func (r *ExecutionLogRepository) Update(ctx context.Context, log *models.ExecutionLog) error {
	return writeDoc(r.path(log.OrganizationID, log.ID), log)
}

func (r *ExecutionLogRepository) GetByID(ctx context.Context, organizationID, id string) (*models.ExecutionLog, error) {
	log := &models.ExecutionLog{}
	if err := readDoc(r.path(organizationID, id), log, persistence.ErrExecutionLogNotFound); err != nil {
		return nil, err
	}

	return log, nil
}

func (r *ExecutionLogRepository) List(ctx context.Context, organizationID string, opts persistence.ListLogsOptions) ([]*models.ExecutionLog, error) {
	paths, err := listDocs(filepath.Join(r.root, "execution_logs", organizationID))
	if err != nil {
		return nil, err
	}

	logs := make([]*models.ExecutionLog, 0, len(paths))

	for _, path := range paths {
		log := &models.ExecutionLog{}
		if err := readDoc(path, log, persistence.ErrExecutionLogNotFound); err != nil {
			return nil, err
		}

		if opts.WorkflowID != "" && log.WorkflowID != opts.WorkflowID {
			continue
		}

		if opts.LeadID != "" && log.LeadID != opts.LeadID {
			continue
		}

		if opts.Status != "" && log.Status != opts.Status {
			continue
		}

		logs = append(logs, log)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].StartedAt.After(logs[j].StartedAt)
	})

	return paginate(logs, opts.Offset, opts.Limit), nil
}

func (r *ExecutionLogRepository) MarkStale(ctx context.Context, ttl time.Duration) (int64, error) {
	orgDirs, err := filepath.Glob(filepath.Join(r.root, "execution_logs", "*"))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-ttl)

	var marked int64

	for _, dir := range orgDirs {
		paths, err := listDocs(dir)
		if err != nil {
			return marked, err
		}

		for _, path := range paths {
			log := &models.ExecutionLog{}
			if err := readDoc(path, log, persistence.ErrExecutionLogNotFound); err != nil {
				return marked, err
			}

			if log.Status != models.RunStatusRunning || log.StartedAt.After(cutoff) {
				continue
			}

			log.Status = models.RunStatusFailed
			log.Finalize(time.Now())

			if err := writeDoc(path, log); err != nil {
				return marked, err
			}

			marked++
		}
	}

	return marked, nil
}

func paginate(logs []*models.ExecutionLog, offset, limit int) []*models.ExecutionLog {
	if offset >= len(logs) {
		return []*models.ExecutionLog{}
	}

	logs = logs[offset:]

	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}

	return logs
}
