package file

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// WorkflowRepository stores workflow definitions as
// workflows/{organization}/{id}.json.
type WorkflowRepository struct {
	root string
}

func (r *WorkflowRepository) path(organizationID, id string) string {
	return filepath.Join(r.root, "workflows", organizationID, id+".json")
}

func (r *WorkflowRepository) List(ctx context.Context, organizationID string) ([]*models.Workflow, error) {
	paths, err := listDocs(filepath.Join(r.root, "workflows", organizationID))
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(paths))

	for _, path := range paths {
		workflow := &models.Workflow{}
		if err := readDoc(path, workflow, persistence.ErrWorkflowNotFound); err != nil {
			return nil, err
		}

		if workflow.DeletedAt == nil {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (r *WorkflowRepository) ListActiveByTrigger(ctx context.Context, organizationID, triggerType string) ([]*models.Workflow, error) {
	all, err := r.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.IsActive && workflow.Trigger.Type == triggerType {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, organizationID, id string) (*models.Workflow, error) {
	workflow := &models.Workflow{}
	if err := readDoc(r.path(organizationID, id), workflow, persistence.ErrWorkflowNotFound); err != nil {
		return nil, err
	}

	if workflow.DeletedAt != nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return writeDoc(r.path(workflow.OrganizationID, workflow.ID), workflow)
}

func (r *WorkflowRepository) Delete(ctx context.Context, organizationID, id string) error {
	path := r.path(organizationID, id)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return persistence.ErrWorkflowNotFound
	}

	return os.Remove(path)
}
