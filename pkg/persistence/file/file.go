// Package file provides file-based persistence for development and tests.
// Each document is stored as one JSON file under the configured root.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root          string
	workflows     *WorkflowRepository
	executionLogs *ExecutionLogRepository
	organizations *organizationRepository
	integrations  *integrationRepository
	leads         *leadRepository
	expertise     *expertiseRepository
	campaignStats *campaignStatsRepository
}

// NewPersistence creates a file-backed store rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflows:     &WorkflowRepository{root: cleanRoot},
		executionLogs: &ExecutionLogRepository{root: cleanRoot},
		organizations: &organizationRepository{root: cleanRoot},
		integrations:  &integrationRepository{root: cleanRoot},
		leads:         &leadRepository{root: cleanRoot},
		expertise:     &expertiseRepository{root: cleanRoot},
		campaignStats: &campaignStatsRepository{root: cleanRoot},
	}
}

func (p *Persistence) Workflows() persistence.WorkflowRepository          { return p.workflows }
func (p *Persistence) ExecutionLogs() persistence.ExecutionLogRepository  { return p.executionLogs }
func (p *Persistence) Integrations() persistence.IntegrationRepository    { return p.integrations }
func (p *Persistence) Organizations() persistence.OrganizationRepository  { return p.organizations }
func (p *Persistence) Leads() persistence.LeadRepository                  { return p.leads }
func (p *Persistence) Expertise() persistence.ExpertiseRepository         { return p.expertise }
func (p *Persistence) CampaignStats() persistence.CampaignStatsRepository { return p.campaignStats }

// Close performs any necessary cleanup. Nothing to release for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// writeDoc serializes a document to path, creating parent directories.
func writeDoc(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}

	return nil
}

// readDoc deserializes a document, mapping a missing file to notFound.
func readDoc(path string, doc any, notFound error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound
		}

		return fmt.Errorf("failed to read document %s: %w", path, err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", path, err)
	}

	return nil
}

// listDocs globs every JSON document in dir.
func listDocs(dir string) ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", dir, err)
	}

	return entries, nil
}
