package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				organization_id VARCHAR(64) NOT NULL,
				name VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				trigger_type VARCHAR(100) NOT NULL,
				trigger_config JSONB,
				nodes JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_org ON workflows(organization_id);
			CREATE INDEX idx_workflows_dispatch ON workflows(organization_id, trigger_type, is_active);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE execution_logs (
				id UUID PRIMARY KEY,
				organization_id VARCHAR(64) NOT NULL,
				workflow_id UUID NOT NULL,
				lead_id VARCHAR(64) NOT NULL,
				status VARCHAR(20) NOT NULL CHECK (status IN ('running', 'success', 'partial', 'failed')),
				steps JSONB NOT NULL,
				trigger_data JSONB,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE,
				total_duration_ms BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_execution_logs_org ON execution_logs(organization_id);
			CREATE INDEX idx_execution_logs_workflow ON execution_logs(organization_id, workflow_id);
			CREATE INDEX idx_execution_logs_lead ON execution_logs(organization_id, lead_id);
			CREATE INDEX idx_execution_logs_status ON execution_logs(status, started_at);

			CREATE TABLE organizations (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				is_gdpr BOOLEAN NOT NULL DEFAULT FALSE,
				timezone VARCHAR(64),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE integrations (
				id UUID PRIMARY KEY,
				organization_id VARCHAR(64) NOT NULL,
				provider VARCHAR(50) NOT NULL,
				name VARCHAR(255) NOT NULL,
				region VARCHAR(10),
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				credentials JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_integrations_lookup ON integrations(organization_id, provider, is_active);

			CREATE TABLE leads (
				id VARCHAR(64) PRIMARY KEY,
				organization_id VARCHAR(64) NOT NULL,
				name VARCHAR(255),
				email VARCHAR(255),
				phone VARCHAR(50),
				country VARCHAR(10),
				locale VARCHAR(10),
				campaign VARCHAR(255),
				campaign_name VARCHAR(255),
				score INTEGER NOT NULL DEFAULT 0,
				assigned_to VARCHAR(64),
				gdpr_consent BOOLEAN NOT NULL DEFAULT FALSE,
				ai_analysis JSONB,
				raw_data JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_leads_org ON leads(organization_id);
			CREATE INDEX idx_leads_assigned ON leads(organization_id, assigned_to);

			CREATE TABLE expertise_matrix (
				organization_id VARCHAR(64) NOT NULL,
				agent_id VARCHAR(64) NOT NULL,
				country VARCHAR(10) NOT NULL,
				intent VARCHAR(50) NOT NULL,
				conversions INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (organization_id, agent_id, country, intent)
			);

			CREATE INDEX idx_expertise_lookup ON expertise_matrix(organization_id, country, intent);

			CREATE TABLE campaign_stats (
				organization_id VARCHAR(64) NOT NULL,
				campaign VARCHAR(255) NOT NULL,
				roi_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
				lead_volume INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (organization_id, campaign)
			);
		`,
	}
}
