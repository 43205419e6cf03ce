package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				team_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				enabled BOOLEAN NOT NULL DEFAULT true,
				trigger_type VARCHAR(100) NOT NULL,
				trigger_config JSONB NOT NULL DEFAULT '{}',
				conditions JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				total_executions BIGINT NOT NULL DEFAULT 0,
				successful_executions BIGINT NOT NULL DEFAULT 0,
				failed_executions BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_team_id ON workflows(team_id);
			CREATE INDEX idx_workflows_team_trigger ON workflows(team_id, trigger_type) WHERE enabled;
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
		`,
	}
}
