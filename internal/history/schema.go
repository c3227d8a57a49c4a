package history

const schemaSQL = `
CREATE TABLE IF NOT EXISTS hook_executions (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  command TEXT NOT NULL,
  success INTEGER NOT NULL,
  exit_code INTEGER NOT NULL,
  stdout TEXT,
  stderr TEXT,
  error TEXT,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hook_executions_event_id ON hook_executions(event_id);

CREATE INDEX IF NOT EXISTS idx_hook_executions_created_at ON hook_executions(created_at);
`
