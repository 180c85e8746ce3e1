package archive

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create turns",
		SQL: `
			CREATE TABLE turns (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id     TEXT NOT NULL,
				correlation_id TEXT NOT NULL,
				timestamp      TEXT NOT NULL DEFAULT (datetime('now')),
				raw_input      TEXT NOT NULL,
				intent         TEXT NOT NULL,
				confidence     REAL NOT NULL DEFAULT 0,
				success        INTEGER NOT NULL DEFAULT 0,
				response       TEXT NOT NULL DEFAULT '',
				entities       TEXT,
				analysis_id    TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_turns_session ON turns (session_id, id);
			CREATE INDEX idx_turns_intent ON turns (intent);
			CREATE INDEX idx_turns_timestamp ON turns (timestamp);
		`,
	},
}
