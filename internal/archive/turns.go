package archive

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/soyeahso/chainsense/internal/domain"
)

// TurnArchive persists resolved conversation turns.
type TurnArchive struct {
	db *DB
}

// NewTurnArchive creates a turn archive using the given database.
func NewTurnArchive(db *DB) *TurnArchive {
	return &TurnArchive{db: db}
}

// ArchivedTurn is one persisted turn row.
type ArchivedTurn struct {
	SessionID     string          `json:"sessionId"`
	CorrelationID string          `json:"correlationId"`
	Timestamp     time.Time       `json:"timestamp"`
	RawInput      string          `json:"rawInput"`
	Intent        string          `json:"intent"`
	Confidence    float64         `json:"confidence"`
	Success       bool            `json:"success"`
	Response      string          `json:"response"`
	Entities      domain.Entities `json:"entities,omitempty"`
	AnalysisID    string          `json:"analysisId,omitempty"`
}

// Filter narrows a turn query. Zero values match everything.
type Filter struct {
	SessionID string
	Intent    string
	Success   *bool
	Since     time.Time
	Limit     int
}

// Append stores one resolved turn.
func (a *TurnArchive) Append(sessionID string, turn domain.ConversationTurn) {
	var entitiesJSON sql.NullString
	if len(turn.Entities) > 0 {
		if data, err := json.Marshal(turn.Entities); err == nil {
			entitiesJSON = sql.NullString{String: string(data), Valid: true}
		}
	}

	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := a.db.sql.Exec(
		`INSERT INTO turns (session_id, correlation_id, timestamp, raw_input, intent, confidence, success, response, entities, analysis_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, turn.CorrelationID, ts.UTC().Format(time.DateTime), turn.RawInput,
		turn.Intent, turn.Confidence, boolToInt(turn.Success), turn.Response,
		entitiesJSON, turn.AnalysisID,
	)
	if err != nil {
		a.db.log.Error().Err(err).Str("session", sessionID).Msg("failed to archive turn")
	}
}

// Query returns archived turns matching the filter, newest first.
func (a *TurnArchive) Query(f Filter) ([]ArchivedTurn, error) {
	query := `SELECT session_id, correlation_id, timestamp, raw_input, intent, confidence, success, response, entities, analysis_id
		 FROM turns WHERE 1=1`
	var args []any

	if f.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.Intent != "" {
		query += " AND intent = ?"
		args = append(args, f.Intent)
	}
	if f.Success != nil {
		query += " AND success = ?"
		args = append(args, boolToInt(*f.Success))
	}
	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.Since.UTC().Format(time.DateTime))
	}

	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := a.db.sql.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []ArchivedTurn
	for rows.Next() {
		var t ArchivedTurn
		var ts string
		var success int
		var entitiesJSON sql.NullString
		if err := rows.Scan(
			&t.SessionID, &t.CorrelationID, &ts, &t.RawInput, &t.Intent,
			&t.Confidence, &success, &t.Response, &entitiesJSON, &t.AnalysisID,
		); err != nil {
			continue
		}
		t.Timestamp, _ = time.Parse(time.DateTime, ts)
		t.Success = success != 0
		if entitiesJSON.Valid {
			_ = json.Unmarshal([]byte(entitiesJSON.String), &t.Entities)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SessionSummary aggregates archived activity for one session.
type SessionSummary struct {
	SessionID string    `json:"sessionId"`
	Turns     int       `json:"turns"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Sessions returns per-session summaries, most recently active first.
func (a *TurnArchive) Sessions() ([]SessionSummary, error) {
	rows, err := a.db.sql.Query(
		`SELECT session_id, COUNT(*), MAX(timestamp)
		 FROM turns GROUP BY session_id ORDER BY MAX(timestamp) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var ts string
		if err := rows.Scan(&s.SessionID, &s.Turns, &ts); err != nil {
			continue
		}
		s.LastSeen, _ = time.Parse(time.DateTime, ts)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CountBySession returns the number of archived turns for a session.
func (a *TurnArchive) CountBySession(sessionID string) (int, error) {
	var count int
	err := a.db.sql.QueryRow("SELECT COUNT(*) FROM turns WHERE session_id = ?", sessionID).Scan(&count)
	return count, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
