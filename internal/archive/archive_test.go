package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TurnsTableExists(t *testing.T) {
	db := testDB(t)

	var name string
	err := db.sql.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='turns'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "turns", name)
}

// --- Turn archive tests ---

func sampleTurn(intent string, success bool) domain.ConversationTurn {
	return domain.ConversationTurn{
		Timestamp:     time.Now().UTC(),
		CorrelationID: "corr-" + intent,
		RawInput:      "show me " + intent,
		Intent:        intent,
		Confidence:    0.82,
		Success:       success,
		Response:      "done",
		Entities:      domain.Entities{domain.EntityTimePeriod: "quarter"},
	}
}

func TestTurnArchive_AppendAndQuery(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	arch.Append("sess-1", sampleTurn(domain.IntentAnalytics, true))
	arch.Append("sess-1", sampleTurn(domain.IntentImpact, false))
	arch.Append("sess-2", sampleTurn(domain.IntentAnalytics, true))

	turns, err := arch.Query(Filter{SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// Newest first
	assert.Equal(t, domain.IntentImpact, turns[0].Intent)
	assert.Equal(t, domain.IntentAnalytics, turns[1].Intent)
	assert.Equal(t, "quarter", turns[1].Entities.String(domain.EntityTimePeriod))
	assert.Equal(t, 0.82, turns[1].Confidence)
}

func TestTurnArchive_QueryByIntent(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	arch.Append("sess-1", sampleTurn(domain.IntentAnalytics, true))
	arch.Append("sess-1", sampleTurn(domain.IntentImpact, true))

	turns, err := arch.Query(Filter{Intent: domain.IntentImpact})
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, domain.IntentImpact, turns[0].Intent)
}

func TestTurnArchive_QueryBySuccess(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	arch.Append("sess-1", sampleTurn(domain.IntentAnalytics, true))
	arch.Append("sess-1", sampleTurn(domain.IntentImpact, false))

	failed := false
	turns, err := arch.Query(Filter{Success: &failed})
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, domain.IntentImpact, turns[0].Intent)
	assert.False(t, turns[0].Success)
}

func TestTurnArchive_QuerySince(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	old := sampleTurn(domain.IntentAnalytics, true)
	old.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	arch.Append("sess-1", old)
	arch.Append("sess-1", sampleTurn(domain.IntentImpact, true))

	turns, err := arch.Query(Filter{Since: time.Now().UTC().Add(-time.Hour)})
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, domain.IntentImpact, turns[0].Intent)
}

func TestTurnArchive_QueryLimit(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	for i := 0; i < 5; i++ {
		arch.Append("sess-1", sampleTurn(domain.IntentAnalytics, true))
	}

	turns, err := arch.Query(Filter{SessionID: "sess-1", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, turns, 3)
}

func TestTurnArchive_QueryEmpty(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	turns, err := arch.Query(Filter{SessionID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestTurnArchive_CountBySession(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	arch.Append("sess-1", sampleTurn(domain.IntentAnalytics, true))
	arch.Append("sess-1", sampleTurn(domain.IntentImpact, true))
	arch.Append("sess-2", sampleTurn(domain.IntentAnalytics, true))

	count, err := arch.CountBySession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTurnArchive_Sessions(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	arch.Append("sess-1", sampleTurn(domain.IntentAnalytics, true))
	arch.Append("sess-1", sampleTurn(domain.IntentImpact, true))
	arch.Append("sess-2", sampleTurn(domain.IntentAnalytics, false))

	summaries, err := arch.Sessions()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]SessionSummary{}
	for _, s := range summaries {
		byID[s.SessionID] = s
	}
	assert.Equal(t, 2, byID["sess-1"].Turns)
	assert.Equal(t, 1, byID["sess-2"].Turns)
	assert.False(t, byID["sess-1"].LastSeen.IsZero())
}

func TestTurnArchive_DefaultsTimestamp(t *testing.T) {
	arch := NewTurnArchive(testDB(t))

	turn := sampleTurn(domain.IntentAnalytics, true)
	turn.Timestamp = time.Time{}
	arch.Append("sess-1", turn)

	turns, err := arch.Query(Filter{SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Timestamp.IsZero())
}
