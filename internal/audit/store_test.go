package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"squad/internal/agent"
	"squad/internal/db"
	"squad/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return NewStore(database)
}

func TestRecordAndTrail(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entries := []agent.TraceEntry{
		{
			Seq:       0,
			Tool:      "shell",
			Arguments: `{"command":"rm -rf build/"}`,
			Verdict: policy.Verdict{
				Allowed: false,
				Reason:  "write/unknown operation blocked under read-only role",
				Class:   policy.ClassWrite,
			},
			Error: "write/unknown operation blocked under read-only role",
			At:    time.Now(),
		},
		{
			Seq:       1,
			Tool:      "grep",
			Arguments: `{"pattern":"TODO"}`,
			Verdict:   policy.Verdict{Allowed: true, Reason: "permitted", Class: policy.ClassRead},
			Executed:  true,
			At:        time.Now(),
		},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, "run-1", e))
	}
	// a different run's entries must not bleed into the trail
	require.NoError(t, store.Record(ctx, "run-2", agent.TraceEntry{
		Seq: 0, Tool: "read_file",
		Verdict: policy.Verdict{Allowed: true, Reason: "permitted", Class: policy.ClassRead},
	}))

	trail, err := store.Trail(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)

	assert.Equal(t, 0, trail[0].Seq)
	assert.Equal(t, "shell", trail[0].Tool)
	assert.Equal(t, "write", trail[0].Class)
	assert.False(t, trail[0].Allowed)
	assert.False(t, trail[0].Executed)
	assert.Equal(t, "write/unknown operation blocked under read-only role", trail[0].Reason)

	assert.Equal(t, 1, trail[1].Seq)
	assert.Equal(t, "grep", trail[1].Tool)
	assert.Equal(t, "read", trail[1].Class)
	assert.True(t, trail[1].Allowed)
	assert.True(t, trail[1].Executed)
}

func TestTrail_UnknownRun(t *testing.T) {
	store := openStore(t)
	trail, err := store.Trail(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestSaveRun_Upsert(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, "run-1", "explore", "running", ""))
	require.NoError(t, store.SaveRun(ctx, "run-1", "explore", "completed", "found three files"))

	var status, summary string
	row := store.conn.QueryRowContext(ctx, "SELECT status, summary FROM runs WHERE id = ?", "run-1")
	require.NoError(t, row.Scan(&status, &summary))
	assert.Equal(t, "completed", status)
	assert.Equal(t, "found three files", summary)
}

func TestRecord_ReplacesSameSeq(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	e := agent.TraceEntry{
		Seq: 0, Tool: "grep",
		Verdict: policy.Verdict{Allowed: true, Reason: "permitted", Class: policy.ClassRead},
	}
	require.NoError(t, store.Record(ctx, "run-1", e))
	e.Executed = true
	e.Error = "tool grep timed out after 1s: context deadline exceeded"
	require.NoError(t, store.Record(ctx, "run-1", e))

	trail, err := store.Trail(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.True(t, trail[0].Executed)
	assert.Contains(t, trail[0].Error, "timed out")
}
