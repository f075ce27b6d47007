package sessions

import (
	"testing"
	"time"

	"codeberg.org/qapilot/server/internal/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AppendTurnsGrowsHistory(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	session, err := m.CreateSession()
	require.NoError(t, err)
	assert.Len(t, session.ID, 32)

	require.NoError(t, m.AppendTurns(session.ID, "QA",
		agent.Message{Role: "user", Content: "hi"},
		agent.Message{Role: "assistant", Content: "hello"},
	))
	require.NoError(t, m.AppendTurns(session.ID, "",
		agent.Message{Role: "user", Content: "again"},
	))

	got, ok := m.GetSession(session.ID)
	require.True(t, ok)

	assert.Len(t, got.History, 3)
	assert.Equal(t, "again", got.History[2].Content)
	assert.Equal(t, "QA", got.Environment)

	// snapshots are independent of the stored session
	got.History[0].Content = "mutated"
	again, _ := m.GetSession(session.ID)
	assert.Equal(t, "hi", again.History[0].Content)
}

func TestManager_UnknownAndExpired(t *testing.T) {
	m := NewManager(time.Millisecond)
	defer m.Close()

	assert.ErrorIs(t, m.AppendTurns("missing", ""), ErrSessionNotFound)

	session, err := m.CreateSession()
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, ok := m.GetSession(session.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, m.AppendTurns(session.ID, ""), ErrSessionExpired)
	assert.Equal(t, 0, m.GetSessionCount())
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	first, err := m.GetOrCreate("")
	require.NoError(t, err)

	same, err := m.GetOrCreate(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, same.ID)

	other, err := m.GetOrCreate("unknown")
	require.NoError(t, err)
	assert.NotEqual(t, "unknown", other.ID)
	assert.Equal(t, 2, m.GetSessionCount())
}

func TestManager_RemoveExpired(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	_, err := m.CreateSession()
	require.NoError(t, err)

	m.removeExpired(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, m.GetSessionCount())
}
