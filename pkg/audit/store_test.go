package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledReturnsNilStore(t *testing.T) {
	s, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestNew_RejectsMissingPath(t *testing.T) {
	_, err := New(Config{Enabled: true})
	assert.Error(t, err)
}

func TestStore_AppendAndRecent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	s, err := New(Config{Enabled: true, Path: dbPath})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Record{
		ConnectionID: "conn-1",
		Peer:         "127.0.0.1:5001",
		Command:      "get",
		Status:       0,
		Filename:     "a.txt",
		Offset:       0,
		Size:         128,
	}))
	require.NoError(t, s.Append(ctx, Record{
		ConnectionID: "conn-1",
		Peer:         "127.0.0.1:5001",
		Command:      "listing",
		Status:       0,
	}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "listing", recent[0].Command)
	assert.Equal(t, "get", recent[1].Command)
	assert.False(t, recent[0].CreatedAt.IsZero())
}

func TestStore_ForConnection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	s, err := New(Config{Enabled: true, Path: dbPath})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Record{ConnectionID: "conn-a", Command: "get"}))
	require.NoError(t, s.Append(ctx, Record{ConnectionID: "conn-b", Command: "get"}))
	require.NoError(t, s.Append(ctx, Record{ConnectionID: "conn-a", Command: "quit"}))

	records, err := s.ForConnection(ctx, "conn-a")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "get", records[0].Command)
	assert.Equal(t, "quit", records[1].Command)
}

func TestStore_NilStoreIsNoOp(t *testing.T) {
	var s *Store
	ctx := context.Background()

	assert.NoError(t, s.Append(ctx, Record{}))
	recent, err := s.Recent(ctx, 10)
	assert.NoError(t, err)
	assert.Nil(t, recent)
	assert.NoError(t, s.Close())
}
