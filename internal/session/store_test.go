package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreHoldsOneSessionPerOwner(t *testing.T) {
	st := NewStore()
	_, replaced := st.Put(Session{ID: "a", OwnerID: 1, Stage: StageAwaitingName})
	assert.False(t, replaced)

	prev, replaced := st.Put(Session{ID: "b", OwnerID: 1, Stage: StageAwaitingName})
	require.True(t, replaced)
	assert.Equal(t, "a", prev.ID)
	assert.Equal(t, 1, st.Len())

	got, ok := st.Get(1)
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)
}

func TestStoreCompareAndRemove(t *testing.T) {
	st := NewStore()
	st.Put(Session{ID: "a", OwnerID: 1})
	st.Put(Session{ID: "b", OwnerID: 1})

	assert.False(t, st.CompareAndRemove(1, "a"))
	assert.Equal(t, 1, st.Len())
	assert.True(t, st.CompareAndRemove(1, "b"))
	assert.Zero(t, st.Len())
}

func TestStoreBeginOnlyFromAwaitingName(t *testing.T) {
	st := NewStore()
	st.Put(Session{ID: "a", OwnerID: 1, Stage: StageAwaitingName})

	assert.False(t, st.Begin(1, "other", nil))
	require.True(t, st.Begin(1, "a", nil))
	assert.False(t, st.Begin(1, "a", nil))

	got, _ := st.Get(1)
	assert.Equal(t, StageProcessing, got.Stage)
}

func TestStoreRemoveCancelsTransfer(t *testing.T) {
	st := NewStore()
	st.Put(Session{ID: "a", OwnerID: 1, Stage: StageAwaitingName})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.True(t, st.Begin(1, "a", cancel))

	sess, ok := st.Remove(1)
	require.True(t, ok)
	assert.Equal(t, "a", sess.ID)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	_, ok = st.Remove(1)
	assert.False(t, ok)
}

func TestStoreSetLocalPathMatchesID(t *testing.T) {
	st := NewStore()
	st.Put(Session{ID: "a", OwnerID: 1})

	assert.False(t, st.SetLocalPath(1, "b", "/tmp/x"))
	assert.False(t, st.SetLocalPath(2, "a", "/tmp/x"))
	require.True(t, st.SetLocalPath(1, "a", "/tmp/x"))
	got, _ := st.Get(1)
	assert.Equal(t, "/tmp/x", got.LocalPath)
}
