package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

type widget struct {
	Name  string
	Count int
}

func nameIndex() *Index[widget] {
	return NewIndex[widget](SpaceAccount, 1, true, func(w widget) []byte { return []byte(w.Name) })
}

func TestCreateFindModifyRemove(t *testing.T) {
	s := New(storage.NewMemDB())
	tbl := NewIndexedTable[widget](s, SpaceAccount, nameIndex())

	sess := s.BeginUndoSession()
	id, err := tbl.Create(widget{Name: "alice", Count: 1})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	got, err := tbl.Get(id)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Name)

	byName, ok, err := tbl.FindBy(nameIndex(), []byte("alice"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, byName.Count)

	sess2 := s.BeginUndoSession()
	_, err = tbl.Modify(id, func(w *widget) { w.Count = 2 })
	require.NoError(t, err)
	require.NoError(t, sess2.Commit())

	got, err = tbl.Get(id)
	require.NoError(t, err)
	require.Equal(t, 2, got.Count)

	sess3 := s.BeginUndoSession()
	require.NoError(t, tbl.Remove(id))
	require.NoError(t, sess3.Commit())

	_, ok, err = tbl.Find(id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUndoRestoresBitExactState(t *testing.T) {
	s := New(storage.NewMemDB())
	tbl := NewIndexedTable[widget](s, SpaceAccount, nameIndex())

	sess := s.BeginUndoSession()
	id, err := tbl.Create(widget{Name: "bob", Count: 5})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err = tbl.Modify(id, func(w *widget) { w.Count = 99 })
	require.NoError(t, err)
	require.NoError(t, sess2.Undo())

	got, err := tbl.Get(id)
	require.NoError(t, err)
	require.Equal(t, 5, got.Count, "undo must restore the pre-mutation value")
}

func TestUndoOfCreateRemovesObjectAndIndex(t *testing.T) {
	s := New(storage.NewMemDB())
	tbl := NewIndexedTable[widget](s, SpaceAccount, nameIndex())

	sess := s.BeginUndoSession()
	id, err := tbl.Create(widget{Name: "carol", Count: 1})
	require.NoError(t, err)
	require.NoError(t, sess.Undo())

	_, ok, err := tbl.Find(id)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = tbl.FindBy(nameIndex(), []byte("carol"))
	require.NoError(t, err)
	require.False(t, ok, "undoing a create must also remove its index entries")
}

func TestUniqueIndexRejectsCollision(t *testing.T) {
	s := New(storage.NewMemDB())
	tbl := NewIndexedTable[widget](s, SpaceAccount, nameIndex())

	sess := s.BeginUndoSession()
	_, err := tbl.Create(widget{Name: "dupe", Count: 1})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err = tbl.Create(widget{Name: "dupe", Count: 2})
	require.Error(t, err)
	require.NoError(t, sess2.Undo())
}

func TestCreateWithoutSessionFails(t *testing.T) {
	s := New(storage.NewMemDB())
	tbl := NewIndexedTable[widget](s, SpaceAccount, nameIndex())
	_, err := tbl.Create(widget{Name: "no-session"})
	require.Error(t, err)
}
