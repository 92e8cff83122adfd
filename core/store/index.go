package store

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// KeyFunc derives a secondary-index key from an object's fields. Per spec
// §4.1, "secondary indices declare their key as a pure function of the
// object fields" — it must not depend on anything outside obj.
type KeyFunc[T any] func(obj T) []byte

// Index is one secondary index over a table: a unique-key -> instance id
// mapping kept in lock-step with the owning IndexedTable.
type Index[T any] struct {
	space  Space
	tag    byte
	keyOf  KeyFunc[T]
	unique bool
}

// NewIndex declares an index. unique=true rejects Create/Modify that would
// collide an existing key with a different instance (e.g. Account.Name).
func NewIndex[T any](space Space, tag byte, unique bool, keyOf KeyFunc[T]) *Index[T] {
	return &Index[T]{space: space, tag: tag, keyOf: keyOf, unique: unique}
}

func (ix *Index[T]) storeKey(k []byte) []byte {
	return indexKey(ix.space, ix.tag, k)
}

// IndexedTable composes a Table with zero or more secondary indices,
// re-evaluating every index on every Create/Modify/Remove as required by
// §4.1. This is the API evaluators use; the bare Table in table.go exists
// for tables with no secondary lookups (e.g. BlockSummary).
type IndexedTable[T any] struct {
	table   *Table[T]
	store   *Store
	indices []*Index[T]
}

// NewIndexedTable binds a table and its secondary indices.
func NewIndexedTable[T any](s *Store, space Space, indices ...*Index[T]) *IndexedTable[T] {
	return &IndexedTable[T]{table: NewTable[T](s, space), store: s, indices: indices}
}

func (it *IndexedTable[T]) checkUnique(obj T, skip types.InstanceID, hasSkip bool) error {
	for _, ix := range it.indices {
		if !ix.unique {
			continue
		}
		k := ix.storeKey(ix.keyOf(obj))
		raw, err := it.store.db.Get(k)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return err
		}
		var existing types.InstanceID
		if err := decodeInstanceID(raw, &existing); err != nil {
			return err
		}
		if hasSkip && existing == skip {
			continue
		}
		return fmt.Errorf("store: unique index violation: %w", chainerr.ErrAlreadyExists)
	}
	return nil
}

// Create inserts obj and populates every declared index, failing the whole
// operation (no partial index writes survive, since it runs inside the
// caller's undo session) if a unique index would collide.
func (it *IndexedTable[T]) Create(obj T) (types.InstanceID, error) {
	if err := it.checkUnique(obj, 0, false); err != nil {
		return 0, err
	}
	sess, err := it.store.activeSession()
	if err != nil {
		return 0, err
	}
	id, err := it.table.Create(obj)
	if err != nil {
		return 0, err
	}
	if err := it.writeIndices(sess, id, obj); err != nil {
		return 0, err
	}
	return id, nil
}

func (it *IndexedTable[T]) writeIndices(sess *Session, id types.InstanceID, obj T) error {
	for _, ix := range it.indices {
		k := ix.storeKey(ix.keyOf(obj))
		raw := encodeInstanceID(id)
		if err := it.store.db.Put(k, raw); err != nil {
			return err
		}
		sess.record(undoOp{kind: undoRemove, space: ix.space, key: k})
	}
	return nil
}

func (it *IndexedTable[T]) removeIndices(sess *Session, obj T) error {
	for _, ix := range it.indices {
		k := ix.storeKey(ix.keyOf(obj))
		prior, err := it.store.db.Get(k)
		if err != nil {
			return err
		}
		if err := it.store.db.Delete(k); err != nil {
			return err
		}
		sess.record(undoOp{kind: undoRestore, space: ix.space, key: k, prior: prior})
	}
	return nil
}

// Find/Get/All delegate to the underlying table.
func (it *IndexedTable[T]) Find(id types.InstanceID) (T, bool, error) { return it.table.Find(id) }
func (it *IndexedTable[T]) Get(id types.InstanceID) (T, error)        { return it.table.Get(id) }
func (it *IndexedTable[T]) All(fn func(id types.InstanceID, obj T) error) error {
	return it.table.All(fn)
}

// FindBy looks an object up through a declared index.
func (it *IndexedTable[T]) FindBy(ix *Index[T], key []byte) (T, bool, error) {
	id, ok, err := it.FindIDBy(ix, key)
	if err != nil || !ok {
		var zero T
		return zero, ok, err
	}
	return it.table.Find(id)
}

// FindIDBy resolves the instance id an index key currently points at,
// without decoding the underlying object — callers that need to Modify
// the row (rather than just read it) use this to get an id FindBy doesn't
// expose.
func (it *IndexedTable[T]) FindIDBy(ix *Index[T], key []byte) (types.InstanceID, bool, error) {
	raw, err := it.store.db.Get(ix.storeKey(key))
	if err != nil {
		if err == storage.ErrNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	var id types.InstanceID
	if err := decodeInstanceID(raw, &id); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Modify re-derives every index from the pre- and post-mutation object: any
// index whose key changed is deleted and rewritten, matching §4.1 "on every
// modify all indices are re-evaluated for the object."
func (it *IndexedTable[T]) Modify(id types.InstanceID, mutator func(*T)) (T, error) {
	var zero T
	before, ok, err := it.table.Find(id)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("store: modify %d: %w", id, chainerr.ErrNotFound)
	}
	sess, err := it.store.activeSession()
	if err != nil {
		return zero, err
	}
	after, err := it.table.Modify(id, mutator)
	if err != nil {
		return zero, err
	}
	if err := it.checkUnique(after, id, true); err != nil {
		return zero, err
	}
	for _, ix := range it.indices {
		oldKey := ix.keyOf(before)
		newKey := ix.keyOf(after)
		if string(oldKey) == string(newKey) {
			continue
		}
		if err := it.removeOneIndex(sess, ix, oldKey); err != nil {
			return zero, err
		}
		if err := it.writeOneIndex(sess, ix, newKey, id); err != nil {
			return zero, err
		}
	}
	return after, nil
}

func (it *IndexedTable[T]) removeOneIndex(sess *Session, ix *Index[T], key []byte) error {
	k := ix.storeKey(key)
	prior, err := it.store.db.Get(k)
	if err != nil {
		return err
	}
	if err := it.store.db.Delete(k); err != nil {
		return err
	}
	sess.record(undoOp{kind: undoRestore, space: ix.space, key: k, prior: prior})
	return nil
}

func (it *IndexedTable[T]) writeOneIndex(sess *Session, ix *Index[T], key []byte, id types.InstanceID) error {
	k := ix.storeKey(key)
	if err := it.store.db.Put(k, encodeInstanceID(id)); err != nil {
		return err
	}
	sess.record(undoOp{kind: undoRemove, space: ix.space, key: k})
	return nil
}

// Remove deletes obj and every index entry pointing at it.
func (it *IndexedTable[T]) Remove(id types.InstanceID) error {
	obj, ok, err := it.table.Find(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store: remove %d: %w", id, chainerr.ErrNotFound)
	}
	sess, err := it.store.activeSession()
	if err != nil {
		return err
	}
	if err := it.removeIndices(sess, obj); err != nil {
		return err
	}
	return it.table.Remove(id)
}

func encodeInstanceID(id types.InstanceID) []byte {
	return []byte(fmt.Sprintf("%020d", uint64(id)))
}

func decodeInstanceID(raw []byte, out *types.InstanceID) error {
	var v uint64
	if _, err := fmt.Sscanf(string(raw), "%020d", &v); err != nil {
		return fmt.Errorf("store: decode instance id: %w", err)
	}
	*out = types.InstanceID(v)
	return nil
}
