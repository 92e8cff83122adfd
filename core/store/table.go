package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// Table is a typed view over one object space. Object encoding is plain
// encoding/json: spec §6 only fixes the transaction/block wire format and
// leaves "the on-disk representation... not specified here beyond"
// replay-determinism, so table blobs need not match the RLP wire codec.
type Table[T any] struct {
	store *Store
	space Space
}

// NewTable binds a typed table to space on store.
func NewTable[T any](s *Store, space Space) *Table[T] {
	return &Table[T]{store: s, space: space}
}

// Create allocates a new instance id, stores init, and records the
// session's inverse-remove. The caller-visible id is returned so it can be
// embedded back into init's key field before any secondary index write.
func (t *Table[T]) Create(init T) (types.InstanceID, error) {
	sess, err := t.store.activeSession()
	if err != nil {
		return 0, err
	}
	id := t.store.NextInstanceID(t.space)
	key := tableKey(t.space, id)
	raw, err := json.Marshal(init)
	if err != nil {
		return 0, fmt.Errorf("store: encode %T: %w", init, err)
	}
	if err := t.store.db.Put(key, raw); err != nil {
		return 0, err
	}
	sess.record(undoOp{kind: undoRemove, space: t.space, key: key})
	return id, nil
}

// SetAt writes obj at id unconditionally, whether or not a row was already
// there — unlike Create, the caller assigns id itself. This backs
// caller-keyed spaces that aren't sequence-allocated object tables: the
// block-summary ring buffer (keyed by ref_block_num mod window size) and
// the single-row DynamicGlobalProperties singleton (always id 0).
func (t *Table[T]) SetAt(id types.InstanceID, obj T) error {
	sess, err := t.store.activeSession()
	if err != nil {
		return err
	}
	key := tableKey(t.space, id)
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("store: encode %T: %w", obj, err)
	}
	prior, getErr := t.store.db.Get(key)
	if getErr != nil && getErr != storage.ErrNotFound {
		return getErr
	}
	if err := t.store.db.Put(key, raw); err != nil {
		return err
	}
	if getErr == storage.ErrNotFound {
		sess.record(undoOp{kind: undoRemove, space: t.space, key: key})
	} else {
		sess.record(undoOp{kind: undoRestore, space: t.space, key: key, prior: prior})
	}
	return nil
}

// Find returns the object at id, or (zero, false, nil) if absent.
func (t *Table[T]) Find(id types.InstanceID) (T, bool, error) {
	var out T
	raw, err := t.store.db.Get(tableKey(t.space, id))
	if err != nil {
		if err == storage.ErrNotFound {
			return out, false, nil
		}
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("store: decode %T: %w", out, err)
	}
	return out, true, nil
}

// Get is Find but fails if the object is absent, matching the spec's
// get<T>(id) "fails if absent" contract.
func (t *Table[T]) Get(id types.InstanceID) (T, error) {
	out, ok, err := t.Find(id)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, fmt.Errorf("store: instance %d: %w", id, chainerr.ErrNotFound)
	}
	return out, nil
}

// Modify loads the current object, serializes it onto the undo stack,
// applies mutator, and persists the result. mutator receives a pointer to a
// decoded copy; secondary indices must be re-derived by the caller (the
// store has no built-in index registry — callers that need one compose
// Table with an Index, see index.go).
func (t *Table[T]) Modify(id types.InstanceID, mutator func(*T)) (T, error) {
	var zero T
	sess, err := t.store.activeSession()
	if err != nil {
		return zero, err
	}
	key := tableKey(t.space, id)
	prior, err := t.store.db.Get(key)
	if err != nil {
		return zero, fmt.Errorf("store: modify %d: %w", id, chainerr.ErrNotFound)
	}
	var obj T
	if err := json.Unmarshal(prior, &obj); err != nil {
		return zero, fmt.Errorf("store: decode %T: %w", obj, err)
	}
	mutator(&obj)
	raw, err := json.Marshal(obj)
	if err != nil {
		return zero, fmt.Errorf("store: encode %T: %w", obj, err)
	}
	if err := t.store.db.Put(key, raw); err != nil {
		return zero, err
	}
	sess.record(undoOp{kind: undoRestore, space: t.space, key: key, prior: prior})
	return obj, nil
}

// All calls fn for every row currently in the table, in key (instance-id)
// order, stopping and returning fn's error if it returns one. Maintenance
// steps that sweep a whole table for due/expired rows (spec §4.7) have no
// secondary index to look through, so they scan directly; grounded on the
// same storage.Database.IteratePrefix the transaction-dedup-window expiry
// sweep already uses (core/store/store.go ExpiredTransactionIDs).
func (t *Table[T]) All(fn func(id types.InstanceID, obj T) error) error {
	return t.store.db.IteratePrefix([]byte{byte(t.space)}, func(key, value []byte) error {
		if len(key) != 1+8 {
			return nil
		}
		var obj T
		if err := json.Unmarshal(value, &obj); err != nil {
			return fmt.Errorf("store: decode %T: %w", obj, err)
		}
		id := types.InstanceID(binary.BigEndian.Uint64(key[1:]))
		return fn(id, obj)
	})
}

// Remove serializes obj onto the undo stack and deletes it from the table.
func (t *Table[T]) Remove(id types.InstanceID) error {
	sess, err := t.store.activeSession()
	if err != nil {
		return err
	}
	key := tableKey(t.space, id)
	prior, err := t.store.db.Get(key)
	if err != nil {
		return fmt.Errorf("store: remove %d: %w", id, chainerr.ErrNotFound)
	}
	if err := t.store.db.Delete(key); err != nil {
		return err
	}
	sess.record(undoOp{kind: undoRestore, space: t.space, key: key, prior: prior})
	return nil
}
