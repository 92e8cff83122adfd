// Package store implements the object store and undo stack (spec §4.1):
// typed tables over a persistent key-value Database, secondary indices kept
// in lock-step with table mutation, and a LIFO undo-session stack that
// restores bit-exact prior state on failure.
//
// The design mirrors the teacher's storage.Database-backed persistence
// layer (storage/db.go) but adds the table/undo-session discipline the
// teacher's trie-based core/state package doesn't need: this chain's state
// is a set of plain indexed tables, not a Merkle-Patricia trie (see
// DESIGN.md for why storage/trie was dropped).
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// Space separates object tables on disk the way spaces/types separate
// table namespaces in the host-function interface (§6). Each table gets a
// stable one-byte space id.
type Space byte

const (
	SpaceAccount Space = iota
	SpaceAccountStatistics
	SpaceBalance
	SpaceAsset
	SpaceAssetDynamicData
	SpaceWitness
	SpaceCommitteeMember
	SpacePlatform
	SpaceVoter
	SpaceVote
	SpaceCSAFLease
	SpaceProposal
	SpaceCommitteeProposal
	SpacePost
	SpaceActivePost
	SpaceScore
	SpaceLicense
	SpaceRegistrarTakeover
	SpaceBlockSummary
	SpaceDynamicGlobalProperties
	SpaceParams
	SpaceSeenTransaction
	SpaceScheduleState
)

// paramKey namespaces a committee-voted parameter's raw key within
// SpaceParams, reusing tableKey's space-prefix layout with the parameter
// name's bytes in place of an InstanceID.
func paramKey(name string) []byte {
	return append([]byte{byte(SpaceParams)}, []byte(name)...)
}

// ParamStoreGet implements native/params.StoreState, backing the
// committee-voted chain-parameter accessors (native/params.Store) with the
// same undo-tracked key-value space every other table uses.
func (s *Store) ParamStoreGet(name string) ([]byte, bool, error) {
	raw, err := s.db.Get(paramKey(name))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// ParamStoreSet implements native/params.StoreState.
func (s *Store) ParamStoreSet(name string, value []byte) error {
	key := paramKey(name)
	sess, err := s.activeSession()
	if err != nil {
		return err
	}
	prior, getErr := s.db.Get(key)
	if getErr != nil && getErr != storage.ErrNotFound {
		return getErr
	}
	if getErr == storage.ErrNotFound {
		sess.record(undoOp{kind: undoRemove, space: SpaceParams, key: key})
	} else {
		sess.record(undoOp{kind: undoRestore, space: SpaceParams, key: key, prior: prior})
	}
	return s.db.Put(key, value)
}

// seenTxKey namespaces a transaction id within SpaceSeenTransaction; the
// stored value is its expiration time (4-byte big-endian seconds), letting
// maintenance's expired-transaction sweep (spec §4.7 step 1) find entries
// to forget without tracking a separate index.
func seenTxKey(id [32]byte) []byte {
	return append([]byte{byte(SpaceSeenTransaction)}, id[:]...)
}

// MarkTransactionSeen records id in the dedup window with the transaction's
// own expiration time. core/tx rejects any transaction whose id is already
// present here (spec: "deduplicates by id").
func (s *Store) MarkTransactionSeen(id [32]byte, expiration uint32) error {
	sess, err := s.activeSession()
	if err != nil {
		return err
	}
	key := seenTxKey(id)
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, expiration)
	prior, getErr := s.db.Get(key)
	if getErr != nil && getErr != storage.ErrNotFound {
		return getErr
	}
	if getErr == storage.ErrNotFound {
		sess.record(undoOp{kind: undoRemove, space: SpaceSeenTransaction, key: key})
	} else {
		sess.record(undoOp{kind: undoRestore, space: SpaceSeenTransaction, key: key, prior: prior})
	}
	return s.db.Put(key, value)
}

// TransactionSeen reports whether id is still within the dedup window.
func (s *Store) TransactionSeen(id [32]byte) (bool, error) {
	_, err := s.db.Get(seenTxKey(id))
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ForgetTransaction drops id from the dedup window (maintenance step 1,
// once its expiration has passed).
func (s *Store) ForgetTransaction(id [32]byte) error {
	sess, err := s.activeSession()
	if err != nil {
		return err
	}
	key := seenTxKey(id)
	prior, err := s.db.Get(key)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return err
	}
	if err := s.db.Delete(key); err != nil {
		return err
	}
	sess.record(undoOp{kind: undoRestore, space: SpaceSeenTransaction, key: key, prior: prior})
	return nil
}

// ExpiredTransactionIDs scans the dedup window for every id whose recorded
// expiration is at or before headTime.
func (s *Store) ExpiredTransactionIDs(headTime uint32) ([][32]byte, error) {
	var out [][32]byte
	err := s.db.IteratePrefix([]byte{byte(SpaceSeenTransaction)}, func(key, value []byte) error {
		if len(key) != 1+32 || len(value) != 4 {
			return nil
		}
		if binary.BigEndian.Uint32(value) > headTime {
			return nil
		}
		var id [32]byte
		copy(id[:], key[1:])
		out = append(out, id)
		return nil
	})
	return out, err
}

// undoOp is one inverse action recorded on the active session: enough to
// restore the table+indices to their pre-mutation state.
type undoOp struct {
	kind  undoKind
	space Space
	key   []byte
	prior []byte // nil for a create's inverse (inverse is "remove")
}

type undoKind int

const (
	undoRemove undoKind = iota // object was created; undo removes it
	undoRestore                // object was modified or removed; undo restores prior bytes
)

// Session is one level of the undo stack. Sessions nest: a transaction
// session wraps one session per operation; a block session wraps one
// session per transaction.
type Session struct {
	store *Store
	ops   []undoOp
	open  bool
}

// Store is the object store. It is not safe for concurrent mutation — the
// block/transaction pipeline serializes all writers through the single
// state lock described in spec §5.
type Store struct {
	db       storage.Database
	sessions []*Session
	seq      map[Space]uint64 // next InstanceID to assign per space
}

// New constructs a Store backed by db. Callers load any persisted sequence
// counters via LoadSequences before accepting writes.
func New(db storage.Database) *Store {
	return &Store{db: db, seq: make(map[Space]uint64)}
}

func tableKey(space Space, id types.InstanceID) []byte {
	key := make([]byte, 1+8)
	key[0] = byte(space)
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}

func indexKey(space Space, indexTag byte, parts ...[]byte) []byte {
	key := []byte{byte(space), indexTag}
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// BeginUndoSession pushes a new session onto the stack; all mutations until
// the matching Commit or Undo are recorded against it.
func (s *Store) BeginUndoSession() *Session {
	sess := &Session{store: s, open: true}
	s.sessions = append(s.sessions, sess)
	return sess
}

// SessionDepth returns the number of currently open undo sessions, for
// callers that report it as a metrics gauge.
func (s *Store) SessionDepth() int {
	return len(s.sessions)
}

// Commit pops sess if it is the top of the stack. Committing does not merge
// its ops into the parent automatically — callers that want nested undo to
// also unwind an outer session must keep the outer session open and only
// commit the innermost one on success.
func (s *Session) Commit() error {
	if err := s.requireTop(); err != nil {
		return err
	}
	s.store.sessions = s.store.sessions[:len(s.store.sessions)-1]
	s.open = false
	return nil
}

// Undo pops sess and replays its inverse operations in LIFO order,
// restoring bit-exact prior state.
func (s *Session) Undo() error {
	if err := s.requireTop(); err != nil {
		return err
	}
	for i := len(s.ops) - 1; i >= 0; i-- {
		op := s.ops[i]
		var err error
		switch op.kind {
		case undoRemove:
			err = s.store.db.Delete(op.key)
		case undoRestore:
			err = s.store.db.Put(op.key, op.prior)
		}
		if err != nil {
			return fmt.Errorf("store: undo replay failed: %w", err)
		}
	}
	s.store.sessions = s.store.sessions[:len(s.store.sessions)-1]
	s.open = false
	return nil
}

func (s *Session) requireTop() error {
	if !s.open {
		return chainerr.ErrNoActiveSession
	}
	top := s.store.sessions[len(s.store.sessions)-1]
	if top != s {
		return fmt.Errorf("store: session is not the active undo session: %w", chainerr.ErrNoActiveSession)
	}
	return nil
}

func (s *Session) record(op undoOp) {
	s.ops = append(s.ops, op)
}

func (s *Store) activeSession() (*Session, error) {
	if len(s.sessions) == 0 {
		return nil, chainerr.ErrNoActiveSession
	}
	return s.sessions[len(s.sessions)-1], nil
}

// NextInstanceID allocates the next id in space, never reused after a
// remove (spec §3 "Ownership": internal instance ids are never reused).
func (s *Store) NextInstanceID(space Space) types.InstanceID {
	id := s.seq[space]
	s.seq[space] = id + 1
	return types.InstanceID(id)
}
