// Package store persists the consensus-facing witness snapshot: the active
// set a freshly started node needs before the object store (core/store) has
// replayed enough blocks to rebuild consensus/schedule's pools from scratch.
package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// Store persists consensus-related metadata such as the active witness set.
type Store struct {
	db storage.Database
}

// New creates a consensus store backed by the provided database.
func New(db storage.Database) *Store {
	return &Store{db: db}
}

// WitnessSnapshot captures the minimal information consensus/schedule needs
// to rebuild its candidate pools at startup, before the object store has
// replayed the witness table.
type WitnessSnapshot struct {
	UID            types.AccountUID
	SigningKey     []byte
	TotalVotes     types.Share
	AveragePledge  types.Share
	IsValid        bool
}

var activeWitnessSetKey = []byte("consensus/active_witness_set")

// SaveActiveWitnessSet persists the provided witness snapshot list. The
// caller must ensure deterministic ordering of the slice (by UID).
func (s *Store) SaveActiveWitnessSet(witnesses []WitnessSnapshot) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("consensus store uninitialised")
	}
	encoded, err := rlp.EncodeToBytes(witnesses)
	if err != nil {
		return err
	}
	return s.db.Put(activeWitnessSetKey, encoded)
}

// LoadActiveWitnessSet reads back the most recently persisted witness
// snapshot list, or (nil, false, nil) if none has been saved yet.
func (s *Store) LoadActiveWitnessSet() ([]WitnessSnapshot, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("consensus store uninitialised")
	}
	raw, err := s.db.Get(activeWitnessSetKey)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	var witnesses []WitnessSnapshot
	if err := rlp.DecodeBytes(raw, &witnesses); err != nil {
		return nil, false, err
	}
	return witnesses, true, nil
}
