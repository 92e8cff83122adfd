package params

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StoreState captures the subset of state manager capabilities required by the
// parameter helpers.
type StoreState interface {
	ParamStoreSet(name string, value []byte) error
	ParamStoreGet(name string) ([]byte, bool, error)
}

// Store provides typed accessors for the committee-voted chain parameters
// (spec §4.4 committee_proposal, applied via native/gov).
type Store struct {
	state StoreState
}

// NewStore constructs a parameter store wrapper using the supplied state
// backend.
func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("params: state not configured")
	}
	return s.state, nil
}

func (s *Store) load(key string, out any) (bool, error) {
	state, err := s.withState()
	if err != nil {
		return false, err
	}
	raw, ok, err := state.ParamStoreGet(key)
	if err != nil {
		return false, err
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("params: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(key string, value any) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("params: encode %s: %w", key, err)
	}
	return state.ParamStoreSet(key, encoded)
}

// FeeSchedule loads the persisted fee schedule. When unset, a zero-value
// schedule is returned (the caller's DefaultFee then governs everything).
func (s *Store) FeeSchedule() (FeeScheduleParams, error) {
	var v FeeScheduleParams
	if _, err := s.load(ParamsKeyFeeSchedule, &v); err != nil {
		return FeeScheduleParams{}, err
	}
	return v, nil
}

// SetFeeSchedule persists a committee-approved fee schedule change.
func (s *Store) SetFeeSchedule(v FeeScheduleParams) error {
	return s.save(ParamsKeyFeeSchedule, v)
}

// WitnessParams loads the persisted witness-schedule configuration.
func (s *Store) WitnessParams() (WitnessParams, error) {
	var v WitnessParams
	if _, err := s.load(ParamsKeyWitness, &v); err != nil {
		return WitnessParams{}, err
	}
	return v, nil
}

// SetWitnessParams persists a committee-approved witness-schedule change.
func (s *Store) SetWitnessParams(v WitnessParams) error {
	return s.save(ParamsKeyWitness, v)
}

// ContentAwardParams loads the persisted content-award engine configuration.
func (s *Store) ContentAwardParams() (ContentAwardParams, error) {
	var v ContentAwardParams
	if _, err := s.load(ParamsKeyContentAward, &v); err != nil {
		return ContentAwardParams{}, err
	}
	return v, nil
}

// SetContentAwardParams persists a committee-approved content-award change.
func (s *Store) SetContentAwardParams(v ContentAwardParams) error {
	return s.save(ParamsKeyContentAward, v)
}

// MaintenanceParams loads the persisted maintenance-pass cadence configuration.
func (s *Store) MaintenanceParams() (MaintenanceParams, error) {
	var v MaintenanceParams
	if _, err := s.load(ParamsKeyMaintenance, &v); err != nil {
		return MaintenanceParams{}, err
	}
	return v, nil
}

// SetMaintenanceParams persists a committee-approved maintenance-cadence change.
func (s *Store) SetMaintenanceParams(v MaintenanceParams) error {
	return s.save(ParamsKeyMaintenance, v)
}
