package config

import "github.com/yoyow-org/yoyow-core-sub001/core/types"

// Governance groups committee/proposal voting policy knobs. They are
// validated when the manifest loads; the node's genesis bootstrap does not
// seed them into native/params.Store.
type Governance struct {
	QuorumBPS        uint32 `yaml:"quorum_bps"`
	PassThresholdBPS uint32 `yaml:"pass_threshold_bps"`
	VotingPeriodSecs uint64 `yaml:"voting_period_seconds"`
}

// Fees groups the genesis default fee schedule, mirroring
// native/params.FeeScheduleParams's default-fee fields.
type Fees struct {
	DefaultBase  types.Share `yaml:"default_base"`
	DefaultPerKB types.Share `yaml:"default_per_kb"`
}

// ContentAward groups the genesis content-award engine parameters,
// mirroring native/params.ContentAwardParams.
type ContentAward struct {
	TotalContentAwardAmount types.Share `yaml:"total_content_award_amount"`
	MinEffectiveCSAF        types.Share `yaml:"min_effective_csaf"`
	PeriodSeconds           uint32      `yaml:"period_seconds"`
}

// Witness groups the genesis witness-schedule parameters, mirroring
// native/params.WitnessParams.
type Witness struct {
	ByVoteTopCount      int    `yaml:"by_vote_top_count"`
	ByVoteRestCount     int    `yaml:"by_vote_rest_count"`
	ByPledgeCount       int    `yaml:"by_pledge_count"`
	SlotIntervalSeconds uint32 `yaml:"slot_interval_seconds"`
	MaxMissedSlots      uint32 `yaml:"max_missed_slots"`
}

// Mempool controls global transaction admission limits.
type Mempool struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Global bundles every genesis-validated chain-parameter subsystem, decoded
// from the genesis manifest's `params` section (see genesis.go).
type Global struct {
	Governance   Governance   `yaml:"governance"`
	Fees         Fees         `yaml:"fees"`
	ContentAward ContentAward `yaml:"content_award"`
	Witness      Witness      `yaml:"witness"`
	Mempool      Mempool      `yaml:"mempool"`
}
