package config

import "fmt"

// MinVotingPeriodSeconds is the shortest committee-proposal voting window
// genesis configuration is allowed to set.
var MinVotingPeriodSeconds = uint64(3600)

// Validate checks the governance subsystem's internal consistency.
func (g Governance) Validate() error {
	if g.QuorumBPS < g.PassThresholdBPS {
		return fmt.Errorf("governance: quorum_bps < pass_threshold_bps")
	}
	if g.VotingPeriodSecs < MinVotingPeriodSeconds {
		return fmt.Errorf("governance: voting_period_seconds too small")
	}
	return nil
}

// Validate checks the fee subsystem's internal consistency.
func (f Fees) Validate() error {
	if f.DefaultBase < 0 || f.DefaultPerKB < 0 {
		return fmt.Errorf("fees: default_base/default_per_kb must be >= 0")
	}
	return nil
}

// Validate checks the content-award subsystem's internal consistency.
func (c ContentAward) Validate() error {
	if c.TotalContentAwardAmount < 0 || c.MinEffectiveCSAF < 0 {
		return fmt.Errorf("content_award: amounts must be >= 0")
	}
	if c.PeriodSeconds == 0 {
		return fmt.Errorf("content_award: period_seconds must be > 0")
	}
	return nil
}

// Validate checks the witness-schedule subsystem's internal consistency.
func (w Witness) Validate() error {
	if w.ByVoteTopCount <= 0 {
		return fmt.Errorf("witness: by_vote_top_count must be > 0")
	}
	if w.ByVoteRestCount < 0 || w.ByPledgeCount < 0 {
		return fmt.Errorf("witness: pool sizes must be >= 0")
	}
	if w.SlotIntervalSeconds == 0 {
		return fmt.Errorf("witness: slot_interval_seconds must be > 0")
	}
	return nil
}

// Validate checks the mempool subsystem's internal consistency.
func (m Mempool) Validate() error {
	if m.MaxBytes <= 0 {
		return fmt.Errorf("mempool: max_bytes <= 0")
	}
	return nil
}

// Validate runs every subsystem's Validate in turn, stopping at the first
// failure so the caller gets one clear, attributable error.
func (g Global) Validate() error {
	if err := g.Governance.Validate(); err != nil {
		return err
	}
	if err := g.Fees.Validate(); err != nil {
		return err
	}
	if err := g.ContentAward.Validate(); err != nil {
		return err
	}
	if err := g.Witness.Validate(); err != nil {
		return err
	}
	if err := g.Mempool.Validate(); err != nil {
		return err
	}
	return nil
}
