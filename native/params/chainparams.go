package params

import "github.com/yoyow-org/yoyow-core-sub001/core/types"

// FeeScheduleParams is the committee-voted per-operation fee table (spec
// §4.2 calculate_fee/set_fee), serialized as the payload of a
// CommitteeItemFeeSchedule proposal item.
type FeeScheduleParams struct {
	DefaultBase  types.Share
	DefaultPerKB types.Share
	Fees         map[types.OpTag]OpFeeParams
}

// OpFeeParams mirrors native/fees.OpFee in a form safe for JSON encoding
// (OpTag keys must round-trip through a map, so this stays a plain struct
// rather than importing native/fees directly and risking an import cycle).
type OpFeeParams struct {
	Base  types.Share
	PerKB types.Share
}

// WitnessParams is the committee-voted witness-schedule configuration
// (spec §4.5): pool sizes, slot timing, and the missed-slot threshold that
// clears a witness's signing key.
type WitnessParams struct {
	ByVoteTopCount      int
	ByVoteRestCount     int
	ByPledgeCount       int
	SlotIntervalSeconds uint32
	MaxMissedSlots      uint32
	PledgeReleaseDelayBlocks uint64
}

// ContentAwardParams is the committee-voted content-award engine
// configuration (spec §4.6). Its first eight fields map 1:1 onto
// native/award.Params; the platform-award fields and PeriodSeconds have no
// counterpart there.
type ContentAwardParams struct {
	TotalContentAwardAmount   types.Share
	MinEffectiveCSAF          types.Share
	CSAFModulusBps            uint32
	ReceiptorAwardModulusBps  uint32
	DisapproveAwardModulusBps uint32
	ApprovalCSAFFirstRateBps  uint32
	ApprovalCSAFSecondRateBps uint32
	ApprovalCSAFMinWeightBps  uint32

	PlatformAwardTotal        types.Share
	PlatformAwardBasicRate    types.Share
	PlatformAwardMinVotes     types.Share
	PlatformAwardRequestedRank int

	// PeriodSeconds is the award-settlement cadence: maintenance settles
	// both the content pool and the platform-voted pool in a block whose
	// head time is an exact multiple of this interval (spec §4.6's "award
	// period"). A multiple that falls on a missed slot is not settled; the
	// period stays open until a block lands on a later multiple.
	PeriodSeconds uint32
}

// MaintenanceParams controls the cadence of the core/maintenance steps that
// are not purely per-block (spec §4.7): governance vote expiration, budget
// adjust interval, committee update interval, and schedule-rebuild cadence.
type MaintenanceParams struct {
	GovernanceVotingExpirationBlocks uint32
	VoteCleanupBatchSize             int
	BudgetAdjustIntervalBlocks       uint32
	BudgetAdjustTargetBps            uint32
	CommitteeUpdateIntervalBlocks    uint32
	ScheduleRebuildIntervalBlocks    uint32
	InvariantCheckIntervalBlocks     uint32
	BlocksPerYear                    uint64
}

// RegistrarTakeoverParams is the payload for a CommitteeItemRegistrarTakeover
// proposal item: committee-approved reassignment of a registrar's managed
// accounts to a new registrar (original_source supplement, see SPEC_FULL.md).
type RegistrarTakeoverParams struct {
	OldRegistrar types.AccountUID
	NewRegistrar types.AccountUID
}
