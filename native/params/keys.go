package params

const (
	// ParamsKeyFeeSchedule stores the committee-voted per-operation fee table.
	ParamsKeyFeeSchedule = "chain/fee_schedule"
	// ParamsKeyWitness stores the witness-schedule configuration.
	ParamsKeyWitness = "chain/witness"
	// ParamsKeyContentAward stores the content-award engine configuration.
	ParamsKeyContentAward = "chain/content_award"
	// ParamsKeyMaintenance stores the maintenance-pass cadence configuration.
	ParamsKeyMaintenance = "chain/maintenance"
)
