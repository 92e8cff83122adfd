package types

// Event represents a typed event emitted during state transitions.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// EventType implements core/events.Event.
func (e Event) EventType() string { return e.Type }

// Event type tags emitted by core/evaluator (spec §7: transaction results
// include the events each operation raised).
const (
	EventAccountCreated  = "account_created"
	EventTransfer        = "transfer"
	EventPostCreated     = "post_created"
	EventScoreCreated    = "score_created"
	EventRewardCredited  = "reward_credited"
	EventWitnessReported    = "witness_report"
	EventInterContractCall = "inter_contract_call"
)
