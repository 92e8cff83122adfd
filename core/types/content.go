package types

// PostKey identifies a post by the triple the object store indexes it on.
type PostKey struct {
	Platform AccountUID
	Poster   AccountUID
	PID      InstanceID
}

// OriginRef optionally points a forwarded/repost post back at the post it
// forwards, so buyout/license/reward splits can walk to the original.
type OriginRef struct {
	Platform AccountUID
	Poster   AccountUID
	PID      InstanceID
}

// ReceiptorEntry is one line of a post's reward-split table. Ratios are
// basis points of the post's reward pool and, excluding the platform's
// fixed 30% cut, must sum to the remaining 7000 bps.
type ReceiptorEntry struct {
	Account AccountUID
	Ratio   uint32 // basis points
}

// PlatformReceiptorRatio is the fixed platform cut of every post's reward
// pool (spec §3 Post invariant: "platform share = 30%").
const PlatformReceiptorRatio uint32 = 3000

// Post is the content object created by the `post` operation and mutated by
// `post_update`. Score settlement (folding accumulated scores into rewards)
// happens at most once per award period, tracked by ScoreSettlement.
type Post struct {
	Key        PostKey
	Origin     *OriginRef
	Hash       string
	Title      string
	Body       string
	Extra      []byte
	ForwardPrice *Share
	Receiptors []ReceiptorEntry
	LicenseLID *InstanceID
	Permissions uint32 // secondary-authority bitmask: who may reward/comment/buyout
	ScoreSettlement ScoreSettlementState
}

// ScoreSettlementState tracks whether a post's accumulated score for the
// current award period has already been folded into rewards.
type ScoreSettlementState struct {
	PeriodSequence uint32
	Settled        bool
}

// ActivePost is the per-award-period snapshot of a post's score and reward
// activity. The award steps read only rows of the current period; rows of
// earlier periods are not removed.
type ActivePost struct {
	Key            PostKey
	PeriodSequence uint32
	Scores         []InstanceID // Score instance ids recorded this period
	TotalCSAF      Share
	TotalRewards   map[AssetAID]Share
	ReceiptorDetails []ReceiptorEntry
}

// ScoreKey identifies a score edge: one scorer may score a given post once.
type ScoreKey struct {
	FromAccount AccountUID
	Platform    AccountUID
	Poster      AccountUID
	PID         InstanceID
}

// Score is a single scorer's opinion of a post, consumed by the content
// award engine during maintenance and expiring per `approval_expiration`.
type Score struct {
	Key            ScoreKey
	Value          int8 // -5..5
	CSAF           Share
	PeriodSequence uint32
	Profits        Share
	ExpiresAt      uint32 // seconds since epoch
}

// License is a reusable content grant registered by a poster, scoped to a
// platform's monotonically increasing lid space.
type License struct {
	Platform AccountUID
	LID      InstanceID
	Poster   AccountUID
	Type     LicenseType
	Title    string
	Body     string
	Hash     string
}

// RegistrarTakeover redirects billing/attribution for accounts registered
// under OriginalRegistrar to TakeoverRegistrar. Supplemented from
// original_source/libraries/chain/account_evaluator.cpp; spec.md names the
// entity in §3 but the creating operation (a committee decision) is folded
// into account_create's evaluator resolution rather than given its own tag.
type RegistrarTakeover struct {
	OriginalRegistrar AccountUID
	TakeoverRegistrar AccountUID
}

// CSAFLease is a time-boxed delegation of CSAF-accrual rights from one
// account to another.
type CSAFLease struct {
	From       AccountUID
	To         AccountUID
	Amount     Share
	Expiration uint32 // seconds since epoch
}
