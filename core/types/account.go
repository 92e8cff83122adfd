package types

// Authority is a weighted threshold of keys and account references. A
// signature set satisfies an authority when the summed weight of the keys
// and accounts it can vouch for meets or exceeds Threshold.
type Authority struct {
	Threshold uint32
	Keys      map[string]uint32     // compressed secp256k1 pubkey (hex) -> weight
	Accounts  map[AccountUID]uint32 // account uid -> weight
}

// NewAuthority returns an empty authority with the given threshold.
func NewAuthority(threshold uint32) Authority {
	return Authority{
		Threshold: threshold,
		Keys:      make(map[string]uint32),
		Accounts:  make(map[AccountUID]uint32),
	}
}

// Clone returns a deep copy so callers never hold a reference across a
// store Modify call.
func (a Authority) Clone() Authority {
	out := Authority{Threshold: a.Threshold, Keys: make(map[string]uint32, len(a.Keys)), Accounts: make(map[AccountUID]uint32, len(a.Accounts))}
	for k, v := range a.Keys {
		out.Keys[k] = v
	}
	for k, v := range a.Accounts {
		out.Accounts[k] = v
	}
	return out
}

// RegistrarInfo tracks the referral chain that created an account.
type RegistrarInfo struct {
	Registrar               AccountUID
	Referrer                AccountUID
	RegistrarPercent        uint32 // basis points of the referral fee kept by the registrar
	ReferrerPercent         uint32
	LifetimeReferrer        AccountUID
	LifetimeReferrerPercent uint32
}

// Permission flags on an account. These gate which operations an account
// may be the subject of irrespective of authority weight (e.g. whether it
// may register other accounts).
type Permission uint32

const (
	PermissionCanVote Permission = 1 << iota
	PermissionIsRegistrar
	PermissionIsFullMember
	PermissionIsPlatform
)

// Has reports whether the permission set contains flag.
func (p Permission) Has(flag Permission) bool { return p&flag != 0 }

// Account is the essential, application-visible identity object. See
// AccountStatistics for balances and accrual state.
type Account struct {
	UID         AccountUID
	Name        string
	Owner       Authority
	Active      Authority
	Secondary   Authority
	MemoKey     string // hex-encoded compressed pubkey
	RegInfo     RegistrarInfo
	Permissions Permission

	AllowedAssetsEnabled bool // account_enable_allowed_assets: opt into an allow-list gate on incoming transfers
	AllowedAssets        map[AssetAID]struct{}
	WhitelistStatus      uint8 // bitmask set by account_whitelist: 1=whitelisted, 2=blacklisted

	AuthorizedPlatforms map[AccountUID]Share // platform -> CSAF spend limit granted via account_auth_platform
}

// AccountStatistics is the 1:1 mutable counterpart to Account: balances,
// accrual counters, and pledge totals. Splitting it from Account keeps the
// identity object (rarely modified) out of the undo stack's hot path.
type AccountStatistics struct {
	Owner AccountUID

	CoreBalance Share // authoritative core-asset balance, mirrored into the Balance table for uniformity
	Prepaid     Share // CSAF converted to spendable prepaid
	CSAF        Share // accrued coin-seconds-as-fee, not yet collected

	LeasedIn  Share
	LeasedOut Share

	CoinSecondsEarned     Share // lazily accrued, capped by the accumulate window
	CoinSecondsLastUpdate int64

	WitnessPledge   PledgeState
	CommitteePledge PledgeState
	PlatformPledge  PledgeState

	LastWitnessSequence   uint64
	LastCommitteeSequence uint64
	LastPlatformSequence  uint64
	LastPostSequence      uint64
	LastLicenseSequence   uint64

	IsVoter bool
}

// PledgeState tracks a bonded stake behind a governance role, plus any
// portion currently in its unbonding window.
type PledgeState struct {
	Total        Share
	Releasing    Share
	ReleaseBlock uint64 // block at which Releasing becomes spendable
}

// Available returns the unencumbered (non-releasing) portion of the pledge.
func (p PledgeState) Available() Share { return p.Total - p.Releasing }

// Balance is a non-core asset holding. Core-asset balances live directly on
// AccountStatistics.CoreBalance for fast-path transfer/fee accounting.
type Balance struct {
	Owner  AccountUID
	Asset  AssetAID
	Amount Share
}
