package types

// AssetPermission is a bitmask of operations the issuer may perform or
// delegate; AssetFlags is the subset currently active. Flags must always be
// a subset of Permissions.
type AssetPermission uint32

const (
	AssetPermCharge AssetPermission = 1 << iota
	AssetPermWhiteList
	AssetPermOverrideAuthority
	AssetPermTransferRestricted
	AssetPermDisableConfidential
)

// AssetPermissionMask is the full set of bits a valid options.permissions
// or options.flags value may occupy.
const AssetPermissionMask = AssetPermCharge | AssetPermWhiteList | AssetPermOverrideAuthority | AssetPermTransferRestricted | AssetPermDisableConfidential

// AssetOptions bundles the issuer-mutable configuration of an asset.
type AssetOptions struct {
	MaxSupply             Share
	Flags                 AssetPermission
	Permissions           AssetPermission
	MarketFeePercent      uint32 // basis points
	MaxMarketFee          Share
	CoreExchangeRateBase  Share
	CoreExchangeRateQuote Share
}

// AssetDynamicData holds the mutable counters split out of Asset so the
// issuer-signed option changes don't collide in the undo stack with
// every-block supply/fee bookkeeping.
type AssetDynamicData struct {
	Asset          AssetAID
	CurrentSupply  Share
	AccumulatedFees Share
}

// Asset is the essential, rarely-mutated identity object for a fungible
// asset type. Core asset (aid 0) is the chain's native unit and has no
// issuer authority checks on transfer.
type Asset struct {
	AID       AssetAID
	Symbol    string
	Precision uint8
	Issuer    AccountUID
	Options   AssetOptions
}
