package types

// Identifiers are 64-bit throughout the object store. Application-visible
// stable ids (AccountUID, AssetAID) are distinct from the internal instance
// ids the store assigns objects within a table.

// AccountUID is the stable, application-visible identifier of an account.
type AccountUID uint64

// AssetAID is the stable, application-visible identifier of an asset.
type AssetAID uint64

// InstanceID is the internal identifier the object store assigns within a
// single table. It is never exposed across a hard fork boundary and never
// reused after a `remove`.
type InstanceID uint64

// Share is a signed 64-bit quantity of an asset. Intermediate arithmetic
// (fee computation, reward splits, pledge deltas) uses 128-bit-safe helpers
// in core/sharemath to avoid overflow before narrowing back to Share.
type Share int64

// ProxyToSelf is the sentinel proxy uid meaning "this voter votes directly".
const ProxyToSelf AccountUID = 0

// NoAsset is the sentinel for "no license/content/forward" (origin pid 0).
const NoAsset = 0
