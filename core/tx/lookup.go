package tx

import (
	"github.com/yoyow-org/yoyow-core-sub001/core/authority"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// allSecondaryPermissions is granted to any account whose secondary
// authority has at least one key or account reference. The operations spec
// §4.3 lists as securable by a secondary authority ("content/forward/liked/
// buyout/comment/reward/transfer/post/content_update") are an all-or-
// nothing tier here: nothing in the operation set exposes a finer-grained
// per-permission toggle on the account object itself, so a configured
// secondary authority covers the whole list rather than a subset of it.
const allSecondaryPermissions = authority.SecondaryPermContent |
	authority.SecondaryPermForward |
	authority.SecondaryPermLiked |
	authority.SecondaryPermBuyout |
	authority.SecondaryPermComment |
	authority.SecondaryPermReward |
	authority.SecondaryPermTransfer |
	authority.SecondaryPermPost |
	authority.SecondaryPermContentUpdate

// accountLookup implements authority.Lookup directly over the object store,
// the way the running node resolves an authority graph without a second
// in-memory index (spec §4.3's Lookup is deliberately an interface so
// authority resolution stays testable against a fake; this is the real
// implementation).
type accountLookup struct {
	tables *evaluator.Tables
}

func (l accountLookup) account(uid types.AccountUID) (types.Account, bool) {
	acc, ok, err := l.tables.Account.Find(types.InstanceID(uid))
	if err != nil || !ok {
		return types.Account{}, false
	}
	return acc, true
}

func (l accountLookup) Owner(uid types.AccountUID) (types.Authority, bool) {
	acc, ok := l.account(uid)
	if !ok {
		return types.Authority{}, false
	}
	return acc.Owner, true
}

func (l accountLookup) Active(uid types.AccountUID) (types.Authority, bool) {
	acc, ok := l.account(uid)
	if !ok {
		return types.Authority{}, false
	}
	return acc.Active, true
}

func (l accountLookup) Secondary(uid types.AccountUID) (types.Authority, authority.SecondaryPermission, bool) {
	acc, ok := l.account(uid)
	if !ok {
		return types.Authority{}, 0, false
	}
	perms := authority.SecondaryPermission(0)
	if len(acc.Secondary.Keys) > 0 || len(acc.Secondary.Accounts) > 0 {
		perms = allSecondaryPermissions
	}
	return acc.Secondary, perms, true
}
