package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func init() {
	register(types.OpAccountCreate, evalAccountCreate)
	register(types.OpAccountManage, evalAccountManage)
	register(types.OpAccountUpdateKey, evalAccountUpdateKey)
	register(types.OpAccountUpdateAuth, evalAccountUpdateAuth)
	register(types.OpAccountUpdateProxy, evalAccountUpdateProxy)
	register(types.OpAccountAuthPlatform, evalAccountAuthPlatform)
	register(types.OpAccountCancelAuthPlatform, evalAccountCancelAuthPlatform)
	register(types.OpAccountEnableAllowedAssets, evalAccountEnableAllowedAssets)
	register(types.OpAccountUpdateAllowedAssets, evalAccountUpdateAllowedAssets)
	register(types.OpAccountWhitelist, evalAccountWhitelist)
}

// resolveRegistrar applies a pending registrar-takeover redirect (§3
// RegistrarTakeover, supplemented from original_source's account
// evaluator) in place of the operation's stated registrar.
func resolveRegistrar(ctx *Context, registrar types.AccountUID) (types.AccountUID, error) {
	takeover, ok, err := ctx.Tables.RegistrarTakeover.FindBy(ctx.Tables.RegistrarTakeoverIndex, accountUIDBytes(registrar))
	if err != nil {
		return 0, err
	}
	if !ok {
		return registrar, nil
	}
	return takeover.TakeoverRegistrar, nil
}

func evalAccountCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountCreateOp)
	if op.Name == "" {
		return fmt.Errorf("account_create: empty name: %w", chainerr.ErrEvaluation)
	}
	if op.RefPercent > 10_000 {
		return fmt.Errorf("account_create: referrer percent out of range: %w", chainerr.ErrEvaluation)
	}

	registrar, err := resolveRegistrar(ctx, op.Registrar)
	if err != nil {
		return err
	}
	registrarAccount, ok, err := ctx.Tables.Account.Find(types.InstanceID(registrar))
	if err != nil {
		return err
	}
	if !ok || !registrarAccount.Permissions.Has(types.PermissionIsRegistrar) {
		return fmt.Errorf("account_create: registrar %d is not permitted to register accounts: %w", registrar, chainerr.ErrEvaluation)
	}

	lifetimeReferrer := op.Referrer
	lifetimeReferrerPercent := op.RefPercent
	if referrerAccount, ok, err := ctx.Tables.Account.Find(types.InstanceID(op.Referrer)); err == nil && ok {
		if referrerAccount.RegInfo.LifetimeReferrer != 0 {
			lifetimeReferrer = referrerAccount.RegInfo.LifetimeReferrer
			lifetimeReferrerPercent = referrerAccount.RegInfo.LifetimeReferrerPercent
		}
	} else if err != nil {
		return err
	}

	account := types.Account{
		Name:      op.Name,
		Owner:     op.Owner,
		Active:    op.Active,
		Secondary: op.Secondary,
		MemoKey:   op.MemoKey,
		RegInfo: types.RegistrarInfo{
			Registrar:               registrar,
			Referrer:                op.Referrer,
			RegistrarPercent:        10_000 - op.RefPercent,
			ReferrerPercent:         op.RefPercent,
			LifetimeReferrer:        lifetimeReferrer,
			LifetimeReferrerPercent: lifetimeReferrerPercent,
		},
		Permissions: types.PermissionCanVote,
	}
	id, err := ctx.Tables.Account.Create(account)
	if err != nil {
		return err
	}
	if _, err := ctx.Tables.AccountStatistics.Create(types.AccountStatistics{Owner: types.AccountUID(id)}); err != nil {
		return err
	}
	ctx.emit(types.Event{
		Type: types.EventAccountCreated,
		Attributes: map[string]string{
			"account":  fmt.Sprintf("%d", id),
			"name":     op.Name,
			"registrar": fmt.Sprintf("%d", registrar),
		},
	})
	return nil
}

func evalAccountManage(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountManageOp)
	_, _, err := ctx.Tables.Account.Find(types.InstanceID(op.Account))
	if err != nil {
		return err
	}
	if op.Permissions == nil {
		return nil
	}
	_, err = ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		a.Permissions = *op.Permissions
	})
	return err
}

func evalAccountUpdateKey(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountUpdateKeyOp)
	_, err := ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		a.MemoKey = op.MemoKey
	})
	return err
}

func evalAccountUpdateAuth(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountUpdateAuthOp)
	_, err := ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		if op.Owner != nil {
			a.Owner = *op.Owner
		}
		if op.Active != nil {
			a.Active = *op.Active
		}
		if op.Secondary != nil {
			a.Secondary = *op.Secondary
		}
	})
	return err
}

func evalAccountUpdateProxy(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountUpdateProxyOp)

	lookup := accountVoterLookup{ctx: ctx}
	if cyclic := detectProxyCycle(op.Account, op.Proxy, lookup); cyclic {
		return fmt.Errorf("account_update_proxy: proxy chain would cycle: %w", chainerr.ErrEvaluation)
	}

	id, ok, err := ctx.Tables.Voter.FindIDBy(ctx.Tables.VoterOwnerIndex, accountUIDBytes(op.Account))
	if err != nil {
		return err
	}
	if !ok {
		v := types.Voter{UID: op.Account, IsValid: true}
		v.ProxyUID = op.Proxy
		v.ProxyLastVoteBlock[0] = ctx.HeadBlock
		v.EffectiveLastVoteBlock = ctx.HeadBlock
		_, err := ctx.Tables.Voter.Create(v)
		return err
	}

	_, err = ctx.Tables.Voter.Modify(id, func(v *types.Voter) {
		v.ProxyUID = op.Proxy
		v.ProxySequence++
		if op.Proxy != types.ProxyToSelf {
			v.WitnessesVoted, v.CommitteeVoted, v.PlatformsVoted = 0, 0, 0
		}
		v.ProxyLastVoteBlock[0] = ctx.HeadBlock
		v.EffectiveLastVoteBlock = ctx.HeadBlock
	})
	return err
}

type accountVoterLookup struct{ ctx *Context }

func (l accountVoterLookup) Voter(uid types.AccountUID) (types.Voter, bool) {
	v, ok, err := l.ctx.Tables.VoterByAccount(uid)
	if err != nil {
		return types.Voter{}, false
	}
	return v, ok
}

// detectProxyCycle mirrors native/voter.DetectCycle's contract locally so
// this file doesn't need to depend on that package's unexported walk.
func detectProxyCycle(start, newProxy types.AccountUID, lookup accountVoterLookup) bool {
	if newProxy == types.ProxyToSelf {
		return false
	}
	if newProxy == start {
		return true
	}
	seen := map[types.AccountUID]bool{start: true}
	cur := newProxy
	for depth := 0; depth <= types.MaxGovernanceVotingProxyLevel; depth++ {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		v, ok := lookup.Voter(cur)
		if !ok || v.ProxyUID == types.ProxyToSelf {
			return false
		}
		cur = v.ProxyUID
	}
	return true
}

func evalAccountAuthPlatform(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountAuthPlatformOp)
	_, err := ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		if a.AuthorizedPlatforms == nil {
			a.AuthorizedPlatforms = make(map[types.AccountUID]types.Share)
		}
		a.AuthorizedPlatforms[op.Platform] = op.Limit
	})
	return err
}

func evalAccountCancelAuthPlatform(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountCancelAuthPlatformOp)
	_, err := ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		delete(a.AuthorizedPlatforms, op.Platform)
	})
	return err
}

func evalAccountEnableAllowedAssets(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountEnableAllowedAssetsOp)
	_, err := ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		a.AllowedAssetsEnabled = op.Enable
		if op.Enable && a.AllowedAssets == nil {
			a.AllowedAssets = make(map[types.AssetAID]struct{})
		}
	})
	return err
}

func evalAccountUpdateAllowedAssets(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountUpdateAllowedAssetsOp)
	_, err := ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		if a.AllowedAssets == nil {
			a.AllowedAssets = make(map[types.AssetAID]struct{})
		}
		for _, aid := range op.Add {
			a.AllowedAssets[aid] = struct{}{}
		}
		for _, aid := range op.Remove {
			delete(a.AllowedAssets, aid)
		}
	})
	return err
}

func evalAccountWhitelist(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountWhitelistOp)
	authorizer, ok, err := ctx.Tables.Account.Find(types.InstanceID(op.Authorizer))
	if err != nil {
		return err
	}
	if !ok || !authorizer.Permissions.Has(types.PermissionIsRegistrar) {
		return fmt.Errorf("account_whitelist: authorizer %d may not set whitelist status: %w", op.Authorizer, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Account.Modify(types.InstanceID(op.AccountToList), func(a *types.Account) {
		a.WhitelistStatus = op.NewListing
	})
	return err
}
