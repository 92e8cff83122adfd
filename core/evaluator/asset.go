package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// CoreAsset is the sentinel AID for the chain's native unit (spec §3:
// "core asset (aid 0)"). Core balances live on AccountStatistics.CoreBalance
// rather than a Balance row for fast-path transfer/fee accounting.
const CoreAsset types.AssetAID = 0

func init() {
	register(types.OpAssetCreate, evalAssetCreate)
	register(types.OpAssetIssue, evalAssetIssue)
	register(types.OpAssetReserve, evalAssetReserve)
	register(types.OpAssetUpdate, evalAssetUpdate)
	register(types.OpAssetClaimFees, evalAssetClaimFees)
	register(types.OpTransfer, evalTransfer)
	register(types.OpOverrideTransfer, evalOverrideTransfer)
}

// debitAsset removes amount of asset from account's holding, core balance
// or a Balance row depending on asset.
func debitAsset(ctx *Context, account types.AccountUID, asset types.AssetAID, amount types.Share) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount: %w", chainerr.ErrEvaluation)
	}
	if asset == CoreAsset {
		stats, ok, err := ctx.Tables.AccountStatisticsByUID(account)
		if err != nil {
			return err
		}
		if !ok || stats.CoreBalance < amount {
			return fmt.Errorf("account %d: insufficient core balance: %w", account, chainerr.ErrEvaluation)
		}
		_, err = ctx.Tables.AccountStatistics.Modify(types.InstanceID(account), func(s *types.AccountStatistics) {
			s.CoreBalance -= amount
		})
		return err
	}
	id, ok, err := ctx.Tables.Balance.FindIDBy(ctx.Tables.BalanceIndex, balanceKeyBytes(account, asset))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %d: no balance row for asset %d: %w", account, asset, chainerr.ErrEvaluation)
	}
	bal, err := ctx.Tables.Balance.Get(id)
	if err != nil {
		return err
	}
	if bal.Amount < amount {
		return fmt.Errorf("account %d: insufficient balance of asset %d: %w", account, asset, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Balance.Modify(id, func(b *types.Balance) { b.Amount -= amount })
	return err
}

// creditAsset adds amount of asset to account's holding, creating the
// Balance row on first credit for a non-core asset.
func creditAsset(ctx *Context, account types.AccountUID, asset types.AssetAID, amount types.Share) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount: %w", chainerr.ErrEvaluation)
	}
	if asset == CoreAsset {
		_, err := ctx.Tables.AccountStatistics.Modify(types.InstanceID(account), func(s *types.AccountStatistics) {
			s.CoreBalance += amount
		})
		return err
	}
	id, ok, err := ctx.Tables.Balance.FindIDBy(ctx.Tables.BalanceIndex, balanceKeyBytes(account, asset))
	if err != nil {
		return err
	}
	if !ok {
		_, err := ctx.Tables.Balance.Create(types.Balance{Owner: account, Asset: asset, Amount: amount})
		return err
	}
	_, err = ctx.Tables.Balance.Modify(id, func(b *types.Balance) { b.Amount += amount })
	return err
}

// debitCredit moves amount of asset from one account's holding to another.
func debitCredit(ctx *Context, from, to types.AccountUID, amount types.Share, asset types.AssetAID) error {
	if err := debitAsset(ctx, from, asset, amount); err != nil {
		return err
	}
	return creditAsset(ctx, to, asset, amount)
}

// CollectFee debits amount of asset from payer and folds it into that
// asset's AccumulatedFees (spec §4.2: the transaction pipeline calls this
// once per operation after native/fees.SetFee has priced it, before the
// operation's own evaluator runs). Unlike debitCredit, the credit side is
// the asset's dynamic-data row, not another account.
func CollectFee(ctx *Context, payer types.AccountUID, asset types.AssetAID, amount types.Share) error {
	if amount == 0 {
		return nil
	}
	if err := debitAsset(ctx, payer, asset, amount); err != nil {
		return fmt.Errorf("fee: %w", err)
	}
	dd, ok, err := ctx.Tables.AssetDynamicDataByAID(asset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("fee: asset %d has no dynamic-data row: %w", asset, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.AssetDynamicData.Modify(types.InstanceID(dd.Asset), func(d *types.AssetDynamicData) {
		d.AccumulatedFees += amount
	})
	return err
}

// CreditReward mints amount of asset directly into account's holding and
// folds the same amount into the asset's CurrentSupply (spec §4.6: content/
// platform award payouts are a new per-period emission, not a
// redistribution of an existing pool, unlike CollectFee above which only
// moves value that already exists). Called by core/maintenance's award
// settlement steps.
func CreditReward(ctx *Context, account types.AccountUID, asset types.AssetAID, amount types.Share) error {
	if amount == 0 {
		return nil
	}
	if amount < 0 {
		return fmt.Errorf("reward: negative amount: %w", chainerr.ErrEvaluation)
	}
	if err := creditAsset(ctx, account, asset, amount); err != nil {
		return fmt.Errorf("reward: %w", err)
	}
	dd, ok, err := ctx.Tables.AssetDynamicDataByAID(asset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reward: asset %d has no dynamic-data row: %w", asset, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.AssetDynamicData.Modify(types.InstanceID(dd.Asset), func(d *types.AssetDynamicData) {
		d.CurrentSupply += amount
	})
	return err
}

func checkAllowedAsset(ctx *Context, account types.AccountUID, asset types.AssetAID) error {
	if asset == CoreAsset {
		return nil
	}
	acc, ok, err := ctx.Tables.Account.Find(types.InstanceID(account))
	if err != nil {
		return err
	}
	if !ok || !acc.AllowedAssetsEnabled {
		return nil
	}
	if _, allowed := acc.AllowedAssets[asset]; !allowed {
		return fmt.Errorf("account %d does not allow incoming asset %d: %w", account, asset, chainerr.ErrEvaluation)
	}
	return nil
}

func evalAssetCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetCreateOp)
	if op.Symbol == "" {
		return fmt.Errorf("asset_create: empty symbol: %w", chainerr.ErrEvaluation)
	}
	if op.MaxSupply <= 0 {
		return fmt.Errorf("asset_create: max_supply must be positive: %w", chainerr.ErrEvaluation)
	}
	id, err := ctx.Tables.Asset.Create(types.Asset{
		Symbol:    op.Symbol,
		Precision: op.Precision,
		Issuer:    op.Issuer,
		Options: types.AssetOptions{
			MaxSupply:             op.MaxSupply,
			CoreExchangeRateBase:  op.CoreExchangeRateBase,
			CoreExchangeRateQuote: op.CoreExchangeRateQuote,
		},
	})
	if err != nil {
		return err
	}
	_, err = ctx.Tables.AssetDynamicData.Create(types.AssetDynamicData{Asset: types.AssetAID(id)})
	return err
}

func evalAssetIssue(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetIssueOp)
	asset, ok, err := ctx.Tables.Asset.Find(types.InstanceID(op.Asset))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset_issue: asset %d not found: %w", op.Asset, chainerr.ErrEvaluation)
	}
	if asset.Issuer != op.Issuer {
		return fmt.Errorf("asset_issue: %d is not the issuer of asset %d: %w", op.Issuer, op.Asset, chainerr.ErrEvaluation)
	}
	dyn, ok, err := ctx.Tables.AssetDynamicDataByAID(op.Asset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset_issue: asset %d has no dynamic data row: %w", op.Asset, chainerr.ErrEvaluation)
	}
	newSupply, err := sharemath.Add(dyn.CurrentSupply, op.Amount)
	if err != nil {
		return err
	}
	if newSupply > asset.Options.MaxSupply {
		return fmt.Errorf("asset_issue: issuing %d would exceed max_supply of asset %d: %w", op.Amount, op.Asset, chainerr.ErrEvaluation)
	}
	if err := checkAllowedAsset(ctx, op.To, op.Asset); err != nil {
		return err
	}
	if _, err := ctx.Tables.AssetDynamicData.Modify(types.InstanceID(op.Asset), func(d *types.AssetDynamicData) {
		d.CurrentSupply = newSupply
	}); err != nil {
		return err
	}
	return creditAsset(ctx, op.To, op.Asset, op.Amount)
}

func evalAssetReserve(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetReserveOp)
	if err := debitAsset(ctx, op.Account, op.Asset, op.Amount); err != nil {
		return err
	}
	dyn, ok, err := ctx.Tables.AssetDynamicDataByAID(op.Asset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset_reserve: asset %d has no dynamic data row: %w", op.Asset, chainerr.ErrEvaluation)
	}
	newSupply, err := sharemath.Sub(dyn.CurrentSupply, op.Amount)
	if err != nil {
		return err
	}
	_, err = ctx.Tables.AssetDynamicData.Modify(types.InstanceID(op.Asset), func(d *types.AssetDynamicData) {
		d.CurrentSupply = newSupply
	})
	return err
}

func evalAssetUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetUpdateOp)
	asset, ok, err := ctx.Tables.Asset.Find(types.InstanceID(op.Asset))
	if err != nil {
		return err
	}
	if !ok || asset.Issuer != op.Issuer {
		return fmt.Errorf("asset_update: %d is not the issuer of asset %d: %w", op.Issuer, op.Asset, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Asset.Modify(types.InstanceID(op.Asset), func(a *types.Asset) {
		if op.CoreExchangeRateBase != nil {
			a.Options.CoreExchangeRateBase = *op.CoreExchangeRateBase
		}
		if op.CoreExchangeRateQuote != nil {
			a.Options.CoreExchangeRateQuote = *op.CoreExchangeRateQuote
		}
	})
	return err
}

func evalAssetClaimFees(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetClaimFeesOp)
	asset, ok, err := ctx.Tables.Asset.Find(types.InstanceID(op.Asset))
	if err != nil {
		return err
	}
	if !ok || asset.Issuer != op.Issuer {
		return fmt.Errorf("asset_claim_fees: %d is not the issuer of asset %d: %w", op.Issuer, op.Asset, chainerr.ErrEvaluation)
	}
	dyn, ok, err := ctx.Tables.AssetDynamicDataByAID(op.Asset)
	if err != nil {
		return err
	}
	if !ok || dyn.AccumulatedFees < op.Amount {
		return fmt.Errorf("asset_claim_fees: asset %d has insufficient accumulated fees: %w", op.Asset, chainerr.ErrEvaluation)
	}
	if _, err := ctx.Tables.AssetDynamicData.Modify(types.InstanceID(op.Asset), func(d *types.AssetDynamicData) {
		d.AccumulatedFees -= op.Amount
	}); err != nil {
		return err
	}
	return creditAsset(ctx, op.Issuer, op.Asset, op.Amount)
}

func evalTransfer(ctx *Context, operation types.Operation) error {
	op := operation.(types.TransferOp)
	fromAccount, ok, err := ctx.Tables.Account.Find(types.InstanceID(op.From))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transfer: sender %d not found: %w", op.From, chainerr.ErrEvaluation)
	}
	if fromAccount.WhitelistStatus&2 != 0 {
		return fmt.Errorf("transfer: sender %d is blacklisted: %w", op.From, chainerr.ErrEvaluation)
	}
	if err := checkAllowedAsset(ctx, op.To, op.Asset); err != nil {
		return err
	}
	if err := debitCredit(ctx, op.From, op.To, op.Amount, op.Asset); err != nil {
		return err
	}
	ctx.emit(types.Event{
		Type: types.EventTransfer,
		Attributes: map[string]string{
			"from":   fmt.Sprintf("%d", op.From),
			"to":     fmt.Sprintf("%d", op.To),
			"asset":  fmt.Sprintf("%d", op.Asset),
			"amount": fmt.Sprintf("%d", op.Amount),
		},
	})
	return nil
}

// evalOverrideTransfer is the issuer-privileged transfer AssetPermOverrideAuthority
// grants: it moves funds between two arbitrary accounts without either
// account's active authority, gated only by the issuer's own signature.
func evalOverrideTransfer(ctx *Context, operation types.Operation) error {
	op := operation.(types.OverrideTransferOp)
	asset, ok, err := ctx.Tables.Asset.Find(types.InstanceID(op.Asset))
	if err != nil {
		return err
	}
	if !ok || asset.Issuer != op.Issuer {
		return fmt.Errorf("override_transfer: %d is not the issuer of asset %d: %w", op.Issuer, op.Asset, chainerr.ErrEvaluation)
	}
	if asset.Options.Flags&types.AssetPermOverrideAuthority == 0 {
		return fmt.Errorf("override_transfer: asset %d does not permit override transfer: %w", op.Asset, chainerr.ErrEvaluation)
	}
	return debitCredit(ctx, op.From, op.To, op.Amount, op.Asset)
}
