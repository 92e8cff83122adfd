package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/hostfn"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

var _ hostfn.Context = (*Context)(nil)

func init() {
	register(types.OpInlineTransfer, evalInlineTransfer)
	register(types.OpInterContractCall, evalInterContractCall)
}

// GetCoreBalance, GetBalance, Transfer and Emit implement core/hostfn.Context,
// the narrow surface a WASM contract execution is given — balance reads, one
// transfer primitive, and an event sink — rather than raw Store/Tables
// access (spec §6: the sandbox itself is an external collaborator, this is
// just the interface it calls through).
func (c *Context) GetCoreBalance(account types.AccountUID) (types.Share, error) {
	stats, ok, err := c.Tables.AccountStatisticsByUID(account)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("hostfn: account %d not found: %w", account, chainerr.ErrEvaluation)
	}
	return stats.CoreBalance, nil
}

func (c *Context) GetBalance(account types.AccountUID, asset types.AssetAID) (types.Share, error) {
	if asset == CoreAsset {
		return c.GetCoreBalance(account)
	}
	bal, ok, err := c.Tables.FindBalance(account, asset)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return bal.Amount, nil
}

func (c *Context) Transfer(from, to types.AccountUID, asset types.AssetAID, amount types.Share) error {
	return debitCredit(c, from, to, amount, asset)
}

func (c *Context) Emit(event types.Event) {
	c.emit(event)
}

// evalInlineTransfer applies a fund movement a running contract issued
// through its host-function Transfer call (spec §6): unlike a user-signed
// transfer, authority over From is the VM's own invariant (the contract
// only ever moves funds it already holds), not something this evaluator
// re-checks.
func evalInlineTransfer(ctx *Context, operation types.Operation) error {
	op := operation.(types.InlineTransferOp)
	if err := checkAllowedAsset(ctx, op.To, op.Asset); err != nil {
		return err
	}
	if err := debitCredit(ctx, op.From, op.To, op.Amount, op.Asset); err != nil {
		return err
	}
	ctx.emit(types.Event{
		Type: types.EventTransfer,
		Attributes: map[string]string{
			"caller": fmt.Sprintf("%d", op.Caller),
			"from":   fmt.Sprintf("%d", op.From),
			"to":     fmt.Sprintf("%d", op.To),
			"asset":  fmt.Sprintf("%d", op.Asset),
			"amount": fmt.Sprintf("%d", op.Amount),
		},
	})
	return nil
}

// evalInterContractCall records that Caller invoked Callee through the host
// function interface; it does not itself move funds or run Method — the
// sandbox resolves the call's effects (balance changes, further emitted
// operations) before this record is appended, matching how the op's doc
// comment distinguishes "contract-originated, not user-signed" operations
// from the ones a transaction signer submits directly.
func evalInterContractCall(ctx *Context, operation types.Operation) error {
	op := operation.(types.InterContractCallOp)
	if _, ok, err := ctx.Tables.Account.Find(types.InstanceID(op.Callee)); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("inter_contract_call: callee %d not found: %w", op.Callee, chainerr.ErrEvaluation)
	}
	ctx.emit(types.Event{
		Type: types.EventInterContractCall,
		Attributes: map[string]string{
			"caller": fmt.Sprintf("%d", op.Caller),
			"callee": fmt.Sprintf("%d", op.Callee),
			"method": op.Method,
		},
	})
	return nil
}
