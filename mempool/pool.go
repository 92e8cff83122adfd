// Package mempool holds transactions admitted but not yet included in a
// block: a capacity-bounded pool ordered for proposal assembly by total
// fee (descending), then arrival order. This adapts the teacher's
// mempool/priority.go lane-scheduling shape -- classify, then schedule
// into a single ordered slice a proposer consumes -- from its POS-reserved-
// lane split to a fee-priority-then-FIFO ordering, since this domain has
// no point-of-sale transaction class to reserve scheduling capacity for
// (see DESIGN.md).
package mempool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/yoyow-org/yoyow-core-sub001/config"
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/tx"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/fees"
)

// entry pairs an admitted transaction with the fee it priced at on
// admission, its wire size, and its arrival sequence, so Pending's sort is
// stable without a second pass over the pool.
type entry struct {
	tx   types.SignedTransaction
	fee  types.Share
	size int64
	seq  uint64
}

// Pool is a capacity-bounded, fee-priority-ordered set of pending
// transactions, admitted against a shared *tx.Pipeline (spec §7:
// "transaction invalid ... rejected from mempool/block with a typed
// reason"). Pool enforces two independent admission limits -- a
// transaction count and a total wire-byte budget, the latter mirroring
// the genesis config.Mempool.MaxBytes knob -- either of which, at 0,
// means unbounded. A Pool is safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	pipeline  *tx.Pipeline
	fees      *fees.Schedule
	maxCount  int
	maxBytes  int64
	bytesUsed int64
	nextSeq   uint64
	byID      map[[32]byte]*entry
	order     []*entry
}

// New constructs an empty Pool admitting against pipeline, pricing with
// schedule, and bounded to maxCount pending transactions (0 = unbounded).
// Its byte budget is left unbounded; use NewFromConfig to also enforce a
// genesis-configured config.Mempool.MaxBytes cap.
func New(pipeline *tx.Pipeline, schedule *fees.Schedule, maxCount int) *Pool {
	return &Pool{
		pipeline: pipeline,
		fees:     schedule,
		maxCount: maxCount,
		byID:     make(map[[32]byte]*entry),
	}
}

// NewFromConfig is New plus a total wire-byte budget taken from the
// genesis manifest's config.Mempool section (config.Mempool.Validate
// requires MaxBytes > 0 wherever a mempool section is configured), so a
// node's two admission dimensions -- "how many" and "how much wire data"
// -- are both enforced from the same pool.
func NewFromConfig(pipeline *tx.Pipeline, schedule *fees.Schedule, maxCount int, cfg config.Mempool) *Pool {
	p := New(pipeline, schedule, maxCount)
	p.maxBytes = cfg.MaxBytes
	return p
}

// Add admits signed after running tx.Pipeline.Validate's read-only checks
// (TaPoS, expiration, dedup, authority). It deliberately does not run
// signed's operations, so it cannot catch an evaluator-level failure (e.g.
// insufficient balance) -- a block application catches that,
// authoritatively, when it is actually included.
func (p *Pool) Add(signed types.SignedTransaction) error {
	id, err := p.pipeline.Validate(&signed)
	if err != nil {
		return err
	}
	fee, err := p.totalFee(signed)
	if err != nil {
		return err
	}
	raw, err := rlp.EncodeToBytes(signed)
	if err != nil {
		return fmt.Errorf("mempool: encode transaction: %w", err)
	}
	size := int64(len(raw))

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byID[id]; exists {
		return chainerr.ErrDuplicate
	}
	if p.maxCount > 0 && len(p.order) >= p.maxCount {
		return chainerr.ErrMempoolFull
	}
	if p.maxBytes > 0 && p.bytesUsed+size > p.maxBytes {
		return chainerr.ErrMempoolFull
	}

	e := &entry{tx: signed, fee: fee, size: size, seq: p.nextSeq}
	p.nextSeq++
	p.byID[id] = e
	p.order = append(p.order, e)
	p.bytesUsed += size
	return nil
}

// totalFee sums every operation's set_fee (spec §4.2), the same
// calculation core/tx.Pipeline.applyOperation prices each operation at, so
// pool ordering matches what a proposer actually collects.
func (p *Pool) totalFee(signed types.SignedTransaction) (types.Share, error) {
	var total types.Share
	for _, op := range signed.Operations {
		raw, err := rlp.EncodeToBytes(op)
		if err != nil {
			return 0, err
		}
		opFee, err := fees.SetFee(p.fees, op.Payload, fees.CoreExchangeRate{}, len(raw), 0)
		if err != nil {
			return 0, err
		}
		total, err = sharemath.Add(total, opFee)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Remove drops every id in ids from the pool, once a block including them
// has committed.
func (p *Pool) Remove(ids ...[32]byte) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[[32]byte]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range drop {
		delete(p.byID, id)
	}
	kept := p.order[:0]
	for _, e := range p.order {
		id, err := e.tx.ID()
		if err != nil {
			continue
		}
		if _, dropped := drop[id]; dropped {
			p.bytesUsed -= e.size
			continue
		}
		kept = append(kept, e)
	}
	p.order = kept
}

// Len reports the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// BytesUsed reports the total wire size of every pending transaction.
func (p *Pool) BytesUsed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytesUsed
}

// MaxBytes reports the pool's configured wire-byte budget (0 = unbounded).
func (p *Pool) MaxBytes() int64 { return p.maxBytes }

// MaxCount reports the pool's configured transaction-count cap (0 =
// unbounded).
func (p *Pool) MaxCount() int { return p.maxCount }

// Pending returns up to max pending transactions (max <= 0 means every
// pending transaction), ordered by descending total fee and, within equal
// fees, ascending arrival order.
func (p *Pool) Pending(max int) []types.SignedTransaction {
	p.mu.Lock()
	ordered := make([]*entry, len(p.order))
	copy(ordered, p.order)
	p.mu.Unlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].fee != ordered[j].fee {
			return ordered[i].fee > ordered[j].fee
		}
		return ordered[i].seq < ordered[j].seq
	})

	if max > 0 && max < len(ordered) {
		ordered = ordered[:max]
	}
	out := make([]types.SignedTransaction, len(ordered))
	for i, e := range ordered {
		out[i] = e.tx
	}
	return out
}

// Prune drops every pending transaction whose Expiration is at or before
// headTime (spec §4.7 step 1's chain-level counterpart: once a
// transaction can no longer land in any future block, it no longer
// belongs in the pool either).
func (p *Pool) Prune(headTime uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.order[:0]
	for _, e := range p.order {
		if e.tx.Expiration <= headTime {
			id, err := e.tx.ID()
			if err == nil {
				delete(p.byID, id)
			}
			p.bytesUsed -= e.size
			continue
		}
		kept = append(kept, e)
	}
	p.order = kept
}
