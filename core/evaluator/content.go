package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func init() {
	register(types.OpPost, evalPost)
	register(types.OpPostUpdate, evalPostUpdate)
	register(types.OpScoreCreate, evalScoreCreate)
	register(types.OpReward, evalReward)
	register(types.OpRewardProxy, evalRewardProxy)
	register(types.OpBuyout, evalBuyout)
	register(types.OpLicenseCreate, evalLicenseCreate)
	register(types.OpCSAFCollect, evalCSAFCollect)
	register(types.OpCSAFLease, evalCSAFLease)
}

func evalPost(ctx *Context, operation types.Operation) error {
	op := operation.(types.PostOp)
	platform, ok, err := ctx.Tables.PlatformByAccount(op.Platform)
	if err != nil {
		return err
	}
	if !ok || !platform.IsValid {
		return fmt.Errorf("post: %d is not an active platform: %w", op.Platform, chainerr.ErrEvaluation)
	}
	key := types.PostKey{Platform: op.Platform, Poster: op.Poster, PID: op.PostPID}
	if _, exists, err := ctx.Tables.FindPost(key); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("post: pid %d already used by poster %d on platform %d: %w", op.PostPID, op.Poster, op.Platform, chainerr.ErrEvaluation)
	}

	post := types.Post{
		Key:   key,
		Hash:  op.Hash,
		Title: op.Title,
		Body:  op.Body,
		Extra: op.Extra,
		Receiptors: []types.ReceiptorEntry{
			{Account: op.Platform, Ratio: types.PlatformReceiptorRatio},
			{Account: op.Poster, Ratio: 10_000 - types.PlatformReceiptorRatio},
		},
	}
	if op.OriginPoster != types.NoAsset {
		post.Origin = &types.OriginRef{Platform: op.Platform, Poster: op.OriginPoster, PID: op.OriginPID}
	}
	if _, err := ctx.Tables.Post.Create(post); err != nil {
		return err
	}
	if _, err := ctx.Tables.ActivePost.Create(types.ActivePost{
		Key:          key,
		TotalRewards: make(map[types.AssetAID]types.Share),
	}); err != nil {
		return err
	}
	ctx.emit(types.Event{
		Type: types.EventPostCreated,
		Attributes: map[string]string{
			"platform": fmt.Sprintf("%d", op.Platform),
			"poster":   fmt.Sprintf("%d", op.Poster),
			"pid":      fmt.Sprintf("%d", op.PostPID),
		},
	})
	return nil
}

func evalPostUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.PostUpdateOp)
	key := types.PostKey{Platform: op.Platform, Poster: op.Poster, PID: op.PostPID}
	id, ok, err := ctx.Tables.Post.FindIDBy(ctx.Tables.PostKeyIndex, postKeyBytes(key))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post_update: post %+v does not exist: %w", key, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Post.Modify(id, func(p *types.Post) {
		if op.Hash != nil {
			p.Hash = *op.Hash
		}
		if op.Title != nil {
			p.Title = *op.Title
		}
		if op.Body != nil {
			p.Body = *op.Body
		}
		if op.Receiptor != nil {
			found := false
			for i := range p.Receiptors {
				if p.Receiptors[i].Account == *op.Receiptor {
					found = true
					break
				}
			}
			if !found {
				p.Receiptors = append(p.Receiptors, types.ReceiptorEntry{Account: *op.Receiptor})
			}
		}
	})
	return err
}

// evalScoreCreate records a scorer's opinion of a post and folds its CSAF
// contribution into the post's rolling ActivePost accumulator; the award
// payout itself is computed by native/award during maintenance, not here
// (spec §4.6: scores accumulate through a period, settle once at its end).
func evalScoreCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.ScoreCreateOp)
	if op.Score < -5 || op.Score > 5 {
		return fmt.Errorf("score_create: score %d out of range: %w", op.Score, chainerr.ErrEvaluation)
	}
	postKey := types.PostKey{Platform: op.Platform, Poster: op.Poster, PID: op.PostPID}
	post, ok, err := ctx.Tables.FindPost(postKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("score_create: post %+v does not exist: %w", postKey, chainerr.ErrEvaluation)
	}
	if post.ScoreSettlement.Settled {
		return fmt.Errorf("score_create: post's current award period already settled: %w", chainerr.ErrEvaluation)
	}

	scoreKey := types.ScoreKey{FromAccount: op.Scorer, Platform: op.Platform, Poster: op.Poster, PID: op.PostPID}
	if _, exists, err := ctx.Tables.FindScore(scoreKey); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("score_create: scorer %d already scored this post in the current period: %w", op.Scorer, chainerr.ErrEvaluation)
	}

	score := types.Score{Key: scoreKey, Value: int8(op.Score), CSAF: op.CSAF, PeriodSequence: post.ScoreSettlement.PeriodSequence}
	scoreID, err := ctx.Tables.Score.Create(score)
	if err != nil {
		return err
	}

	activeID, activeOK, err := ctx.Tables.ActivePost.FindIDBy(ctx.Tables.ActivePostIndex, postKeyBytes(postKey))
	if err != nil {
		return err
	}
	if !activeOK {
		return fmt.Errorf("score_create: post %+v has no active-period accumulator: %w", postKey, chainerr.ErrEvaluation)
	}
	if _, err := ctx.Tables.ActivePost.Modify(activeID, func(a *types.ActivePost) {
		a.Scores = append(a.Scores, scoreID)
		total, addErr := sharemath.Add(a.TotalCSAF, op.CSAF)
		if addErr == nil {
			a.TotalCSAF = total
		}
	}); err != nil {
		return err
	}
	ctx.emit(types.Event{
		Type: types.EventScoreCreated,
		Attributes: map[string]string{
			"platform": fmt.Sprintf("%d", op.Platform),
			"poster":   fmt.Sprintf("%d", op.Poster),
			"pid":      fmt.Sprintf("%d", op.PostPID),
			"scorer":   fmt.Sprintf("%d", op.Scorer),
			"score":    fmt.Sprintf("%d", op.Score),
		},
	})
	return nil
}

func evalReward(ctx *Context, operation types.Operation) error {
	op := operation.(types.RewardOp)
	postKey := types.PostKey{Platform: op.Platform, Poster: op.Poster, PID: op.PostPID}
	if _, ok, err := ctx.Tables.FindPost(postKey); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("reward: post %+v does not exist: %w", postKey, chainerr.ErrEvaluation)
	}
	if err := debitAsset(ctx, op.FromAccount, op.Asset, op.Amount); err != nil {
		return err
	}
	if err := creditActivePostReward(ctx, postKey, op.Asset, op.Amount); err != nil {
		return err
	}
	emitRewardCredited(ctx, postKey, op.Asset, op.Amount)
	return nil
}

// evalRewardProxy is reward funded from a platform's CSAF-spend
// authorization on the paying account (account_auth_platform), rather than
// a direct asset debit.
func evalRewardProxy(ctx *Context, operation types.Operation) error {
	op := operation.(types.RewardProxyOp)
	postKey := types.PostKey{Platform: op.Platform, Poster: op.Poster, PID: op.PostPID}
	if _, ok, err := ctx.Tables.FindPost(postKey); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("reward_proxy: post %+v does not exist: %w", postKey, chainerr.ErrEvaluation)
	}
	payer, ok, err := ctx.Tables.Account.Find(types.InstanceID(op.FromAccount))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reward_proxy: account %d not found: %w", op.FromAccount, chainerr.ErrEvaluation)
	}
	limit, authorized := payer.AuthorizedPlatforms[op.Platform]
	if !authorized || limit < op.Amount {
		return fmt.Errorf("reward_proxy: platform %d not authorized for %d CSAF by account %d: %w", op.Platform, op.Amount, op.FromAccount, chainerr.ErrEvaluation)
	}
	stats, ok, err := ctx.Tables.AccountStatisticsByUID(op.FromAccount)
	if err != nil {
		return err
	}
	if !ok || stats.CSAF < op.Amount {
		return fmt.Errorf("reward_proxy: account %d has insufficient CSAF: %w", op.FromAccount, chainerr.ErrEvaluation)
	}
	if _, err := ctx.Tables.AccountStatistics.Modify(types.InstanceID(op.FromAccount), func(s *types.AccountStatistics) {
		s.CSAF -= op.Amount
	}); err != nil {
		return err
	}
	if _, err := ctx.Tables.Account.Modify(types.InstanceID(op.FromAccount), func(a *types.Account) {
		a.AuthorizedPlatforms[op.Platform] -= op.Amount
	}); err != nil {
		return err
	}
	if err := creditActivePostReward(ctx, postKey, 0, op.Amount); err != nil {
		return err
	}
	emitRewardCredited(ctx, postKey, 0, op.Amount)
	return nil
}

func emitRewardCredited(ctx *Context, key types.PostKey, asset types.AssetAID, amount types.Share) {
	ctx.emit(types.Event{
		Type: types.EventRewardCredited,
		Attributes: map[string]string{
			"platform": fmt.Sprintf("%d", key.Platform),
			"poster":   fmt.Sprintf("%d", key.Poster),
			"pid":      fmt.Sprintf("%d", key.PID),
			"asset":    fmt.Sprintf("%d", asset),
			"amount":   fmt.Sprintf("%d", amount),
		},
	})
}

func creditActivePostReward(ctx *Context, key types.PostKey, asset types.AssetAID, amount types.Share) error {
	id, ok, err := ctx.Tables.ActivePost.FindIDBy(ctx.Tables.ActivePostIndex, postKeyBytes(key))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post %+v has no active-period accumulator: %w", key, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.ActivePost.Modify(id, func(a *types.ActivePost) {
		if a.TotalRewards == nil {
			a.TotalRewards = make(map[types.AssetAID]types.Share)
		}
		sum, addErr := sharemath.Add(a.TotalRewards[asset], amount)
		if addErr == nil {
			a.TotalRewards[asset] = sum
		}
	})
	return err
}

func evalBuyout(ctx *Context, operation types.Operation) error {
	op := operation.(types.BuyoutOp)
	originKey := types.PostKey{Platform: op.Platform, Poster: op.OriginPoster, PID: op.OriginPID}
	origin, ok, err := ctx.Tables.FindPost(originKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("buyout: origin post %+v does not exist: %w", originKey, chainerr.ErrEvaluation)
	}
	if origin.ForwardPrice == nil || *origin.ForwardPrice > op.Price {
		return fmt.Errorf("buyout: offer %d below asking price: %w", op.Price, chainerr.ErrEvaluation)
	}
	return debitCredit(ctx, op.Buyer, origin.Key.Poster, op.Price, 0)
}

// evalLicenseCreate registers a reuse-grant license under the issuing
// platform's own LID sequence (grounded on original_source's
// license_create_evaluator, which tracks last_license_sequence on the
// platform account's statistics, not the poster's).
func evalLicenseCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.LicenseCreateOp)
	if _, ok, err := ctx.Tables.PlatformByAccount(op.Platform); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("license_create: %d is not a platform: %w", op.Platform, chainerr.ErrEvaluation)
	}
	stats, ok, err := ctx.Tables.AccountStatisticsByUID(op.Platform)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("license_create: platform %d not found: %w", op.Platform, chainerr.ErrEvaluation)
	}
	if uint64(op.LicenseLID) != stats.LastLicenseSequence+1 {
		return fmt.Errorf("license_create: license id %d is not the next sequence (expected %d): %w", op.LicenseLID, stats.LastLicenseSequence+1, chainerr.ErrEvaluation)
	}
	if _, exists, err := ctx.Tables.License.FindBy(ctx.Tables.LicenseIndex, licenseKeyBytes(op.Platform, op.LicenseLID)); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("license_create: license %d already exists for platform %d: %w", op.LicenseLID, op.Platform, chainerr.ErrEvaluation)
	}
	if _, err := ctx.Tables.AccountStatistics.Modify(types.InstanceID(op.Platform), func(s *types.AccountStatistics) {
		s.LastLicenseSequence++
	}); err != nil {
		return err
	}
	_, err = ctx.Tables.License.Create(types.License{
		Platform: op.Platform,
		LID:      op.LicenseLID,
		Poster:   op.Poster,
		Type:     op.Type,
		Title:    op.Title,
		Body:     op.Body,
		Hash:     op.Hash,
	})
	return err
}

func evalCSAFCollect(ctx *Context, operation types.Operation) error {
	op := operation.(types.CSAFCollectOp)
	stats, ok, err := ctx.Tables.AccountStatisticsByUID(op.Account)
	if err != nil {
		return err
	}
	if !ok || stats.CSAF < op.Amount {
		return fmt.Errorf("csaf_collect: account %d has insufficient accrued CSAF: %w", op.Account, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.AccountStatistics.Modify(types.InstanceID(op.Account), func(s *types.AccountStatistics) {
		s.CSAF -= op.Amount
		s.Prepaid += op.Amount
	})
	return err
}

func evalCSAFLease(ctx *Context, operation types.Operation) error {
	op := operation.(types.CSAFLeaseOp)
	if op.Amount < 0 {
		return fmt.Errorf("csaf_lease: negative amount: %w", chainerr.ErrEvaluation)
	}
	fromStats, ok, err := ctx.Tables.AccountStatisticsByUID(op.From)
	if err != nil {
		return err
	}
	if !ok || fromStats.CSAF-fromStats.LeasedOut < op.Amount {
		return fmt.Errorf("csaf_lease: account %d has insufficient unleased CSAF: %w", op.From, chainerr.ErrEvaluation)
	}
	expiration := ctx.HeadTime + op.Duration

	id, exists, err := ctx.Tables.CSAFLease.FindIDBy(ctx.Tables.CSAFLeaseIndex, leaseKeyBytes(op.From, op.To))
	if err != nil {
		return err
	}
	prevAmount := types.Share(0)
	if exists {
		prev, err := ctx.Tables.CSAFLease.Get(id)
		if err != nil {
			return err
		}
		prevAmount = prev.Amount
		if _, err := ctx.Tables.CSAFLease.Modify(id, func(l *types.CSAFLease) {
			l.Amount = op.Amount
			l.Expiration = expiration
		}); err != nil {
			return err
		}
	} else {
		if _, err := ctx.Tables.CSAFLease.Create(types.CSAFLease{From: op.From, To: op.To, Amount: op.Amount, Expiration: expiration}); err != nil {
			return err
		}
	}

	delta, err := sharemath.Sub(op.Amount, prevAmount)
	if err != nil {
		return err
	}
	_, err = ctx.Tables.AccountStatistics.Modify(types.InstanceID(op.From), func(s *types.AccountStatistics) {
		s.LeasedOut += delta
	})
	if err != nil {
		return err
	}
	_, err = ctx.Tables.AccountStatistics.Modify(types.InstanceID(op.To), func(s *types.AccountStatistics) {
		s.LeasedIn += delta
	})
	return err
}
