package mempool

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/config"
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/tx"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/native/fees"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// testChain builds a minimal store/pipeline pair with one funded signer
// (alice, uid 0) and a TaPoS anchor, mirroring core/tx/pipeline_test.go's
// fixture.
func testChain(t *testing.T) (*tx.Pipeline, *crypto.PrivateKey, types.BlockSummary) {
	t.Helper()
	s := store.New(storage.NewMemDB())
	tables := evaluator.NewTables(s)

	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pubHex := key.PubKey().CompressedPubkeyHex()

	sess := s.BeginUndoSession()
	aliceID, err := tables.Account.Create(types.Account{
		Name:   "alice",
		Active: types.Authority{Threshold: 1, Keys: map[string]uint32{pubHex: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, types.InstanceID(0), aliceID)
	_, err = tables.AccountStatistics.Create(types.AccountStatistics{Owner: types.AccountUID(aliceID), CoreBalance: 1_000_000})
	require.NoError(t, err)

	bobID, err := tables.Account.Create(types.Account{Name: "bob"})
	require.NoError(t, err)
	_, err = tables.AccountStatistics.Create(types.AccountStatistics{Owner: types.AccountUID(bobID)})
	require.NoError(t, err)

	assetID, err := tables.Asset.Create(types.Asset{Symbol: "CORE", Precision: 8})
	require.NoError(t, err)
	require.Equal(t, types.InstanceID(evaluator.CoreAsset), assetID)
	_, err = tables.AssetDynamicData.Create(types.AssetDynamicData{Asset: evaluator.CoreAsset})
	require.NoError(t, err)

	summary := types.BlockSummary{BlockNum: 1, BlockID: types.BlockID{1, 2, 3, 4}, Timestamp: 1000}
	require.NoError(t, tables.RecordBlockSummary(summary))
	require.NoError(t, tables.SetDGP(types.DynamicGlobalProperties{HeadBlockNum: summary.BlockNum, Time: summary.Timestamp}))
	require.NoError(t, sess.Commit())

	p := &tx.Pipeline{
		Store:             s,
		Tables:            tables,
		FeeSchedule:       fees.NewSchedule(fees.OpFee{Base: 10}),
		ParamStore:        params.NewStore(s),
		HeadTime:          summary.Timestamp,
		HeadBlock:         summary.BlockNum,
		ChainID:           []byte("test-chain"),
		MaxAuthorityDepth: 4,
	}
	return p, key, summary
}

func signTransfer(t *testing.T, p *tx.Pipeline, key *crypto.PrivateKey, summary types.BlockSummary, amount types.Share, expiration uint32) types.SignedTransaction {
	t.Helper()
	txn := types.Transaction{
		RefBlockNum:    uint16(summary.BlockNum),
		RefBlockPrefix: summary.RefBlockPrefix(),
		Expiration:     expiration,
		Operations: []types.TaggedOperation{
			{Tag: types.OpTransfer, Payload: types.TransferOp{From: 0, To: 1, Asset: evaluator.CoreAsset, Amount: amount}},
		},
	}
	digest, err := txn.SigDigest(p.ChainID)
	require.NoError(t, err)
	sig, err := key.Sign(digest)
	require.NoError(t, err)
	return types.SignedTransaction{Transaction: txn, Signatures: []types.Signature65{sig}}
}

func TestPoolAddAndPendingOrdersByFeeThenArrival(t *testing.T) {
	p, key, summary := testChain(t)
	schedule := fees.NewSchedule(fees.OpFee{Base: 1})
	schedule.Set(types.OpTransfer, fees.OpFee{Base: 5})
	pool := New(p, schedule, 0)

	low := signTransfer(t, p, key, summary, 1, 2000)
	require.NoError(t, pool.Add(low))

	schedule.Set(types.OpTransfer, fees.OpFee{Base: 50})
	high := signTransfer(t, p, key, summary, 2, 2000)
	require.NoError(t, pool.Add(high))

	require.Equal(t, 2, pool.Len())
	pending := pool.Pending(0)
	require.Len(t, pending, 2)

	highID, err := high.ID()
	require.NoError(t, err)
	firstID, err := pending[0].ID()
	require.NoError(t, err)
	require.Equal(t, highID, firstID, "higher-fee transaction must be scheduled first")
}

func TestPoolAddRejectsDuplicateAndExpired(t *testing.T) {
	p, key, summary := testChain(t)
	pool := New(p, fees.NewSchedule(fees.OpFee{Base: 1}), 0)

	signed := signTransfer(t, p, key, summary, 1, 2000)
	require.NoError(t, pool.Add(signed))
	require.ErrorIs(t, pool.Add(signed), chainerr.ErrDuplicate)

	expired := signTransfer(t, p, key, summary, 2, summary.Timestamp)
	require.ErrorIs(t, pool.Add(expired), chainerr.ErrExpired)
}

func TestPoolAddEnforcesLimit(t *testing.T) {
	p, key, summary := testChain(t)
	pool := New(p, fees.NewSchedule(fees.OpFee{Base: 1}), 1)

	require.NoError(t, pool.Add(signTransfer(t, p, key, summary, 1, 2000)))
	err := pool.Add(signTransfer(t, p, key, summary, 2, 2000))
	require.ErrorIs(t, err, chainerr.ErrMempoolFull)
	require.Equal(t, 1, pool.Len())
}

func TestPoolRemoveDropsIncludedTransactions(t *testing.T) {
	p, key, summary := testChain(t)
	pool := New(p, fees.NewSchedule(fees.OpFee{Base: 1}), 0)

	signed := signTransfer(t, p, key, summary, 1, 2000)
	require.NoError(t, pool.Add(signed))
	id, err := signed.ID()
	require.NoError(t, err)

	pool.Remove(id)
	require.Equal(t, 0, pool.Len())
}

func TestPoolPruneDropsExpiredTransactions(t *testing.T) {
	p, key, summary := testChain(t)
	pool := New(p, fees.NewSchedule(fees.OpFee{Base: 1}), 0)

	signed := signTransfer(t, p, key, summary, 1, summary.Timestamp+1)
	require.NoError(t, pool.Add(signed))

	pool.Prune(summary.Timestamp + 1)
	require.Equal(t, 0, pool.Len())
}

func TestPoolAddEnforcesByteBudget(t *testing.T) {
	p, key, summary := testChain(t)
	first := signTransfer(t, p, key, summary, 1, 2000)
	raw, err := rlp.EncodeToBytes(first)
	require.NoError(t, err)

	pool := NewFromConfig(p, fees.NewSchedule(fees.OpFee{Base: 1}), 0, config.Mempool{MaxBytes: int64(len(raw))})
	require.NoError(t, pool.Add(first))
	require.Equal(t, int64(len(raw)), pool.BytesUsed())

	second := signTransfer(t, p, key, summary, 2, 2000)
	err = pool.Add(second)
	require.ErrorIs(t, err, chainerr.ErrMempoolFull)
	require.Equal(t, 1, pool.Len())
}

func TestPoolRemoveAndPruneReleaseByteBudget(t *testing.T) {
	p, key, summary := testChain(t)
	signed := signTransfer(t, p, key, summary, 1, summary.Timestamp+1)
	raw, err := rlp.EncodeToBytes(signed)
	require.NoError(t, err)

	pool := NewFromConfig(p, fees.NewSchedule(fees.OpFee{Base: 1}), 0, config.Mempool{MaxBytes: int64(len(raw))})
	require.NoError(t, pool.Add(signed))
	require.Equal(t, int64(len(raw)), pool.BytesUsed())

	pool.Prune(summary.Timestamp + 1)
	require.Equal(t, int64(0), pool.BytesUsed())

	require.NoError(t, pool.Add(signed))
	id, err := signed.ID()
	require.NoError(t, err)
	pool.Remove(id)
	require.Equal(t, int64(0), pool.BytesUsed())
}

func TestPoolAddConcurrentUnderLimit(t *testing.T) {
	p, key, summary := testChain(t)
	pool := New(p, fees.NewSchedule(fees.OpFee{Base: 1}), 0)

	const producers = 4
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(amount types.Share) {
			defer wg.Done()
			signed := signTransfer(t, p, key, summary, amount, 2000)
			if err := pool.Add(signed); err != nil {
				t.Errorf("add transaction: %v", err)
			}
		}(types.Share(i + 1))
	}
	wg.Wait()

	require.Equal(t, producers, pool.Len())
}
