package tx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/native/fees"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// testChain builds a store with one funded account (alice, uid 0) whose
// active authority is a single signing key, a core-asset dynamic-data row
// for fee collection, and one TaPoS anchor the tests can reference.
func testChain(t *testing.T) (*Pipeline, *store.Store, *crypto.PrivateKey, types.BlockSummary) {
	t.Helper()
	s := store.New(storage.NewMemDB())
	tables := evaluator.NewTables(s)

	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pubHex := key.PubKey().CompressedPubkeyHex()

	sess := s.BeginUndoSession()
	aliceID, err := tables.Account.Create(types.Account{
		Name:        "alice",
		Active:      types.Authority{Threshold: 1, Keys: map[string]uint32{pubHex: 1}},
		Permissions: types.PermissionCanVote,
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

	schedule := fees.NewSchedule(fees.OpFee{Base: 10})

	p := &Pipeline{
		Store:             s,
		Tables:            tables,
		FeeSchedule:       schedule,
		ParamStore:        params.NewStore(s),
		HeadTime:          summary.Timestamp,
		HeadBlock:         summary.BlockNum,
		ChainID:           []byte("test-chain"),
		MaxAuthorityDepth: 4,
	}
	return p, s, key, summary
}

func signTransfer(t *testing.T, p *Pipeline, key *crypto.PrivateKey, summary types.BlockSummary, amount types.Share, expiration uint32) *types.SignedTransaction {
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
	return &types.SignedTransaction{Transaction: txn, Signatures: []types.Signature65{sig}}
}

func TestApplyTransactionMovesFundsAndCollectsFee(t *testing.T) {
	p, s, key, summary := testChain(t)
	signed := signTransfer(t, p, key, summary, 500, p.HeadTime+3600)

	result, err := p.ApplyTransaction(signed)
	require.NoError(t, err)
	require.Len(t, result.Ops, 1)
	require.Equal(t, types.Share(10), result.Fee)

	alice, ok, err := p.Tables.AccountStatisticsByUID(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Share(1_000_000-500-10), alice.CoreBalance)

	bob, ok, err := p.Tables.AccountStatisticsByUID(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Share(500), bob.CoreBalance)

	seen, err := s.TransactionSeen(result.ID)
	require.NoError(t, err)
	require.True(t, seen)
}

func TestApplyTransactionRejectsDuplicate(t *testing.T) {
	p, _, key, summary := testChain(t)
	signed := signTransfer(t, p, key, summary, 100, p.HeadTime+3600)

	_, err := p.ApplyTransaction(signed)
	require.NoError(t, err)

	_, err = p.ApplyTransaction(signed)
	require.ErrorIs(t, err, chainerr.ErrDuplicate)
}

func TestApplyTransactionRejectsExpired(t *testing.T) {
	p, _, key, summary := testChain(t)
	signed := signTransfer(t, p, key, summary, 100, p.HeadTime)

	_, err := p.ApplyTransaction(signed)
	require.ErrorIs(t, err, chainerr.ErrExpired)
}

func TestApplyTransactionRejectsTaPoSMismatch(t *testing.T) {
	p, _, key, summary := testChain(t)
	signed := signTransfer(t, p, key, summary, 100, p.HeadTime+3600)
	signed.RefBlockPrefix ^= 0xffffffff

	_, err := p.ApplyTransaction(signed)
	require.ErrorIs(t, err, chainerr.ErrTaPoSMismatch)
}

func TestApplyTransactionRejectsUnauthorizedSignature(t *testing.T) {
	p, _, _, summary := testChain(t)
	other, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	signed := signTransfer(t, p, other, summary, 100, p.HeadTime+3600)

	_, err = p.ApplyTransaction(signed)
	require.ErrorIs(t, err, chainerr.ErrInsufficientAuthority)
}

func TestApplyTransactionRollsBackWholeTransactionOnOpFailure(t *testing.T) {
	p, s, key, summary := testChain(t)
	txn := types.Transaction{
		RefBlockNum:    uint16(summary.BlockNum),
		RefBlockPrefix: summary.RefBlockPrefix(),
		Expiration:     p.HeadTime + 3600,
		Operations: []types.TaggedOperation{
			{Tag: types.OpTransfer, Payload: types.TransferOp{From: 0, To: 1, Asset: evaluator.CoreAsset, Amount: 500}},
			{Tag: types.OpTransfer, Payload: types.TransferOp{From: 0, To: 1, Asset: evaluator.CoreAsset, Amount: 10_000_000}},
		},
	}
	digest, err := txn.SigDigest(p.ChainID)
	require.NoError(t, err)
	sig, err := key.Sign(digest)
	require.NoError(t, err)
	signed := &types.SignedTransaction{Transaction: txn, Signatures: []types.Signature65{sig}}

	_, err = p.ApplyTransaction(signed)
	require.Error(t, err)

	alice, ok, err := p.Tables.AccountStatisticsByUID(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Share(1_000_000), alice.CoreBalance, "first operation's transfer must have been rolled back too")

	id, err := signed.ID()
	require.NoError(t, err)
	seen, err := s.TransactionSeen(id)
	require.NoError(t, err)
	require.False(t, seen)
}
