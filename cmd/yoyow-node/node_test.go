package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/config"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

func testManifest() *config.GenesisManifest {
	return &config.GenesisManifest{
		ChainID:               "yoyow-test",
		WitnessSigningKeyPath: "unused-in-test",
		Params: config.Global{
			Governance: config.Governance{QuorumBPS: 5000, PassThresholdBPS: 5000, VotingPeriodSecs: config.MinVotingPeriodSeconds},
			Fees:       config.Fees{DefaultBase: 10, DefaultPerKB: 1},
			ContentAward: config.ContentAward{
				TotalContentAwardAmount: 1000,
				MinEffectiveCSAF:        1,
				PeriodSeconds:           86400,
			},
			Witness: config.Witness{ByVoteTopCount: 1, ByVoteRestCount: 0, ByPledgeCount: 0, SlotIntervalSeconds: 3, MaxMissedSlots: 10},
			Mempool: config.Mempool{MaxBytes: 1 << 20},
		},
	}
}

func TestNewNodeBootstrapsGenesisOnEmptyStore(t *testing.T) {
	db := storage.NewMemDB()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	node, err := NewNode(db, key, testManifest(), nil)
	require.NoError(t, err)

	dgp, err := node.Tables.DGP()
	require.NoError(t, err)
	require.Equal(t, uint32(0), dgp.HeadBlockNum)

	sched, err := node.Tables.Schedule()
	require.NoError(t, err)
	require.Len(t, sched.Shuffled, 1, "self-witness bootstrap must seed a one-witness schedule")

	witnessUID := sched.Shuffled[0]
	w, ok, err := node.Tables.WitnessByAccount(witnessUID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, w.IsValid)
	require.Equal(t, key.PubKey().CompressedPubkeyHex(), w.SigningKey)
}

func TestNewNodeReopensWithoutManifest(t *testing.T) {
	db := storage.NewMemDB()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	_, err = NewNode(db, key, testManifest(), nil)
	require.NoError(t, err)

	// A restart with the same data directory must not require the genesis
	// manifest again: bootstrapGenesis only runs once, detected via the
	// genesis block-summary anchor.
	reopened, err := NewNode(db, key, nil, nil)
	require.NoError(t, err)
	dgp, err := reopened.Tables.DGP()
	require.NoError(t, err)
	require.Equal(t, uint32(0), dgp.HeadBlockNum)
}

func TestNewNodeRejectsEmptyStoreWithoutManifest(t *testing.T) {
	db := storage.NewMemDB()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	_, err = NewNode(db, key, nil, nil)
	require.Error(t, err)
}

func TestNodeSubmitTransactionReachesMempool(t *testing.T) {
	db := storage.NewMemDB()
	witnessKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	node, err := NewNode(db, witnessKey, testManifest(), nil)
	require.NoError(t, err)

	senderKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pubHex := senderKey.PubKey().CompressedPubkeyHex()

	sess := node.Store.BeginUndoSession()
	senderID, err := node.Tables.Account.Create(types.Account{
		Name:   "alice",
		Active: types.Authority{Threshold: 1, Keys: map[string]uint32{pubHex: 1}},
	})
	require.NoError(t, err)
	_, err = node.Tables.AccountStatistics.Create(types.AccountStatistics{Owner: types.AccountUID(senderID), CoreBalance: 1000})
	require.NoError(t, err)
	receiverID, err := node.Tables.Account.Create(types.Account{Name: "bob"})
	require.NoError(t, err)
	_, err = node.Tables.AccountStatistics.Create(types.AccountStatistics{Owner: types.AccountUID(receiverID)})
	require.NoError(t, err)
	genesisSummary := types.BlockSummary{BlockNum: 0, Timestamp: 0}
	require.NoError(t, node.Tables.RecordBlockSummary(genesisSummary))
	require.NoError(t, sess.Commit())

	txn := types.Transaction{
		RefBlockNum:    0,
		RefBlockPrefix: genesisSummary.RefBlockPrefix(),
		Expiration:     600,
		Operations: []types.TaggedOperation{
			{Tag: types.OpTransfer, Payload: types.TransferOp{From: types.AccountUID(senderID), To: types.AccountUID(receiverID), Asset: evaluator.CoreAsset, Amount: 10}},
		},
	}
	digest, err := txn.SigDigest(node.TxPipeline.ChainID)
	require.NoError(t, err)
	sig, err := senderKey.Sign(digest)
	require.NoError(t, err)
	signed := types.SignedTransaction{Transaction: txn, Signatures: []types.Signature65{sig}}

	require.NoError(t, node.SubmitTransaction(signed))
	require.Equal(t, 1, node.Mempool.Len())
	pending := node.Mempool.Pending(0)
	require.Len(t, pending, 1)
}
