package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// newTestContext builds a fresh store with a genesis registrar account
// (uid 0) so account_create tests have a permitted registrar to use.
func newTestContext(t *testing.T) (*Context, *store.Store) {
	t.Helper()
	s := store.New(storage.NewMemDB())
	tables := NewTables(s)
	ctx := &Context{Store: s, Tables: tables, ParamStore: params.NewStore(s)}

	sess := s.BeginUndoSession()
	registrarID, err := tables.Account.Create(types.Account{
		Name:        "registrar",
		Permissions: types.PermissionCanVote | types.PermissionIsRegistrar,
	})
	require.NoError(t, err)
	require.Equal(t, types.InstanceID(0), registrarID)
	_, err = tables.AccountStatistics.Create(types.AccountStatistics{Owner: types.AccountUID(registrarID)})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	return ctx, s
}

func TestAccountCreateCreatesLockstepStatisticsRow(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	err := Apply(ctx, types.AccountCreateOp{
		Registrar: 0,
		Name:      "alice",
		Owner:     types.Authority{Threshold: 1},
		Active:    types.Authority{Threshold: 1},
	})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	acc, ok, err := ctx.Tables.Account.Find(types.InstanceID(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", acc.Name)

	stats, ok, err := ctx.Tables.AccountStatistics.Find(types.InstanceID(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.AccountUID(1), stats.Owner)
}

func TestAccountCreateRejectsUnknownRegistrar(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	err := Apply(ctx, types.AccountCreateOp{
		Registrar: 99,
		Name:      "bob",
	})
	require.Error(t, err)
	require.NoError(t, sess.Undo())
}

func TestTransferMovesCoreBalanceBetweenAccounts(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "alice"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "bob"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err := ctx.Tables.AccountStatistics.Modify(types.InstanceID(1), func(st *types.AccountStatistics) {
		st.CoreBalance = 1000
	})
	require.NoError(t, err)
	require.NoError(t, sess2.Commit())

	sess3 := s.BeginUndoSession()
	err = Apply(ctx, types.TransferOp{From: 1, To: 2, Asset: CoreAsset, Amount: 400})
	require.NoError(t, err)
	require.NoError(t, sess3.Commit())

	fromStats, _, err := ctx.Tables.AccountStatistics.Find(types.InstanceID(1))
	require.NoError(t, err)
	require.Equal(t, types.Share(600), fromStats.CoreBalance)

	toStats, _, err := ctx.Tables.AccountStatistics.Find(types.InstanceID(2))
	require.NoError(t, err)
	require.Equal(t, types.Share(400), toStats.CoreBalance)
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "alice"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "bob"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	err := Apply(ctx, types.TransferOp{From: 1, To: 2, Asset: CoreAsset, Amount: 50})
	require.Error(t, err)
	require.NoError(t, sess2.Undo())
}

func TestPostAndScoreCreateRoundTrip(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "platform-owner"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "poster"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "scorer"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err := ctx.Tables.Platform.Create(types.Platform{Owner: 1, IsValid: true})
	require.NoError(t, err)
	require.NoError(t, sess2.Commit())

	sess3 := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.PostOp{
		Platform: 1,
		Poster:   2,
		PostPID:  1,
		Title:    "hello",
		Body:     "world",
	}))
	require.NoError(t, sess3.Commit())

	post, ok, err := ctx.Tables.FindPost(types.PostKey{Platform: 1, Poster: 2, PID: 1})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", post.Title)

	sess4 := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.ScoreCreateOp{
		Platform: 1,
		Poster:   2,
		PostPID:  1,
		Scorer:   3,
		Score:    5,
		CSAF:     10,
	}))
	require.NoError(t, sess4.Commit())

	active, ok, err := ctx.Tables.FindActivePost(types.PostKey{Platform: 1, Poster: 2, PID: 1})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, active.Scores, 1)
	require.Equal(t, types.Share(10), active.TotalCSAF)
}

func TestScoreCreateRejectsDuplicateScorer(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "platform-owner"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "poster"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "scorer"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err := ctx.Tables.Platform.Create(types.Platform{Owner: 1, IsValid: true})
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, types.PostOp{Platform: 1, Poster: 2, PostPID: 1}))
	require.NoError(t, Apply(ctx, types.ScoreCreateOp{Platform: 1, Poster: 2, PostPID: 1, Scorer: 3, Score: 1}))
	require.NoError(t, sess2.Commit())

	sess3 := s.BeginUndoSession()
	err = Apply(ctx, types.ScoreCreateOp{Platform: 1, Poster: 2, PostPID: 1, Scorer: 3, Score: 2})
	require.Error(t, err)
	require.NoError(t, sess3.Undo())
}

func TestProposalCreateThenUpdateExecutesNestedOperation(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "alice"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "bob"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err := ctx.Tables.AccountStatistics.Modify(types.InstanceID(1), func(st *types.AccountStatistics) {
		st.CoreBalance = 1000
	})
	require.NoError(t, err)
	require.NoError(t, sess2.Commit())

	nested := types.TaggedOperation{Payload: types.TransferOp{From: 1, To: 2, Asset: CoreAsset, Amount: 100}}

	sess3 := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.ProposalCreateOp{
		Proposer:    1,
		ProposedOps: []types.TaggedOperation{nested},
	}))
	require.NoError(t, sess3.Commit())

	sess4 := s.BeginUndoSession()
	err = Apply(ctx, types.ProposalUpdateOp{
		Proposal:             0,
		FeePayingAccount:     1,
		ActiveApprovalsToAdd: []types.AccountUID{1},
	})
	require.NoError(t, err)
	require.NoError(t, sess4.Commit())

	fromStats, _, err := ctx.Tables.AccountStatistics.Find(types.InstanceID(1))
	require.NoError(t, err)
	require.Equal(t, types.Share(900), fromStats.CoreBalance)

	_, ok, err := ctx.Tables.Proposal.Find(types.InstanceID(0))
	require.NoError(t, err)
	require.False(t, ok, "proposal should be removed once its required approvals executed it")
}

func TestCommitteeProposalCreateValidatesAgainstGovBaseline(t *testing.T) {
	ctx, s := newTestContext(t)

	valid, err := json.Marshal(params.WitnessParams{
		ByVoteTopCount:      5,
		SlotIntervalSeconds: 3,
		MaxMissedSlots:      10,
	})
	require.NoError(t, err)

	sess := s.BeginUndoSession()
	err = Apply(ctx, types.CommitteeProposalCreateOp{
		Proposer: 0,
		Items:    []types.CommitteeProposalItem{{Kind: types.CommitteeItemWitnessParams, Value: valid}},
	})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	prop, ok, err := ctx.Tables.CommitteeProposal.Find(types.InstanceID(0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, prop.Items, 1)
}

func TestLicenseCreateTracksPlatformSequence(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "platform-owner"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "poster"}))
	_, err := ctx.Tables.Platform.Create(types.Platform{Owner: 1, IsValid: true})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	err = Apply(ctx, types.LicenseCreateOp{Platform: 1, LicenseLID: 1, Poster: 2, Title: "CC-BY"})
	require.NoError(t, err)
	require.NoError(t, sess2.Commit())

	stats, _, err := ctx.Tables.AccountStatistics.Find(types.InstanceID(1))
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.LastLicenseSequence)

	sess3 := s.BeginUndoSession()
	err = Apply(ctx, types.LicenseCreateOp{Platform: 1, LicenseLID: 1, Poster: 2, Title: "duplicate"})
	require.Error(t, err, "reusing a license id must be rejected")
	require.NoError(t, sess3.Undo())
}

func TestInlineTransferMovesFundsLikeTransfer(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "contract"}))
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "recipient"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	_, err := ctx.Tables.AccountStatistics.Modify(types.InstanceID(1), func(st *types.AccountStatistics) {
		st.CoreBalance = 500
	})
	require.NoError(t, err)
	require.NoError(t, sess2.Commit())

	sess3 := s.BeginUndoSession()
	err = Apply(ctx, types.InlineTransferOp{Caller: 1, From: 1, To: 2, Asset: CoreAsset, Amount: 200})
	require.NoError(t, err)
	require.NoError(t, sess3.Commit())

	balance, err := ctx.GetCoreBalance(2)
	require.NoError(t, err)
	require.Equal(t, types.Share(200), balance)
}

func TestInterContractCallRejectsUnknownCallee(t *testing.T) {
	ctx, s := newTestContext(t)

	sess := s.BeginUndoSession()
	require.NoError(t, Apply(ctx, types.AccountCreateOp{Registrar: 0, Name: "contract"}))
	require.NoError(t, sess.Commit())

	sess2 := s.BeginUndoSession()
	err := Apply(ctx, types.InterContractCallOp{Caller: 1, Callee: 99, Method: "settle"})
	require.Error(t, err)
	require.NoError(t, sess2.Undo())
}

func TestCommitteeProposalCreateRejectsInvalidWitnessParams(t *testing.T) {
	ctx, s := newTestContext(t)

	invalid, err := json.Marshal(params.WitnessParams{
		ByVoteTopCount:      0,
		ByVoteRestCount:     0,
		ByPledgeCount:       0,
		SlotIntervalSeconds: 3,
		MaxMissedSlots:      10,
	})
	require.NoError(t, err)

	sess := s.BeginUndoSession()
	err = Apply(ctx, types.CommitteeProposalCreateOp{
		Proposer: 0,
		Items:    []types.CommitteeProposalItem{{Kind: types.CommitteeItemWitnessParams, Value: invalid}},
	})
	require.Error(t, err)
	require.NoError(t, sess.Undo())
}
