package evaluator

import (
	"encoding/binary"

	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// Tables binds every object space an evaluator touches to a typed
// core/store table, plus the secondary indices evaluators look records up
// through. Account and AccountStatistics (respectively Asset and
// AssetDynamicData) are created in lockstep by their *_create evaluator
// only, so their per-space sequence counters stay aligned and an
// AccountUID/AssetAID doubles as the companion table's InstanceID without
// a secondary index.
type Tables struct {
	Account           *store.IndexedTable[types.Account]
	AccountStatistics *store.Table[types.AccountStatistics]
	Balance           *store.IndexedTable[types.Balance]

	Asset            *store.IndexedTable[types.Asset]
	AssetDynamicData *store.Table[types.AssetDynamicData]

	Witness         *store.IndexedTable[types.Witness]
	CommitteeMember *store.IndexedTable[types.CommitteeMember]
	Platform        *store.IndexedTable[types.Platform]
	Voter           *store.IndexedTable[types.Voter]
	Vote            *store.IndexedTable[types.Vote]

	CSAFLease         *store.IndexedTable[types.CSAFLease]
	Proposal          *store.IndexedTable[types.Proposal]
	CommitteeProposal *store.IndexedTable[types.CommitteeProposal]

	Post              *store.IndexedTable[types.Post]
	ActivePost        *store.IndexedTable[types.ActivePost]
	Score             *store.IndexedTable[types.Score]
	License           *store.IndexedTable[types.License]
	RegistrarTakeover *store.IndexedTable[types.RegistrarTakeover]

	// BlockSummary is a fixed-size ring buffer keyed by block_num mod
	// BlockSummaryWindow, the TaPoS reference window (spec §6: a
	// transaction's ref_block_prefix must match the summary recorded for
	// ref_block_num). DynamicGlobalProperties is a single row always held
	// at instance id 0.
	BlockSummary            *store.Table[types.BlockSummary]
	DynamicGlobalProperties *store.Table[types.DynamicGlobalProperties]
	ScheduleState           *store.Table[types.ScheduleState]

	NameIndex    *store.Index[types.Account]
	BalanceIndex *store.Index[types.Balance]

	SymbolIndex *store.Index[types.Asset]

	WitnessOwnerIndex   *store.Index[types.Witness]
	CommitteeOwnerIndex *store.Index[types.CommitteeMember]
	PlatformOwnerIndex  *store.Index[types.Platform]
	VoterOwnerIndex     *store.Index[types.Voter]
	VoteEdgeIndex       *store.Index[types.Vote]

	CSAFLeaseIndex *store.Index[types.CSAFLease]
	PostKeyIndex   *store.Index[types.Post]
	ActivePostIndex *store.Index[types.ActivePost]
	ScoreKeyIndex  *store.Index[types.Score]
	LicenseIndex   *store.Index[types.License]
	RegistrarTakeoverIndex *store.Index[types.RegistrarTakeover]
}

func accountUIDBytes(uid types.AccountUID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(uid))
	return b
}

func postKeyBytes(k types.PostKey) []byte {
	b := make([]byte, 24)
	binary.BigEndian.PutUint64(b[0:8], uint64(k.Platform))
	binary.BigEndian.PutUint64(b[8:16], uint64(k.Poster))
	binary.BigEndian.PutUint64(b[16:24], uint64(k.PID))
	return b
}

func scoreKeyBytes(k types.ScoreKey) []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint64(b[0:8], uint64(k.FromAccount))
	binary.BigEndian.PutUint64(b[8:16], uint64(k.Platform))
	binary.BigEndian.PutUint64(b[16:24], uint64(k.Poster))
	binary.BigEndian.PutUint64(b[24:32], uint64(k.PID))
	return b
}

func voteEdgeBytes(kind types.VoteTargetKind, voter, target types.AccountUID) []byte {
	b := make([]byte, 17)
	b[0] = byte(kind)
	binary.BigEndian.PutUint64(b[1:9], uint64(voter))
	binary.BigEndian.PutUint64(b[9:17], uint64(target))
	return b
}

func balanceKeyBytes(owner types.AccountUID, asset types.AssetAID) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(owner))
	binary.BigEndian.PutUint64(b[8:16], uint64(asset))
	return b
}

func leaseKeyBytes(from, to types.AccountUID) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(from))
	binary.BigEndian.PutUint64(b[8:16], uint64(to))
	return b
}

func licenseKeyBytes(platform types.AccountUID, lid types.InstanceID) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(platform))
	binary.BigEndian.PutUint64(b[8:16], uint64(lid))
	return b
}

// NewTables constructs every table/index pair over s.
func NewTables(s *store.Store) *Tables {
	t := &Tables{}

	t.NameIndex = store.NewIndex[types.Account](store.SpaceAccount, 1, true, func(a types.Account) []byte { return []byte(a.Name) })
	t.Account = store.NewIndexedTable[types.Account](s, store.SpaceAccount, t.NameIndex)
	t.AccountStatistics = store.NewTable[types.AccountStatistics](s, store.SpaceAccountStatistics)

	t.BalanceIndex = store.NewIndex[types.Balance](store.SpaceBalance, 1, true, func(b types.Balance) []byte { return balanceKeyBytes(b.Owner, b.Asset) })
	t.Balance = store.NewIndexedTable[types.Balance](s, store.SpaceBalance, t.BalanceIndex)

	t.SymbolIndex = store.NewIndex[types.Asset](store.SpaceAsset, 1, true, func(a types.Asset) []byte { return []byte(a.Symbol) })
	t.Asset = store.NewIndexedTable[types.Asset](s, store.SpaceAsset, t.SymbolIndex)
	t.AssetDynamicData = store.NewTable[types.AssetDynamicData](s, store.SpaceAssetDynamicData)

	t.WitnessOwnerIndex = store.NewIndex[types.Witness](store.SpaceWitness, 1, true, func(w types.Witness) []byte { return accountUIDBytes(w.Account) })
	t.Witness = store.NewIndexedTable[types.Witness](s, store.SpaceWitness, t.WitnessOwnerIndex)

	t.CommitteeOwnerIndex = store.NewIndex[types.CommitteeMember](store.SpaceCommitteeMember, 1, true, func(m types.CommitteeMember) []byte { return accountUIDBytes(m.Account) })
	t.CommitteeMember = store.NewIndexedTable[types.CommitteeMember](s, store.SpaceCommitteeMember, t.CommitteeOwnerIndex)

	t.PlatformOwnerIndex = store.NewIndex[types.Platform](store.SpacePlatform, 1, true, func(p types.Platform) []byte { return accountUIDBytes(p.Owner) })
	t.Platform = store.NewIndexedTable[types.Platform](s, store.SpacePlatform, t.PlatformOwnerIndex)

	t.VoterOwnerIndex = store.NewIndex[types.Voter](store.SpaceVoter, 1, true, func(v types.Voter) []byte { return accountUIDBytes(v.UID) })
	t.Voter = store.NewIndexedTable[types.Voter](s, store.SpaceVoter, t.VoterOwnerIndex)

	t.VoteEdgeIndex = store.NewIndex[types.Vote](store.SpaceVote, 1, true, func(v types.Vote) []byte { return voteEdgeBytes(v.Kind, v.VoterUID, v.TargetUID) })
	t.Vote = store.NewIndexedTable[types.Vote](s, store.SpaceVote, t.VoteEdgeIndex)

	t.CSAFLeaseIndex = store.NewIndex[types.CSAFLease](store.SpaceCSAFLease, 1, true, func(l types.CSAFLease) []byte { return leaseKeyBytes(l.From, l.To) })
	t.CSAFLease = store.NewIndexedTable[types.CSAFLease](s, store.SpaceCSAFLease, t.CSAFLeaseIndex)

	t.Proposal = store.NewIndexedTable[types.Proposal](s, store.SpaceProposal)
	t.CommitteeProposal = store.NewIndexedTable[types.CommitteeProposal](s, store.SpaceCommitteeProposal)

	t.PostKeyIndex = store.NewIndex[types.Post](store.SpacePost, 1, true, func(p types.Post) []byte { return postKeyBytes(p.Key) })
	t.Post = store.NewIndexedTable[types.Post](s, store.SpacePost, t.PostKeyIndex)

	t.ActivePostIndex = store.NewIndex[types.ActivePost](store.SpaceActivePost, 1, true, func(p types.ActivePost) []byte { return postKeyBytes(p.Key) })
	t.ActivePost = store.NewIndexedTable[types.ActivePost](s, store.SpaceActivePost, t.ActivePostIndex)

	t.ScoreKeyIndex = store.NewIndex[types.Score](store.SpaceScore, 1, true, func(sc types.Score) []byte { return scoreKeyBytes(sc.Key) })
	t.Score = store.NewIndexedTable[types.Score](s, store.SpaceScore, t.ScoreKeyIndex)

	t.LicenseIndex = store.NewIndex[types.License](store.SpaceLicense, 1, true, func(l types.License) []byte { return licenseKeyBytes(l.Platform, l.LID) })
	t.License = store.NewIndexedTable[types.License](s, store.SpaceLicense, t.LicenseIndex)

	t.RegistrarTakeoverIndex = store.NewIndex[types.RegistrarTakeover](store.SpaceRegistrarTakeover, 1, true, func(r types.RegistrarTakeover) []byte { return accountUIDBytes(r.OriginalRegistrar) })
	t.RegistrarTakeover = store.NewIndexedTable[types.RegistrarTakeover](s, store.SpaceRegistrarTakeover, t.RegistrarTakeoverIndex)

	t.BlockSummary = store.NewTable[types.BlockSummary](s, store.SpaceBlockSummary)
	t.DynamicGlobalProperties = store.NewTable[types.DynamicGlobalProperties](s, store.SpaceDynamicGlobalProperties)
	t.ScheduleState = store.NewTable[types.ScheduleState](s, store.SpaceScheduleState)

	return t
}

// BlockSummaryWindow bounds how many recent blocks' TaPoS anchors stay
// resolvable; ref_block_num is truncated to 16 bits on the wire (spec §6),
// so the ring buffer only needs to cover that range.
const BlockSummaryWindow = 1 << 16

func blockSummarySlot(blockNum uint32) types.InstanceID {
	return types.InstanceID(blockNum % BlockSummaryWindow)
}

// RecordBlockSummary overwrites the ring-buffer slot for blockNum, called
// once per applied block.
func (t *Tables) RecordBlockSummary(summary types.BlockSummary) error {
	return t.BlockSummary.SetAt(blockSummarySlot(summary.BlockNum), summary)
}

// BlockSummaryAt resolves the ring-buffer entry currently occupying
// blockNum's slot; the caller must still confirm BlockNum matches (an older
// block can still occupy the slot if the chain hasn't advanced a full
// window past it).
func (t *Tables) BlockSummaryAt(blockNum uint32) (types.BlockSummary, bool, error) {
	return t.BlockSummary.Find(blockSummarySlot(blockNum))
}

// DGP returns the current dynamic global properties, or the zero value if
// genesis hasn't written one yet.
func (t *Tables) DGP() (types.DynamicGlobalProperties, error) {
	dgp, _, err := t.DynamicGlobalProperties.Find(0)
	return dgp, err
}

// SetDGP overwrites the singleton dynamic global properties row.
func (t *Tables) SetDGP(dgp types.DynamicGlobalProperties) error {
	return t.DynamicGlobalProperties.SetAt(0, dgp)
}

// Schedule returns the currently active witness schedule, or the zero
// value before the first rebuild.
func (t *Tables) Schedule() (types.ScheduleState, error) {
	s, _, err := t.ScheduleState.Find(0)
	return s, err
}

// SetSchedule overwrites the singleton schedule-state row.
func (t *Tables) SetSchedule(s types.ScheduleState) error {
	return t.ScheduleState.SetAt(0, s)
}

// AccountStatisticsByUID looks up the statistics row whose InstanceID
// matches uid under the Account/AccountStatistics lockstep-creation
// invariant.
func (t *Tables) AccountStatisticsByUID(uid types.AccountUID) (types.AccountStatistics, bool, error) {
	return t.AccountStatistics.Find(types.InstanceID(uid))
}

// AssetDynamicDataByAID looks up the dynamic-data row whose InstanceID
// matches aid under the Asset/AssetDynamicData lockstep-creation invariant.
func (t *Tables) AssetDynamicDataByAID(aid types.AssetAID) (types.AssetDynamicData, bool, error) {
	return t.AssetDynamicData.Find(types.InstanceID(aid))
}

func (t *Tables) WitnessByAccount(uid types.AccountUID) (types.Witness, bool, error) {
	return t.Witness.FindBy(t.WitnessOwnerIndex, accountUIDBytes(uid))
}

// WitnessIDByAccount resolves a witness row's instance id, for callers that
// need to Modify/Remove a witness found by account uid.
func (t *Tables) WitnessIDByAccount(uid types.AccountUID) (types.InstanceID, bool, error) {
	return t.Witness.FindIDBy(t.WitnessOwnerIndex, accountUIDBytes(uid))
}

func (t *Tables) CommitteeMemberByAccount(uid types.AccountUID) (types.CommitteeMember, bool, error) {
	return t.CommitteeMember.FindBy(t.CommitteeOwnerIndex, accountUIDBytes(uid))
}

func (t *Tables) PlatformByAccount(uid types.AccountUID) (types.Platform, bool, error) {
	return t.Platform.FindBy(t.PlatformOwnerIndex, accountUIDBytes(uid))
}

// PlatformIDByAccount resolves a platform row's instance id, for callers
// that need to Modify/Remove a platform found by owner uid.
func (t *Tables) PlatformIDByAccount(uid types.AccountUID) (types.InstanceID, bool, error) {
	return t.Platform.FindIDBy(t.PlatformOwnerIndex, accountUIDBytes(uid))
}

func (t *Tables) VoterByAccount(uid types.AccountUID) (types.Voter, bool, error) {
	return t.Voter.FindBy(t.VoterOwnerIndex, accountUIDBytes(uid))
}

// VoterIDByAccount resolves a voter row's instance id without decoding it,
// for callers (core/maintenance's adapter) that need to Modify/Remove a
// voter found by account uid rather than by a table scan.
func (t *Tables) VoterIDByAccount(uid types.AccountUID) (types.InstanceID, bool, error) {
	return t.Voter.FindIDBy(t.VoterOwnerIndex, accountUIDBytes(uid))
}

// VoteID resolves a vote edge's instance id for Remove, mirroring
// VoterIDByAccount's reasoning.
func (t *Tables) VoteID(kind types.VoteTargetKind, voterUID, targetUID types.AccountUID) (types.InstanceID, bool, error) {
	return t.Vote.FindIDBy(t.VoteEdgeIndex, voteEdgeBytes(kind, voterUID, targetUID))
}

// ScoreID resolves a score edge's instance id for Remove.
func (t *Tables) ScoreID(key types.ScoreKey) (types.InstanceID, bool, error) {
	return t.Score.FindIDBy(t.ScoreKeyIndex, scoreKeyBytes(key))
}

func (t *Tables) FindVote(kind types.VoteTargetKind, voterUID, targetUID types.AccountUID) (types.Vote, bool, error) {
	return t.Vote.FindBy(t.VoteEdgeIndex, voteEdgeBytes(kind, voterUID, targetUID))
}

func (t *Tables) FindPost(key types.PostKey) (types.Post, bool, error) {
	return t.Post.FindBy(t.PostKeyIndex, postKeyBytes(key))
}

func (t *Tables) FindActivePost(key types.PostKey) (types.ActivePost, bool, error) {
	return t.ActivePost.FindBy(t.ActivePostIndex, postKeyBytes(key))
}

func (t *Tables) FindScore(key types.ScoreKey) (types.Score, bool, error) {
	return t.Score.FindBy(t.ScoreKeyIndex, scoreKeyBytes(key))
}

func (t *Tables) FindLease(from, to types.AccountUID) (types.CSAFLease, bool, error) {
	return t.CSAFLease.FindBy(t.CSAFLeaseIndex, leaseKeyBytes(from, to))
}

func (t *Tables) FindBalance(owner types.AccountUID, asset types.AssetAID) (types.Balance, bool, error) {
	return t.Balance.FindBy(t.BalanceIndex, balanceKeyBytes(owner, asset))
}
