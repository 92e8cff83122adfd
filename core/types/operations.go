package types

import "fmt"

// This file defines the concrete payload for every operation named in the
// wire spec's tagged-union taxonomy. Each type implements Operation so it
// can be carried inside a TaggedOperation; fields cover what the evaluators
// in core/evaluator need, not the full original C++ parameter set.

// --- account_* ---

type AccountCreateOp struct {
	Fee       Share
	Registrar AccountUID
	Referrer  AccountUID
	RefPercent uint32
	Name      string
	Owner     Authority
	Active    Authority
	Secondary Authority
	MemoKey   string
}

func (o AccountCreateOp) OpTag() OpTag        { return OpAccountCreate }
func (o AccountCreateOp) FeePayer() AccountUID { return o.Registrar }

type AccountManageOp struct {
	Fee        Share
	Executor   AccountUID
	Account    AccountUID
	Permissions *Permission // nil = no change
}

func (o AccountManageOp) OpTag() OpTag        { return OpAccountManage }
func (o AccountManageOp) FeePayer() AccountUID { return o.Executor }

type AccountUpdateKeyOp struct {
	Fee     Share
	Account AccountUID
	MemoKey string
}

func (o AccountUpdateKeyOp) OpTag() OpTag        { return OpAccountUpdateKey }
func (o AccountUpdateKeyOp) FeePayer() AccountUID { return o.Account }

type AccountUpdateAuthOp struct {
	Fee       Share
	Account   AccountUID
	Owner     *Authority
	Active    *Authority
	Secondary *Authority
}

func (o AccountUpdateAuthOp) OpTag() OpTag        { return OpAccountUpdateAuth }
func (o AccountUpdateAuthOp) FeePayer() AccountUID { return o.Account }

type AccountUpdateProxyOp struct {
	Fee     Share
	Account AccountUID
	Proxy   AccountUID // ProxyToSelf clears the proxy
}

func (o AccountUpdateProxyOp) OpTag() OpTag        { return OpAccountUpdateProxy }
func (o AccountUpdateProxyOp) FeePayer() AccountUID { return o.Account }

type AccountAuthPlatformOp struct {
	Fee      Share
	Account  AccountUID
	Platform AccountUID
	Limit    Share // max CSAF the platform may spend on this account's behalf
}

func (o AccountAuthPlatformOp) OpTag() OpTag        { return OpAccountAuthPlatform }
func (o AccountAuthPlatformOp) FeePayer() AccountUID { return o.Account }

type AccountCancelAuthPlatformOp struct {
	Fee      Share
	Account  AccountUID
	Platform AccountUID
}

func (o AccountCancelAuthPlatformOp) OpTag() OpTag        { return OpAccountCancelAuthPlatform }
func (o AccountCancelAuthPlatformOp) FeePayer() AccountUID { return o.Account }

type AccountEnableAllowedAssetsOp struct {
	Fee     Share
	Account AccountUID
	Enable  bool
}

func (o AccountEnableAllowedAssetsOp) OpTag() OpTag        { return OpAccountEnableAllowedAssets }
func (o AccountEnableAllowedAssetsOp) FeePayer() AccountUID { return o.Account }

type AccountUpdateAllowedAssetsOp struct {
	Fee     Share
	Account AccountUID
	Add     []AssetAID
	Remove  []AssetAID
}

func (o AccountUpdateAllowedAssetsOp) OpTag() OpTag        { return OpAccountUpdateAllowedAssets }
func (o AccountUpdateAllowedAssetsOp) FeePayer() AccountUID { return o.Account }

type AccountWhitelistOp struct {
	Fee           Share
	Authorizer    AccountUID
	AccountToList AccountUID
	NewListing    uint8 // bitmask: whitelisted / blacklisted
}

func (o AccountWhitelistOp) OpTag() OpTag        { return OpAccountWhitelist }
func (o AccountWhitelistOp) FeePayer() AccountUID { return o.Authorizer }

// --- committee_member_*, committee_proposal_* ---

type CommitteeMemberCreateOp struct {
	Fee     Share
	Account AccountUID
	Pledge  Share
	URL     string
}

func (o CommitteeMemberCreateOp) OpTag() OpTag        { return OpCommitteeMemberCreate }
func (o CommitteeMemberCreateOp) FeePayer() AccountUID { return o.Account }

type CommitteeMemberUpdateOp struct {
	Fee     Share
	Account AccountUID
	URL     *string
}

func (o CommitteeMemberUpdateOp) OpTag() OpTag        { return OpCommitteeMemberUpdate }
func (o CommitteeMemberUpdateOp) FeePayer() AccountUID { return o.Account }

type CommitteeMemberVoteUpdateOp struct {
	Fee     Share
	Voter   AccountUID
	ToAdd   []AccountUID
	ToRemove []AccountUID
}

func (o CommitteeMemberVoteUpdateOp) OpTag() OpTag        { return OpCommitteeMemberVoteUpdate }
func (o CommitteeMemberVoteUpdateOp) FeePayer() AccountUID { return o.Voter }

type CommitteeProposalCreateOp struct {
	Fee             Share
	Proposer        AccountUID
	Items           []CommitteeProposalItem
	VotingClosingBlock uint32
	ExpirationBlock uint32
}

func (o CommitteeProposalCreateOp) OpTag() OpTag        { return OpCommitteeProposalCreate }
func (o CommitteeProposalCreateOp) FeePayer() AccountUID { return o.Proposer }

type CommitteeProposalUpdateOp struct {
	Fee        Share
	Voter      AccountUID
	ProposalID InstanceID
	Opinion    Opinion // +1 approve, -1 reject, 0 abstain
}

func (o CommitteeProposalUpdateOp) OpTag() OpTag        { return OpCommitteeProposalUpdate }
func (o CommitteeProposalUpdateOp) FeePayer() AccountUID { return o.Voter }

// --- witness_* ---

type WitnessCreateOp struct {
	Fee       Share
	Account   AccountUID
	Pledge    Share
	SigningKey string // hex compressed pubkey
	URL       string
}

func (o WitnessCreateOp) OpTag() OpTag        { return OpWitnessCreate }
func (o WitnessCreateOp) FeePayer() AccountUID { return o.Account }

type WitnessUpdateOp struct {
	Fee        Share
	Account    AccountUID
	SigningKey *string
	URL        *string
}

func (o WitnessUpdateOp) OpTag() OpTag        { return OpWitnessUpdate }
func (o WitnessUpdateOp) FeePayer() AccountUID { return o.Account }

type WitnessVoteUpdateOp struct {
	Fee      Share
	Voter    AccountUID
	ToAdd    []AccountUID
	ToRemove []AccountUID
}

func (o WitnessVoteUpdateOp) OpTag() OpTag        { return OpWitnessVoteUpdate }
func (o WitnessVoteUpdateOp) FeePayer() AccountUID { return o.Voter }

type WitnessCollectPayOp struct {
	Fee     Share
	Witness AccountUID
}

func (o WitnessCollectPayOp) OpTag() OpTag        { return OpWitnessCollectPay }
func (o WitnessCollectPayOp) FeePayer() AccountUID { return o.Witness }

type WitnessReportOp struct {
	Fee         Share
	Reporter    AccountUID
	Offender    AccountUID
	FirstHeader BlockHeader
	SecondHeader BlockHeader
}

func (o WitnessReportOp) OpTag() OpTag        { return OpWitnessReport }
func (o WitnessReportOp) FeePayer() AccountUID { return o.Reporter }

// --- platform_* ---

type PlatformCreateOp struct {
	Fee     Share
	Account AccountUID
	Pledge  Share
	URL     string
	Name    string
}

func (o PlatformCreateOp) OpTag() OpTag        { return OpPlatformCreate }
func (o PlatformCreateOp) FeePayer() AccountUID { return o.Account }

type PlatformUpdateOp struct {
	Fee     Share
	Account AccountUID
	URL     *string
	Name    *string
}

func (o PlatformUpdateOp) OpTag() OpTag        { return OpPlatformUpdate }
func (o PlatformUpdateOp) FeePayer() AccountUID { return o.Account }

type PlatformVoteUpdateOp struct {
	Fee      Share
	Voter    AccountUID
	ToAdd    []AccountUID
	ToRemove []AccountUID
}

func (o PlatformVoteUpdateOp) OpTag() OpTag        { return OpPlatformVoteUpdate }
func (o PlatformVoteUpdateOp) FeePayer() AccountUID { return o.Voter }

// --- content economy: post, score, reward, buyout, license ---

type PostOp struct {
	Fee          Share
	Platform     AccountUID
	Poster       AccountUID
	PostPID      InstanceID
	OriginPoster AccountUID // NoAsset sentinel poster uid for an original post
	OriginPID    InstanceID
	Hash         string
	Title        string
	Body         string
	Extra        []byte
	License      LicenseType
}

func (o PostOp) OpTag() OpTag        { return OpPost }
func (o PostOp) FeePayer() AccountUID { return o.Platform }

type PostUpdateOp struct {
	Fee      Share
	Platform AccountUID
	Poster   AccountUID
	PostPID  InstanceID
	Hash     *string
	Title    *string
	Body     *string
	Receiptor *AccountUID
}

func (o PostUpdateOp) OpTag() OpTag        { return OpPostUpdate }
func (o PostUpdateOp) FeePayer() AccountUID { return o.Platform }

type ScoreCreateOp struct {
	Fee      Share
	Platform AccountUID
	Poster   AccountUID
	PostPID  InstanceID
	Scorer   AccountUID
	Score    Opinion // -5..5
	CSAF     Share
}

func (o ScoreCreateOp) OpTag() OpTag        { return OpScoreCreate }
func (o ScoreCreateOp) FeePayer() AccountUID { return o.Platform }

type RewardOp struct {
	Fee      Share
	Platform AccountUID
	Poster   AccountUID
	PostPID  InstanceID
	FromAccount AccountUID
	Amount   Share
	Asset    AssetAID
}

func (o RewardOp) OpTag() OpTag        { return OpReward }
func (o RewardOp) FeePayer() AccountUID { return o.Platform }

type RewardProxyOp struct {
	Fee         Share
	Platform    AccountUID
	Poster      AccountUID
	PostPID     InstanceID
	FromAccount AccountUID
	Amount      Share // CSAF spent via platform proxy authorization
}

func (o RewardProxyOp) OpTag() OpTag        { return OpRewardProxy }
func (o RewardProxyOp) FeePayer() AccountUID { return o.Platform }

type BuyoutOp struct {
	Fee          Share
	Platform     AccountUID
	Buyer        AccountUID
	OriginPoster AccountUID
	OriginPID    InstanceID
	Price        Share
}

func (o BuyoutOp) OpTag() OpTag        { return OpBuyout }
func (o BuyoutOp) FeePayer() AccountUID { return o.Platform }

type LicenseCreateOp struct {
	Fee       Share
	Platform  AccountUID
	LicenseLID InstanceID
	Poster    AccountUID
	Type      LicenseType
	Title     string
	Body      string
	Hash      string
}

func (o LicenseCreateOp) OpTag() OpTag        { return OpLicenseCreate }
func (o LicenseCreateOp) FeePayer() AccountUID { return o.Platform }

// LicenseType enumerates the reuse-grant codes recovered from
// original_source/libraries/chain/content_evaluator.cpp.
type LicenseType uint8

const (
	LicenseAllRightsReserved LicenseType = iota
	LicenseExclusiveAuthorization
	LicenseNonExclusiveAuthorization
	LicensePublicDomain
)

// --- csaf_* ---

type CSAFCollectOp struct {
	Fee     Share
	Account AccountUID
	Amount  Share
}

func (o CSAFCollectOp) OpTag() OpTag        { return OpCSAFCollect }
func (o CSAFCollectOp) FeePayer() AccountUID { return o.Account }

type CSAFLeaseOp struct {
	Fee      Share
	From     AccountUID
	To       AccountUID
	Amount   Share
	Duration uint32 // seconds
}

func (o CSAFLeaseOp) OpTag() OpTag        { return OpCSAFLease }
func (o CSAFLeaseOp) FeePayer() AccountUID { return o.From }

// --- asset_*, transfer ---

type AssetCreateOp struct {
	Fee        Share
	Issuer     AccountUID
	Symbol     string
	Precision  uint8
	MaxSupply  Share
	CoreExchangeRateBase  Share
	CoreExchangeRateQuote Share
}

func (o AssetCreateOp) OpTag() OpTag        { return OpAssetCreate }
func (o AssetCreateOp) FeePayer() AccountUID { return o.Issuer }

type AssetIssueOp struct {
	Fee      Share
	Issuer   AccountUID
	Asset    AssetAID
	Amount   Share
	To       AccountUID
}

func (o AssetIssueOp) OpTag() OpTag        { return OpAssetIssue }
func (o AssetIssueOp) FeePayer() AccountUID { return o.Issuer }

type AssetReserveOp struct {
	Fee    Share
	Account AccountUID
	Asset   AssetAID
	Amount  Share
}

func (o AssetReserveOp) OpTag() OpTag        { return OpAssetReserve }
func (o AssetReserveOp) FeePayer() AccountUID { return o.Account }

type AssetUpdateOp struct {
	Fee        Share
	Issuer     AccountUID
	Asset      AssetAID
	CoreExchangeRateBase  *Share
	CoreExchangeRateQuote *Share
}

func (o AssetUpdateOp) OpTag() OpTag        { return OpAssetUpdate }
func (o AssetUpdateOp) FeePayer() AccountUID { return o.Issuer }

type AssetClaimFeesOp struct {
	Fee    Share
	Issuer AccountUID
	Asset  AssetAID
	Amount Share
}

func (o AssetClaimFeesOp) OpTag() OpTag        { return OpAssetClaimFees }
func (o AssetClaimFeesOp) FeePayer() AccountUID { return o.Issuer }

type TransferOp struct {
	Fee    Share
	From   AccountUID
	To     AccountUID
	Asset  AssetAID
	Amount Share
	Memo   []byte
}

func (o TransferOp) OpTag() OpTag        { return OpTransfer }
func (o TransferOp) FeePayer() AccountUID { return o.From }

type OverrideTransferOp struct {
	Fee    Share
	Issuer AccountUID
	From   AccountUID
	To     AccountUID
	Asset  AssetAID
	Amount Share
}

func (o OverrideTransferOp) OpTag() OpTag        { return OpOverrideTransfer }
func (o OverrideTransferOp) FeePayer() AccountUID { return o.Issuer }

// --- proposal_* (generic multi-operation proposal, depth-limited) ---

type ProposalCreateOp struct {
	Fee             Share
	Proposer        AccountUID
	ExpirationTime  uint32
	ProposedOps     []TaggedOperation
	ReviewPeriod    uint32
}

func (o ProposalCreateOp) OpTag() OpTag        { return OpProposalCreate }
func (o ProposalCreateOp) FeePayer() AccountUID { return o.Proposer }

type ProposalUpdateOp struct {
	Fee              Share
	FeePayingAccount AccountUID
	Proposal         InstanceID
	ActiveApprovalsToAdd    []AccountUID
	ActiveApprovalsToRemove []AccountUID
}

func (o ProposalUpdateOp) OpTag() OpTag        { return OpProposalUpdate }
func (o ProposalUpdateOp) FeePayer() AccountUID { return o.FeePayingAccount }

type ProposalDeleteOp struct {
	Fee              Share
	FeePayingAccount AccountUID
	Proposal         InstanceID
}

func (o ProposalDeleteOp) OpTag() OpTag        { return OpProposalDelete }
func (o ProposalDeleteOp) FeePayer() AccountUID { return o.FeePayingAccount }

// --- contract-originated, not user-signed ---

type InterContractCallOp struct {
	Caller   AccountUID
	Callee   AccountUID
	Method   string
	Args     []byte
}

func (o InterContractCallOp) OpTag() OpTag        { return OpInterContractCall }
func (o InterContractCallOp) FeePayer() AccountUID { return o.Caller }

type InlineTransferOp struct {
	Caller AccountUID
	From   AccountUID
	To     AccountUID
	Asset  AssetAID
	Amount Share
}

func (o InlineTransferOp) OpTag() OpTag        { return OpInlineTransfer }
func (o InlineTransferOp) FeePayer() AccountUID { return o.Caller }

// decodeOperationPayload re-hydrates a concrete operation from its raw RLP
// payload given the tag it was wire-tagged with; the inverse of TaggedOperation's
// own EncodeRLP. One case per operation in the taxonomy.
func decodeOperationPayload(tag OpTag, raw []byte) (Operation, error) {
	switch tag {
	case OpAccountCreate:
		var v AccountCreateOp
		return v, rlpDecode(raw, &v)
	case OpAccountManage:
		var v AccountManageOp
		return v, rlpDecode(raw, &v)
	case OpAccountUpdateKey:
		var v AccountUpdateKeyOp
		return v, rlpDecode(raw, &v)
	case OpAccountUpdateAuth:
		var v AccountUpdateAuthOp
		return v, rlpDecode(raw, &v)
	case OpAccountUpdateProxy:
		var v AccountUpdateProxyOp
		return v, rlpDecode(raw, &v)
	case OpAccountAuthPlatform:
		var v AccountAuthPlatformOp
		return v, rlpDecode(raw, &v)
	case OpAccountCancelAuthPlatform:
		var v AccountCancelAuthPlatformOp
		return v, rlpDecode(raw, &v)
	case OpAccountEnableAllowedAssets:
		var v AccountEnableAllowedAssetsOp
		return v, rlpDecode(raw, &v)
	case OpAccountUpdateAllowedAssets:
		var v AccountUpdateAllowedAssetsOp
		return v, rlpDecode(raw, &v)
	case OpAccountWhitelist:
		var v AccountWhitelistOp
		return v, rlpDecode(raw, &v)
	case OpCommitteeMemberCreate:
		var v CommitteeMemberCreateOp
		return v, rlpDecode(raw, &v)
	case OpCommitteeMemberUpdate:
		var v CommitteeMemberUpdateOp
		return v, rlpDecode(raw, &v)
	case OpCommitteeMemberVoteUpdate:
		var v CommitteeMemberVoteUpdateOp
		return v, rlpDecode(raw, &v)
	case OpCommitteeProposalCreate:
		var v CommitteeProposalCreateOp
		return v, rlpDecode(raw, &v)
	case OpCommitteeProposalUpdate:
		var v CommitteeProposalUpdateOp
		return v, rlpDecode(raw, &v)
	case OpWitnessCreate:
		var v WitnessCreateOp
		return v, rlpDecode(raw, &v)
	case OpWitnessUpdate:
		var v WitnessUpdateOp
		return v, rlpDecode(raw, &v)
	case OpWitnessVoteUpdate:
		var v WitnessVoteUpdateOp
		return v, rlpDecode(raw, &v)
	case OpWitnessCollectPay:
		var v WitnessCollectPayOp
		return v, rlpDecode(raw, &v)
	case OpWitnessReport:
		var v WitnessReportOp
		return v, rlpDecode(raw, &v)
	case OpPlatformCreate:
		var v PlatformCreateOp
		return v, rlpDecode(raw, &v)
	case OpPlatformUpdate:
		var v PlatformUpdateOp
		return v, rlpDecode(raw, &v)
	case OpPlatformVoteUpdate:
		var v PlatformVoteUpdateOp
		return v, rlpDecode(raw, &v)
	case OpPost:
		var v PostOp
		return v, rlpDecode(raw, &v)
	case OpPostUpdate:
		var v PostUpdateOp
		return v, rlpDecode(raw, &v)
	case OpScoreCreate:
		var v ScoreCreateOp
		return v, rlpDecode(raw, &v)
	case OpReward:
		var v RewardOp
		return v, rlpDecode(raw, &v)
	case OpRewardProxy:
		var v RewardProxyOp
		return v, rlpDecode(raw, &v)
	case OpBuyout:
		var v BuyoutOp
		return v, rlpDecode(raw, &v)
	case OpLicenseCreate:
		var v LicenseCreateOp
		return v, rlpDecode(raw, &v)
	case OpCSAFCollect:
		var v CSAFCollectOp
		return v, rlpDecode(raw, &v)
	case OpCSAFLease:
		var v CSAFLeaseOp
		return v, rlpDecode(raw, &v)
	case OpAssetCreate:
		var v AssetCreateOp
		return v, rlpDecode(raw, &v)
	case OpAssetIssue:
		var v AssetIssueOp
		return v, rlpDecode(raw, &v)
	case OpAssetReserve:
		var v AssetReserveOp
		return v, rlpDecode(raw, &v)
	case OpAssetUpdate:
		var v AssetUpdateOp
		return v, rlpDecode(raw, &v)
	case OpAssetClaimFees:
		var v AssetClaimFeesOp
		return v, rlpDecode(raw, &v)
	case OpTransfer:
		var v TransferOp
		return v, rlpDecode(raw, &v)
	case OpOverrideTransfer:
		var v OverrideTransferOp
		return v, rlpDecode(raw, &v)
	case OpProposalCreate:
		var v ProposalCreateOp
		return v, rlpDecode(raw, &v)
	case OpProposalUpdate:
		var v ProposalUpdateOp
		return v, rlpDecode(raw, &v)
	case OpProposalDelete:
		var v ProposalDeleteOp
		return v, rlpDecode(raw, &v)
	case OpInterContractCall:
		var v InterContractCallOp
		return v, rlpDecode(raw, &v)
	case OpInlineTransfer:
		var v InlineTransferOp
		return v, rlpDecode(raw, &v)
	default:
		return nil, fmt.Errorf("types: unknown operation tag %d", tag)
	}
}
